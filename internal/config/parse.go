package config

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind classifies a parsed document.
type Kind string

const (
	KindCheckpoint Kind = "checkpoint"
	KindDatasource Kind = "datasource"
)

// Document is a parsed and validated YAML document.
type Document struct {
	Kind      Kind
	ClassName string

	// Raw is the document as decoded from YAML, before typing.
	Raw map[string]any

	// Node is the root mapping node, kept for line lookups.
	Node *yaml.Node

	Checkpoint *CheckpointConfig
	Datasource *DatasourceConfig
}

// Parse decodes a YAML document, picks its kind from class_name (or
// classHint when class_name is absent), checks it against the schema and
// runs semantic validation. All errors found are returned together; the
// document is nil when any error was found.
func Parse(data []byte, classHint string) (*Document, []ValidationError) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, []ValidationError{{Field: "document", Message: err.Error(), Code: ErrParse}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, []ValidationError{{Field: "document", Message: "document must be a YAML mapping", Code: ErrParse}}
	}
	node := root.Content[0]

	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return nil, []ValidationError{{Field: "document", Message: err.Error(), Code: ErrParse}}
	}

	className, _ := raw["class_name"].(string)
	if className == "" && classHint != "" {
		className = classHint
		raw["class_name"] = classHint
	}

	doc := &Document{ClassName: className, Raw: raw, Node: node}

	switch className {
	case ClassCheckpoint, ClassSimpleCheckpoint:
		def := DefCheckpoint
		if className == ClassSimpleCheckpoint {
			def = DefSimpleCheckpoint
		}
		if errs := CheckSchema(def, raw, node); len(errs) > 0 {
			return nil, errs
		}
		var cfg CheckpointConfig
		if err := decodeStrict(node, &cfg); err != nil {
			return nil, []ValidationError{{Field: "document", Message: err.Error(), Code: ErrParse}}
		}
		cfg.ClassName = className
		if errs := attachLines(ValidateCheckpoint(&cfg, false), node); len(errs) > 0 {
			return nil, errs
		}
		doc.Kind = KindCheckpoint
		doc.Checkpoint = &cfg

	case ClassDatasource:
		if errs := CheckSchema(DefDatasource, raw, node); len(errs) > 0 {
			return nil, errs
		}
		var ds DatasourceConfig
		if err := decodeStrict(node, &ds); err != nil {
			return nil, []ValidationError{{Field: "document", Message: err.Error(), Code: ErrParse}}
		}
		ds.ClassName = className
		if errs := attachLines(ValidateDatasource(&ds), node); len(errs) > 0 {
			return nil, errs
		}
		doc.Kind = KindDatasource
		doc.Datasource = &ds

	case "":
		return nil, []ValidationError{{
			Field:   "class_name",
			Message: "class_name is required",
			Code:    ErrUnknownClass,
		}}

	default:
		return nil, []ValidationError{{
			Field:   "class_name",
			Message: fmt.Sprintf("unsupported class_name %q", className),
			Code:    ErrUnknownClass,
			Line:    lineOf(node, []string{"class_name"}),
		}}
	}

	return doc, nil
}

// ParseCheckpoint parses a checkpoint document. Errors are returned as
// ValidationErrors.
func ParseCheckpoint(data []byte) (*CheckpointConfig, error) {
	doc, errs := Parse(data, ClassCheckpoint)
	if len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	if doc.Kind != KindCheckpoint {
		return nil, ValidationErrors{{Field: "class_name", Message: "not a checkpoint document", Code: ErrUnknownClass}}
	}
	return doc.Checkpoint, nil
}

// ParseDatasource parses a datasource document.
func ParseDatasource(data []byte) (*DatasourceConfig, error) {
	doc, errs := Parse(data, ClassDatasource)
	if len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	if doc.Kind != KindDatasource {
		return nil, ValidationErrors{{Field: "class_name", Message: "not a datasource document", Code: ErrUnknownClass}}
	}
	return doc.Datasource, nil
}

// ParseOverrides parses a partial checkpoint config used as a run-time
// override layer. name is optional and null actions are allowed.
func ParseOverrides(data []byte) (*CheckpointConfig, error) {
	var cfg CheckpointConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, ValidationErrors{{Field: "document", Message: err.Error(), Code: ErrParse}}
	}
	if errs := validateActionList("action_list", cfg.ActionList, true); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// decodeStrict decodes a node rejecting unknown fields (catches typos).
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// attachLines fills in Line for errors whose Field resolves in node.
func attachLines(errs []ValidationError, node *yaml.Node) []ValidationError {
	for i := range errs {
		if errs[i].Line == 0 {
			errs[i].Line = lineOf(node, splitField(errs[i].Field))
		}
	}
	return errs
}

// splitField turns "validations[0].action_list[1].name" into path segments.
func splitField(field string) []string {
	var path []string
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			path = append(path, string(cur))
			cur = cur[:0]
		}
	}
	for i := 0; i < len(field); i++ {
		switch c := field[i]; c {
		case '.', '[', ']':
			flush()
		default:
			cur = append(cur, c)
		}
	}
	flush()
	return path
}

// lineOf returns the line of the deepest node reachable along path, or 0.
func lineOf(node *yaml.Node, path []string) int {
	if node == nil {
		return 0
	}
	line := 0
	cur := node
	for _, seg := range path {
		next, keyLine := child(cur, seg)
		if next == nil {
			break
		}
		if keyLine > 0 {
			line = keyLine
		} else {
			line = next.Line
		}
		cur = next
	}
	return line
}

// child resolves one path segment in a mapping or sequence node.
// Returns the value node and, for mappings, the key's line.
func child(node *yaml.Node, seg string) (*yaml.Node, int) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == seg {
				return node.Content[i+1], node.Content[i].Line
			}
		}
	case yaml.SequenceNode:
		idx, err := strconv.Atoi(seg)
		if err == nil && idx >= 0 && idx < len(node.Content) {
			return node.Content[idx], 0
		}
	}
	return nil, 0
}
