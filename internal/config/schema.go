package config

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Schema definitions available for CheckSchema.
const (
	DefCheckpoint       = "#Checkpoint"
	DefSimpleCheckpoint = "#SimpleCheckpoint"
	DefDatasource       = "#Datasource"
)

var (
	schemaOnce  sync.Once
	schemaCtx   *cue.Context
	schemaValue cue.Value
	schemaErr   error

	// cue values are not safe for concurrent use
	schemaMu sync.Mutex
)

// loadSchema compiles the embedded schema once per process.
func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		schemaValue = schemaCtx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		schemaErr = schemaValue.Err()
	})
	return schemaCtx, schemaValue, schemaErr
}

// CheckSchema unifies a decoded document with a schema definition and
// returns one ValidationError per violation. node, when non-nil, is the
// document's YAML root and is used to attach line numbers.
func CheckSchema(def string, doc map[string]any, node *yaml.Node) []ValidationError {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, schema, err := loadSchema()
	if err != nil {
		return []ValidationError{{
			Field:   "schema",
			Message: fmt.Sprintf("embedded schema does not compile: %v", err),
			Code:    ErrGeneric,
		}}
	}

	defVal := schema.LookupPath(cue.ParsePath(def))
	if !defVal.Exists() {
		return []ValidationError{{
			Field:   "schema",
			Message: fmt.Sprintf("unknown schema definition %s", def),
			Code:    ErrGeneric,
		}}
	}

	docVal := ctx.Encode(doc)
	if err := docVal.Err(); err != nil {
		return []ValidationError{{
			Field:   "document",
			Message: fmt.Sprintf("document cannot be encoded: %v", err),
			Code:    ErrSchema,
		}}
	}

	unified := defVal.Unify(docVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convertCUEErrors(err, node)
	}
	return nil
}

// convertCUEErrors flattens CUE errors into ValidationErrors, de-duplicating
// identical messages for the same path (disjunctions report once per arm).
func convertCUEErrors(err error, node *yaml.Node) []ValidationError {
	var out []ValidationError
	seen := make(map[string]bool)

	for _, e := range errors.Errors(err) {
		path := trimDefinitionPath(e.Path())
		field := strings.Join(path, ".")
		if field == "" {
			field = "document"
		}
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)

		key := field + "\x00" + msg
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, ValidationError{
			Field:   field,
			Message: msg,
			Code:    ErrSchema,
			Line:    lineOf(node, path),
		})
	}

	if len(out) == 0 {
		out = append(out, ValidationError{Field: "document", Message: err.Error(), Code: ErrSchema})
	}
	return out
}

// trimDefinitionPath drops leading "#Definition" selectors from a CUE path.
func trimDefinitionPath(path []string) []string {
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	return path
}
