package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// AllNames is the keyword selecting every configured name (all sites).
const AllNames = "all"

// NameList is a list of names that may also be written as a single scalar,
// e.g. `site_names: all` or `site_names: [local_site]`.
type NameList []string

// IsAll reports whether the list selects everything: empty, or the single
// keyword "all".
func (n NameList) IsAll() bool {
	return len(n) == 0 || (len(n) == 1 && n[0] == AllNames)
}

// Contains reports whether name is selected.
func (n NameList) Contains(name string) bool {
	if n.IsAll() {
		return true
	}
	for _, s := range n {
		if s == name {
			return true
		}
	}
	return false
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (n *NameList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*n = nil
			return nil
		}
		*n = NameList{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*n = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a name or a list of names", node.Line)
	}
}

// UnmarshalJSON accepts a string or an array of strings.
func (n *NameList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*n = NameList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected a name or a list of names: %w", err)
	}
	*n = list
	return nil
}

// Values returns the names as a []any, the shape action descriptors use.
func (n NameList) Values() []any {
	out := make([]any, len(n))
	for i, s := range n {
		out[i] = s
	}
	return out
}
