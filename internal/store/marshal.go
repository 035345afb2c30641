package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// marshalDocument converts a config document to canonical JSON TEXT and
// returns its fingerprint alongside.
func marshalDocument(v any) (string, string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", "", fmt.Errorf("marshal document: %w", err)
	}
	fp, err := ir.Fingerprint(v)
	if err != nil {
		return "", "", err
	}
	return string(data), fp, nil
}

// unmarshalDocument decodes a stored config document. JSON is read with
// the YAML decoder so free-form values come back typed exactly as when the
// document was first parsed from YAML (int, float64, string, bool).
func unmarshalDocument(data string, out any) error {
	if err := yaml.Unmarshal([]byte(yamlSafe(data)), out); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}

// yamlSafe escapes characters canonical JSON leaves literal but YAML
// treats as line breaks or rejects. They only occur inside strings.
func yamlSafe(s string) string {
	if !strings.ContainsFunc(s, yamlUnsafe) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if yamlUnsafe(r) {
			fmt.Fprintf(&b, `\u%04X`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func yamlUnsafe(r rune) bool {
	return (r >= 0x7F && r <= 0x9F) || r == 0x2028 || r == 0x2029 || r == 0xFEFF
}

// marshalJSON converts a value to canonical JSON TEXT.
func marshalJSON(v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	return string(data), nil
}

// unmarshalJSON decodes JSON TEXT with encoding/json.
func unmarshalJSON(data string, out any) error {
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}
