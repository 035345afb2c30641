package config

import (
	"os"
	"regexp"
)

// varPattern matches ${NAME} and $NAME.
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Lookup resolves a variable name.
type Lookup func(name string) (string, bool)

// EnvLookup consults vars first, then the process environment.
func EnvLookup(vars map[string]string) Lookup {
	return func(name string) (string, bool) {
		if v, ok := vars[name]; ok {
			return v, true
		}
		return os.LookupEnv(name)
	}
}

// Substitute replaces $NAME and ${NAME} in s. Unknown names are left as
// written.
func Substitute(s string, lookup Lookup) string {
	if lookup == nil {
		return s
	}
	return varPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := varPattern.FindStringSubmatch(m)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		if v, ok := lookup(name); ok {
			return v
		}
		return m
	})
}

// IsReference reports whether s is exactly one $NAME or ${NAME}.
func IsReference(s string) bool {
	loc := varPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// SubstituteValue applies Substitute to every string inside v and returns
// a new value.
func SubstituteValue(v any, lookup Lookup) any {
	switch t := v.(type) {
	case string:
		return Substitute(t, lookup)
	case map[string]any:
		return substituteMap(t, lookup)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = SubstituteValue(e, lookup)
		}
		return out
	default:
		return v
	}
}

func substituteMap(m map[string]any, lookup Lookup) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = SubstituteValue(v, lookup)
	}
	return out
}

// SubstituteCheckpoint returns a copy of c with variables substituted in
// every string field except evaluation_parameters, which keep their
// references for expectation.Evaluator.ResolveParameters.
func SubstituteCheckpoint(c *CheckpointConfig, lookup Lookup) *CheckpointConfig {
	out := c.Clone()
	if out == nil {
		return nil
	}
	sub := func(s string) string { return Substitute(s, lookup) }

	out.RunNameTemplate = sub(out.RunNameTemplate)
	out.ExpectationSuiteName = sub(out.ExpectationSuiteName)
	out.BatchRequest = substituteBatchRequest(out.BatchRequest, lookup)
	out.ActionList = substituteActions(out.ActionList, lookup)
	out.RuntimeConfiguration = substituteMap(out.RuntimeConfiguration, lookup)
	out.SlackWebhook = sub(out.SlackWebhook)
	for i := range out.Validations {
		v := &out.Validations[i]
		v.ExpectationSuiteName = sub(v.ExpectationSuiteName)
		v.BatchRequest = substituteBatchRequest(v.BatchRequest, lookup)
		v.ActionList = substituteActions(v.ActionList, lookup)
		v.RuntimeConfiguration = substituteMap(v.RuntimeConfiguration, lookup)
	}
	return out
}

func substituteBatchRequest(b *BatchRequest, lookup Lookup) *BatchRequest {
	if b == nil {
		return nil
	}
	b.DatasourceName = Substitute(b.DatasourceName, lookup)
	b.DataConnectorName = Substitute(b.DataConnectorName, lookup)
	b.DataAssetName = Substitute(b.DataAssetName, lookup)
	if q := b.DataConnectorQuery; q != nil {
		for k, v := range q.BatchFilterParameters {
			q.BatchFilterParameters[k] = Substitute(v, lookup)
		}
	}
	b.BatchIdentifiers = substituteMap(b.BatchIdentifiers, lookup)
	return b
}

func substituteActions(list []ActionSpec, lookup Lookup) []ActionSpec {
	for i := range list {
		list[i].Action = substituteMap(list[i].Action, lookup)
	}
	return list
}
