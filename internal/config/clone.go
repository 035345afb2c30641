package config

// CloneValue deep-copies a free-form value decoded from YAML or JSON.
// Scalars are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// CloneMap deep-copies a map. A nil map stays nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// Clone returns a deep copy of the checkpoint config.
func (c *CheckpointConfig) Clone() *CheckpointConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.BatchRequest = c.BatchRequest.Clone()
	if c.Validations != nil {
		out.Validations = make([]ValidationSpec, len(c.Validations))
		for i, v := range c.Validations {
			out.Validations[i] = v.Clone()
		}
	}
	out.ActionList = cloneActions(c.ActionList)
	out.EvaluationParameters = CloneMap(c.EvaluationParameters)
	out.RuntimeConfiguration = CloneMap(c.RuntimeConfiguration)
	out.SiteNames = cloneNames(c.SiteNames)
	out.NotifyWith = cloneNames(c.NotifyWith)
	return &out
}

// Clone returns a deep copy of the validation.
func (v ValidationSpec) Clone() ValidationSpec {
	v.BatchRequest = v.BatchRequest.Clone()
	v.ActionList = cloneActions(v.ActionList)
	v.EvaluationParameters = CloneMap(v.EvaluationParameters)
	v.RuntimeConfiguration = CloneMap(v.RuntimeConfiguration)
	return v
}

// Clone returns a deep copy of the batch request.
func (b *BatchRequest) Clone() *BatchRequest {
	if b == nil {
		return nil
	}
	out := *b
	if b.DataConnectorQuery != nil {
		q := *b.DataConnectorQuery
		if q.Index != nil {
			idx := *q.Index
			q.Index = &idx
		}
		if q.BatchFilterParameters != nil {
			q.BatchFilterParameters = make(map[string]string, len(b.DataConnectorQuery.BatchFilterParameters))
			for k, v := range b.DataConnectorQuery.BatchFilterParameters {
				q.BatchFilterParameters[k] = v
			}
		}
		out.DataConnectorQuery = &q
	}
	out.RuntimeParameters = CloneMap(b.RuntimeParameters)
	out.BatchIdentifiers = CloneMap(b.BatchIdentifiers)
	return &out
}

func cloneActions(list []ActionSpec) []ActionSpec {
	if list == nil {
		return nil
	}
	out := make([]ActionSpec, len(list))
	for i, a := range list {
		out[i] = ActionSpec{Name: a.Name, Action: CloneMap(a.Action)}
	}
	return out
}

func cloneNames(n NameList) NameList {
	if n == nil {
		return nil
	}
	return append(NameList(nil), n...)
}
