package config

// DeepMerge layers over on top of base and returns a new map. Nested maps
// merge key by key; any other value in over replaces the base value,
// including nil. Neither input is modified.
func DeepMerge(base, over map[string]any) map[string]any {
	if base == nil && over == nil {
		return nil
	}
	out := CloneMap(base)
	if out == nil {
		out = make(map[string]any, len(over))
	}
	for k, v := range over {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			out[k] = DeepMerge(bm, om)
			continue
		}
		out[k] = CloneValue(v)
	}
	return out
}

// MergeBatchRequest layers over on top of base. Set string fields win,
// the connector query merges field by field and the free-form maps are
// deep-merged.
func MergeBatchRequest(base, over *BatchRequest) *BatchRequest {
	if over == nil {
		return base.Clone()
	}
	if base == nil {
		return over.Clone()
	}
	out := base.Clone()
	if over.DatasourceName != "" {
		out.DatasourceName = over.DatasourceName
	}
	if over.DataConnectorName != "" {
		out.DataConnectorName = over.DataConnectorName
	}
	if over.DataAssetName != "" {
		out.DataAssetName = over.DataAssetName
	}
	if q := over.DataConnectorQuery; q != nil {
		if out.DataConnectorQuery == nil {
			out.DataConnectorQuery = &DataConnectorQuery{}
		}
		if q.Index != nil {
			idx := *q.Index
			out.DataConnectorQuery.Index = &idx
		}
		if len(q.BatchFilterParameters) > 0 {
			if out.DataConnectorQuery.BatchFilterParameters == nil {
				out.DataConnectorQuery.BatchFilterParameters = make(map[string]string, len(q.BatchFilterParameters))
			}
			for k, v := range q.BatchFilterParameters {
				out.DataConnectorQuery.BatchFilterParameters[k] = v
			}
		}
	}
	out.RuntimeParameters = DeepMerge(out.RuntimeParameters, over.RuntimeParameters)
	out.BatchIdentifiers = DeepMerge(out.BatchIdentifiers, over.BatchIdentifiers)
	return out
}

// MergeActionLists layers over on top of base by action name. An entry of
// over replaces the base entry of the same name in place; new names are
// appended in over's order. An over entry with a nil action removes the
// name. Removal markers never survive into the result.
func MergeActionLists(base, over []ActionSpec) []ActionSpec {
	if base == nil && over == nil {
		return nil
	}
	out := make([]ActionSpec, 0, len(base)+len(over))
	index := make(map[string]int, len(base))
	for _, a := range base {
		if a.Action == nil {
			continue
		}
		index[a.Name] = len(out)
		out = append(out, ActionSpec{Name: a.Name, Action: CloneMap(a.Action)})
	}

	removed := make(map[string]bool)
	for _, a := range over {
		if a.Action == nil {
			removed[a.Name] = true
			continue
		}
		delete(removed, a.Name)
		entry := ActionSpec{Name: a.Name, Action: CloneMap(a.Action)}
		if i, ok := index[a.Name]; ok {
			out[i] = entry
			continue
		}
		index[a.Name] = len(out)
		out = append(out, entry)
	}

	if len(removed) == 0 {
		return out
	}
	kept := out[:0]
	for _, a := range out {
		if !removed[a.Name] {
			kept = append(kept, a)
		}
	}
	return kept
}

// Layer returns child layered on top of base: set scalars override,
// validations concatenate (base first), action lists merge by name and the
// free-form maps deep-merge. Used for templates and run-time overrides.
func Layer(base, child *CheckpointConfig) *CheckpointConfig {
	if child == nil {
		return base.Clone()
	}
	if base == nil {
		out := child.Clone()
		out.ActionList = MergeActionLists(nil, child.ActionList)
		return out
	}

	out := base.Clone()
	if child.Name != "" {
		out.Name = child.Name
	}
	if child.ConfigVersion != 0 {
		out.ConfigVersion = child.ConfigVersion
	}
	if child.ClassName != "" {
		out.ClassName = child.ClassName
	}
	if child.ModuleName != "" {
		out.ModuleName = child.ModuleName
	}
	if child.TemplateName != "" {
		out.TemplateName = child.TemplateName
	}
	if child.RunNameTemplate != "" {
		out.RunNameTemplate = child.RunNameTemplate
	}
	if child.ExpectationSuiteName != "" {
		out.ExpectationSuiteName = child.ExpectationSuiteName
	}
	out.BatchRequest = MergeBatchRequest(base.BatchRequest, child.BatchRequest)

	for _, v := range child.Validations {
		out.Validations = append(out.Validations, v.Clone())
	}
	out.ActionList = MergeActionLists(base.ActionList, child.ActionList)
	out.EvaluationParameters = DeepMerge(base.EvaluationParameters, child.EvaluationParameters)
	out.RuntimeConfiguration = DeepMerge(base.RuntimeConfiguration, child.RuntimeConfiguration)

	if len(child.SiteNames) > 0 {
		out.SiteNames = cloneNames(child.SiteNames)
	}
	if child.SlackWebhook != "" {
		out.SlackWebhook = child.SlackWebhook
	}
	if child.NotifyOn != "" {
		out.NotifyOn = child.NotifyOn
	}
	if len(child.NotifyWith) > 0 {
		out.NotifyWith = cloneNames(child.NotifyWith)
	}
	return out
}
