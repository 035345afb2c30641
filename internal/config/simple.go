package config

// Action class names of the built-in actions.
const (
	ActionStoreValidationResult = "StoreValidationResultAction"
	ActionStoreEvaluationParams = "StoreEvaluationParametersAction"
	ActionUpdateDataDocs        = "UpdateDataDocsAction"
	ActionSlackNotification     = "SlackNotificationAction"
	ActionNoOp                  = "NoOpAction"
)

// Names of the actions a SimpleCheckpoint implies.
const (
	DefaultStoreValidationResultName = "store_validation_result"
	DefaultStoreEvaluationParamsName = "store_evaluation_params"
	DefaultUpdateDataDocsName        = "update_data_docs"
	DefaultSlackNotificationName     = "send_slack_notification"
)

// Slack renderer descriptor attached to notification actions.
const (
	SlackRendererModule = "great_expectations.render.renderer.slack_renderer"
	SlackRendererClass  = "SlackRenderer"
)

// Expand returns the explicit Checkpoint form of c. A SimpleCheckpoint gets
// its implied action list and loses its shorthand fields; any other config
// is returned as a copy.
func Expand(c *CheckpointConfig) *CheckpointConfig {
	out := c.Clone()
	if out == nil || !out.IsSimple() {
		return out
	}
	out.ClassName = ClassCheckpoint
	out.ActionList = DefaultActionList(c.SiteNames, c.SlackWebhook, c.NotifyOn, c.NotifyWith)
	out.SiteNames = nil
	out.SlackWebhook = ""
	out.NotifyOn = ""
	out.NotifyWith = nil
	return out
}

// DefaultActionList builds the action list implied by a SimpleCheckpoint.
func DefaultActionList(siteNames NameList, slackWebhook, notifyOn string, notifyWith NameList) []ActionSpec {
	docs := map[string]any{"class_name": ActionUpdateDataDocs}
	if !siteNames.IsAll() {
		docs["site_names"] = siteNames.Values()
	}

	list := []ActionSpec{
		{Name: DefaultStoreValidationResultName, Action: map[string]any{"class_name": ActionStoreValidationResult}},
		{Name: DefaultStoreEvaluationParamsName, Action: map[string]any{"class_name": ActionStoreEvaluationParams}},
		{Name: DefaultUpdateDataDocsName, Action: docs},
	}

	if slackWebhook == "" {
		return list
	}
	if notifyOn == "" {
		notifyOn = NotifyOnAll
	}
	slack := map[string]any{
		"class_name":    ActionSlackNotification,
		"slack_webhook": slackWebhook,
		"notify_on":     notifyOn,
		"renderer": map[string]any{
			"module_name": SlackRendererModule,
			"class_name":  SlackRendererClass,
		},
	}
	if len(notifyWith) > 0 {
		slack["notify_with"] = notifyWith.Values()
	}
	return append(list, ActionSpec{Name: DefaultSlackNotificationName, Action: slack})
}
