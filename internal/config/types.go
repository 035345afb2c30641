package config

// Class names understood by the config layer.
const (
	ClassCheckpoint       = "Checkpoint"
	ClassSimpleCheckpoint = "SimpleCheckpoint"
	ClassDatasource       = "Datasource"
)

// CheckpointConfig is the declarative description of a checkpoint.
// Maps hold free-form values decoded from YAML (string, int, float64, bool,
// []any, map[string]any, nil).
type CheckpointConfig struct {
	Name                 string           `yaml:"name" json:"name"`
	ConfigVersion        float64          `yaml:"config_version,omitempty" json:"config_version,omitempty"`
	ClassName            string           `yaml:"class_name,omitempty" json:"class_name,omitempty"`
	ModuleName           string           `yaml:"module_name,omitempty" json:"module_name,omitempty"`
	TemplateName         string           `yaml:"template_name,omitempty" json:"template_name,omitempty"`
	RunNameTemplate      string           `yaml:"run_name_template,omitempty" json:"run_name_template,omitempty"`
	ExpectationSuiteName string           `yaml:"expectation_suite_name,omitempty" json:"expectation_suite_name,omitempty"`
	BatchRequest         *BatchRequest    `yaml:"batch_request,omitempty" json:"batch_request,omitempty"`
	Validations          []ValidationSpec `yaml:"validations,omitempty" json:"validations,omitempty"`
	ActionList           []ActionSpec     `yaml:"action_list,omitempty" json:"action_list,omitempty"`
	EvaluationParameters map[string]any   `yaml:"evaluation_parameters,omitempty" json:"evaluation_parameters,omitempty"`
	RuntimeConfiguration map[string]any   `yaml:"runtime_configuration,omitempty" json:"runtime_configuration,omitempty"`

	// SimpleCheckpoint only. Cleared by Expand.
	SiteNames    NameList `yaml:"site_names,omitempty" json:"site_names,omitempty"`
	SlackWebhook string   `yaml:"slack_webhook,omitempty" json:"slack_webhook,omitempty"`
	NotifyOn     string   `yaml:"notify_on,omitempty" json:"notify_on,omitempty"`
	NotifyWith   NameList `yaml:"notify_with,omitempty" json:"notify_with,omitempty"`
}

// IsSimple reports whether the config uses the SimpleCheckpoint form.
func (c *CheckpointConfig) IsSimple() bool {
	return c.ClassName == ClassSimpleCheckpoint
}

// ValidationSpec is one entry of a checkpoint's validations list.
type ValidationSpec struct {
	BatchRequest         *BatchRequest  `yaml:"batch_request,omitempty" json:"batch_request,omitempty"`
	ExpectationSuiteName string         `yaml:"expectation_suite_name,omitempty" json:"expectation_suite_name,omitempty"`
	ActionList           []ActionSpec   `yaml:"action_list,omitempty" json:"action_list,omitempty"`
	EvaluationParameters map[string]any `yaml:"evaluation_parameters,omitempty" json:"evaluation_parameters,omitempty"`
	RuntimeConfiguration map[string]any `yaml:"runtime_configuration,omitempty" json:"runtime_configuration,omitempty"`
}

// BatchRequest selects a batch of data from a datasource.
type BatchRequest struct {
	DatasourceName     string              `yaml:"datasource_name,omitempty" json:"datasource_name,omitempty"`
	DataConnectorName  string              `yaml:"data_connector_name,omitempty" json:"data_connector_name,omitempty"`
	DataAssetName      string              `yaml:"data_asset_name,omitempty" json:"data_asset_name,omitempty"`
	DataConnectorQuery *DataConnectorQuery `yaml:"data_connector_query,omitempty" json:"data_connector_query,omitempty"`
	RuntimeParameters  map[string]any      `yaml:"runtime_parameters,omitempty" json:"runtime_parameters,omitempty"`
	BatchIdentifiers   map[string]any      `yaml:"batch_identifiers,omitempty" json:"batch_identifiers,omitempty"`
}

// DataConnectorQuery narrows the batches a connector returns.
// A negative Index counts from the most recent batch (-1 is the last).
type DataConnectorQuery struct {
	Index                 *int              `yaml:"index,omitempty" json:"index,omitempty"`
	BatchFilterParameters map[string]string `yaml:"batch_filter_parameters,omitempty" json:"batch_filter_parameters,omitempty"`
}

// ActionSpec is one named entry of an action list. Action holds the
// descriptor: class_name plus kind-specific parameters. A nil Action in an
// upper layer removes the entry of the same name from the lower layer.
type ActionSpec struct {
	Name   string         `yaml:"name" json:"name"`
	Action map[string]any `yaml:"action" json:"action"`
}

// ClassName returns the descriptor's class_name, or "" when absent.
func (a ActionSpec) ClassName() string {
	if a.Action == nil {
		return ""
	}
	s, _ := a.Action["class_name"].(string)
	return s
}

// DatasourceConfig describes a datasource and its data connectors.
type DatasourceConfig struct {
	Name            string                         `yaml:"name" json:"name"`
	ClassName       string                         `yaml:"class_name,omitempty" json:"class_name,omitempty"`
	ModuleName      string                         `yaml:"module_name,omitempty" json:"module_name,omitempty"`
	ExecutionEngine ExecutionEngineConfig          `yaml:"execution_engine" json:"execution_engine"`
	DataConnectors  map[string]DataConnectorConfig `yaml:"data_connectors" json:"data_connectors"`
}

// ExecutionEngineConfig names the engine that materializes batches.
type ExecutionEngineConfig struct {
	ClassName  string `yaml:"class_name" json:"class_name"`
	ModuleName string `yaml:"module_name,omitempty" json:"module_name,omitempty"`
}

// DataConnectorConfig describes one data connector of a datasource.
type DataConnectorConfig struct {
	ClassName        string       `yaml:"class_name" json:"class_name"`
	ModuleName       string       `yaml:"module_name,omitempty" json:"module_name,omitempty"`
	BaseDirectory    string       `yaml:"base_directory,omitempty" json:"base_directory,omitempty"`
	GlobDirective    string       `yaml:"glob_directive,omitempty" json:"glob_directive,omitempty"`
	DefaultRegex     *RegexConfig `yaml:"default_regex,omitempty" json:"default_regex,omitempty"`
	BatchIdentifiers []string     `yaml:"batch_identifiers,omitempty" json:"batch_identifiers,omitempty"`
}

// RegexConfig maps regex capture groups to batch identifier names.
type RegexConfig struct {
	Pattern    string   `yaml:"pattern" json:"pattern"`
	GroupNames []string `yaml:"group_names" json:"group_names"`
}
