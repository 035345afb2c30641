package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// Validation error codes.
const (
	// Document errors (E001-E009)
	ErrGeneric      = "E001" // generic/unknown error
	ErrParse        = "E002" // YAML could not be parsed
	ErrUnknownClass = "E003" // class_name missing or unsupported
	ErrSchema       = "E004" // document violates the CUE schema

	// Checkpoint errors (E101-E119)
	ErrNameRequired         = "E101" // name is required
	ErrConfigVersion        = "E102" // unsupported config_version
	ErrDuplicateActionName  = "E103" // action names must be unique per list
	ErrActionClassRequired  = "E104" // action descriptor without class_name
	ErrUnknownActionClass   = "E105" // class_name not in the action registry
	ErrNullAction           = "E106" // null action outside of an override layer or template child
	ErrSimpleWithActionList = "E107" // SimpleCheckpoint may not declare action_list
	ErrInvalidNotifyOn      = "E108" // notify_on must be all|success|failure
	ErrSimpleOnlyField      = "E109" // SimpleCheckpoint field on a Checkpoint
	ErrBatchRequestRequired = "E110" // validation without a batch request
	ErrSuiteRequired        = "E111" // validation without an expectation suite

	// Datasource errors (E121-E129)
	ErrNoDataConnectors      = "E121" // at least one data connector required
	ErrUnknownConnectorClass = "E122" // unsupported data connector class
	ErrInvalidRegex          = "E123" // default_regex pattern does not compile
	ErrMissingBaseDirectory  = "E124" // filesystem connector without base_directory
	ErrUnknownEngine         = "E125" // unsupported execution engine
	ErrRegexGroups           = "E126" // group_names do not match capture groups
)

// Supported data connector and engine classes.
const (
	ClassInferredAssetFilesystemDataConnector = "InferredAssetFilesystemDataConnector"
	ClassRuntimeDataConnector                 = "RuntimeDataConnector"
	ClassPandasExecutionEngine                = "PandasExecutionEngine"
)

// Notification triggers.
const (
	NotifyOnAll     = "all"
	NotifyOnSuccess = "success"
	NotifyOnFailure = "failure"
)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is a collected list of problems in one document.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "no validation errors"
	case 1:
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(errs), strings.Join(msgs, "; "))
}

// ValidateCheckpoint checks a checkpoint config for semantic problems.
// Returns all errors found (does not fail-fast).
//
// layer marks configs used as overrides, where a null action is legal. A
// null action is also legal in a child of a template, where it removes the
// template's entry of that name.
func ValidateCheckpoint(c *CheckpointConfig, layer bool) []ValidationError {
	var errs []ValidationError

	if !layer && strings.TrimSpace(c.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required and must be non-empty",
			Code:    ErrNameRequired,
		})
	}

	if c.ConfigVersion > ir.ConfigVersion {
		errs = append(errs, ValidationError{
			Field:   "config_version",
			Message: fmt.Sprintf("config_version %v is newer than supported version %d", c.ConfigVersion, ir.ConfigVersion),
			Code:    ErrConfigVersion,
		})
	}

	switch c.ClassName {
	case "", ClassCheckpoint:
		if len(c.SiteNames) > 0 || c.SlackWebhook != "" || c.NotifyOn != "" || len(c.NotifyWith) > 0 {
			errs = append(errs, ValidationError{
				Field:   "class_name",
				Message: "site_names, slack_webhook, notify_on and notify_with require class_name SimpleCheckpoint",
				Code:    ErrSimpleOnlyField,
			})
		}
	case ClassSimpleCheckpoint:
		if len(c.ActionList) > 0 {
			errs = append(errs, ValidationError{
				Field:   "action_list",
				Message: "SimpleCheckpoint implies its action list; use class_name Checkpoint to declare one",
				Code:    ErrSimpleWithActionList,
			})
		}
		switch c.NotifyOn {
		case "", NotifyOnAll, NotifyOnSuccess, NotifyOnFailure:
		default:
			errs = append(errs, ValidationError{
				Field:   "notify_on",
				Message: fmt.Sprintf("invalid notify_on %q, must be \"all\", \"success\" or \"failure\"", c.NotifyOn),
				Code:    ErrInvalidNotifyOn,
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "class_name",
			Message: fmt.Sprintf("unsupported checkpoint class_name %q", c.ClassName),
			Code:    ErrUnknownClass,
		})
	}

	errs = append(errs, validateActionList("action_list", c.ActionList, layer || c.TemplateName != "")...)
	for i, v := range c.Validations {
		errs = append(errs, validateActionList(fmt.Sprintf("validations[%d].action_list", i), v.ActionList, true)...)
	}

	return errs
}

// validateActionList checks names and descriptors of one action list.
func validateActionList(field string, actions []ActionSpec, allowNull bool) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for i, a := range actions {
		path := fmt.Sprintf("%s[%d]", field, i)
		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: "action name is required",
				Code:    ErrNameRequired,
			})
		} else if seen[a.Name] {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("duplicate action name: %q", a.Name),
				Code:    ErrDuplicateActionName,
			})
		}
		seen[a.Name] = true

		if a.Action == nil {
			if !allowNull {
				errs = append(errs, ValidationError{
					Field:   path + ".action",
					Message: fmt.Sprintf("action %q has no descriptor", a.Name),
					Code:    ErrNullAction,
				})
			}
			continue
		}
		if a.ClassName() == "" {
			errs = append(errs, ValidationError{
				Field:   path + ".action.class_name",
				Message: fmt.Sprintf("action %q must declare class_name", a.Name),
				Code:    ErrActionClassRequired,
			})
		}
	}

	return errs
}

// ValidateActionClasses reports action descriptors whose class_name is not
// known to the caller's registry.
func ValidateActionClasses(c *CheckpointConfig, known func(className string) bool) []ValidationError {
	var errs []ValidationError
	check := func(field string, actions []ActionSpec) {
		for i, a := range actions {
			cls := a.ClassName()
			if cls == "" || known(cls) {
				continue
			}
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].action.class_name", field, i),
				Message: fmt.Sprintf("unknown action class_name %q", cls),
				Code:    ErrUnknownActionClass,
			})
		}
	}
	check("action_list", c.ActionList)
	for i, v := range c.Validations {
		check(fmt.Sprintf("validations[%d].action_list", i), v.ActionList)
	}
	return errs
}

// ValidateDatasource checks a datasource config for semantic problems.
func ValidateDatasource(d *DatasourceConfig) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required and must be non-empty",
			Code:    ErrNameRequired,
		})
	}

	if d.ClassName != "" && d.ClassName != ClassDatasource {
		errs = append(errs, ValidationError{
			Field:   "class_name",
			Message: fmt.Sprintf("unsupported datasource class_name %q", d.ClassName),
			Code:    ErrUnknownClass,
		})
	}

	if d.ExecutionEngine.ClassName != ClassPandasExecutionEngine {
		errs = append(errs, ValidationError{
			Field:   "execution_engine.class_name",
			Message: fmt.Sprintf("unsupported execution engine %q, only %s is available", d.ExecutionEngine.ClassName, ClassPandasExecutionEngine),
			Code:    ErrUnknownEngine,
		})
	}

	if len(d.DataConnectors) == 0 {
		errs = append(errs, ValidationError{
			Field:   "data_connectors",
			Message: "at least one data connector is required",
			Code:    ErrNoDataConnectors,
		})
	}

	for _, name := range ir.SortedKeys(d.DataConnectors) {
		errs = append(errs, validateDataConnector("data_connectors."+name, d.DataConnectors[name])...)
	}

	return errs
}

func validateDataConnector(field string, dc DataConnectorConfig) []ValidationError {
	var errs []ValidationError

	switch dc.ClassName {
	case ClassInferredAssetFilesystemDataConnector:
		if strings.TrimSpace(dc.BaseDirectory) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".base_directory",
				Message: "base_directory is required for " + ClassInferredAssetFilesystemDataConnector,
				Code:    ErrMissingBaseDirectory,
			})
		}
		if dc.DefaultRegex == nil {
			break
		}
		re, err := regexp.Compile(dc.DefaultRegex.Pattern)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".default_regex.pattern",
				Message: fmt.Sprintf("invalid pattern: %v", err),
				Code:    ErrInvalidRegex,
			})
			break
		}
		if re.NumSubexp() != len(dc.DefaultRegex.GroupNames) {
			errs = append(errs, ValidationError{
				Field:   field + ".default_regex.group_names",
				Message: fmt.Sprintf("pattern has %d capture group(s) but %d group name(s) given", re.NumSubexp(), len(dc.DefaultRegex.GroupNames)),
				Code:    ErrRegexGroups,
			})
		}
	case ClassRuntimeDataConnector:
	default:
		errs = append(errs, ValidationError{
			Field:   field + ".class_name",
			Message: fmt.Sprintf("unsupported data connector class_name %q", dc.ClassName),
			Code:    ErrUnknownConnectorClass,
		})
	}

	return errs
}
