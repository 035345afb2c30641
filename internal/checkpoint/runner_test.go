package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseignaciorc/great-expectations/internal/action"
	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/datasource"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
	"github.com/joseignaciorc/great-expectations/internal/testutil"
)

const tripsCSV = `vendor_id,passenger_count,fare_amount
1,1,12.5
2,3,7
1,,52.0
`

var errNotFound = errors.New("not found")

type memCatalog struct {
	checkpoints map[string]*config.CheckpointConfig
	datasources map[string]*datasource.Datasource
	suites      map[string]*expectation.Suite
}

func (c *memCatalog) Checkpoint(_ context.Context, name string) (*config.CheckpointConfig, error) {
	if cp, ok := c.checkpoints[name]; ok {
		return cp, nil
	}
	return nil, fmt.Errorf("checkpoint %q: %w", name, errNotFound)
}

func (c *memCatalog) Datasource(_ context.Context, name string) (*datasource.Datasource, error) {
	if ds, ok := c.datasources[name]; ok {
		return ds, nil
	}
	return nil, fmt.Errorf("datasource %q: %w", name, errNotFound)
}

func (c *memCatalog) Suite(_ context.Context, name string) (*expectation.Suite, error) {
	if s, ok := c.suites[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("expectation suite %q: %w", name, errNotFound)
}

func newCatalog(t *testing.T) *memCatalog {
	t.Helper()
	root := t.TempDir()
	for _, month := range []string{"2019-01", "2019-02"} {
		path := filepath.Join(root, "data", "yellow_tripdata_sample_"+month+".csv")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(tripsCSV), 0o644))
	}

	ds, err := datasource.New(&config.DatasourceConfig{
		Name:            "taxi_datasource",
		ClassName:       config.ClassDatasource,
		ExecutionEngine: config.ExecutionEngineConfig{ClassName: config.ClassPandasExecutionEngine},
		DataConnectors: map[string]config.DataConnectorConfig{
			"default_inferred_data_connector_name": {
				ClassName:     config.ClassInferredAssetFilesystemDataConnector,
				BaseDirectory: "data",
				DefaultRegex:  &config.RegexConfig{Pattern: `(.*)\.csv`, GroupNames: []string{"data_asset_name"}},
			},
		},
	}, root)
	require.NoError(t, err)

	passing := expectation.NewSuite("taxi.pass")
	passing.Add(expectation.TypeTableRowCountBetween, map[string]any{
		"min_value": 1,
		"max_value": map[string]any{expectation.ParameterKey: "max_rows"},
	})
	passing.Add(expectation.TypeColumnToExist, map[string]any{"column": "fare_amount"})

	failing := expectation.NewSuite("taxi.fail")
	failing.Add(expectation.TypeColumnValuesNotNull, map[string]any{"column": "passenger_count"})

	return &memCatalog{
		checkpoints: map[string]*config.CheckpointConfig{},
		datasources: map[string]*datasource.Datasource{"taxi_datasource": ds},
		suites:      map[string]*expectation.Suite{"taxi.pass": passing, "taxi.fail": failing},
	}
}

func batchRequest(asset string) *config.BatchRequest {
	idx := -1
	return &config.BatchRequest{
		DatasourceName:     "taxi_datasource",
		DataConnectorName:  "default_inferred_data_connector_name",
		DataAssetName:      asset,
		DataConnectorQuery: &config.DataConnectorQuery{Index: &idx},
	}
}

func noop(name string) config.ActionSpec {
	return config.ActionSpec{Name: name, Action: map[string]any{"class_name": config.ActionNoOp}}
}

func newRunner(cat Catalog, reg prometheus.Registerer, env map[string]string) *Runner {
	return NewRunner(Options{
		Catalog: cat,
		Lookup:  func(name string) (string, bool) { v, ok := env[name]; return v, ok },
		Clock:   testutil.NewDeterministicClock(),
		Metrics: NewMetrics(reg),
	})
}

func TestRunPassingCheckpoint(t *testing.T) {
	cat := newCatalog(t)
	r := newRunner(cat, nil, nil)

	cfg := &config.CheckpointConfig{
		Name:            "my_checkpoint",
		ConfigVersion:   1,
		ClassName:       config.ClassCheckpoint,
		RunNameTemplate: "%Y-%m-%d-my-run",
		Validations: []config.ValidationSpec{{
			BatchRequest:         batchRequest("yellow_tripdata_sample_2019-01"),
			ExpectationSuiteName: "taxi.pass",
		}},
		ActionList:           []config.ActionSpec{noop("first"), noop("second")},
		EvaluationParameters: map[string]any{"max_rows": 10},
	}

	res, err := r.Run(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.IsType(t, ir.RunIdentifier{}, res.RunID)
	assert.Equal(t, "2021-06-01-my-run", res.RunID.RunName)
	assert.Equal(t, testutil.DefaultStart, res.RunID.RunTime)

	require.Len(t, res.RunResults, 1)
	vr := res.RunResults[0]
	assert.IsType(t, ir.ValidationResultIdentifier{}, vr.Identifier)
	assert.Equal(t, "taxi.pass", vr.Identifier.ExpectationSuite.Name)
	assert.Equal(t, res.RunID, vr.Identifier.RunID)
	assert.Len(t, vr.Identifier.BatchIdentifier, 32)
	assert.True(t, vr.ValidationResult.Success)
	assert.Equal(t, []string{"first", "second"}, vr.ActionOrder)
	assert.Equal(t, action.Result{"class": config.ActionNoOp}, vr.ActionsResults["first"])

	got, ok := res.Get(vr.Identifier)
	require.True(t, ok)
	assert.Equal(t, vr.Identifier, got.Identifier)
	assert.Equal(t, []ir.ValidationResultIdentifier{vr.Identifier}, res.Identifiers())
	assert.Len(t, res.ValidationResults(), 1)
}

func TestRunExplicitRunName(t *testing.T) {
	cat := newCatalog(t)
	r := newRunner(cat, nil, nil)

	when := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	res, err := r.Run(context.Background(), &config.CheckpointConfig{
		Name:                 "cp",
		RunNameTemplate:      "%Y",
		BatchRequest:         batchRequest("yellow_tripdata_sample_2019-02"),
		ExpectationSuiteName: "taxi.pass",
		EvaluationParameters: map[string]any{"max_rows": 3},
	}, RunOptions{RunName: "manual", RunTime: when})
	require.NoError(t, err)
	assert.Equal(t, "manual", res.RunID.RunName)
	assert.Equal(t, when, res.RunID.RunTime)
}

func TestRunDefaultRunNameIsRunTime(t *testing.T) {
	cat := newCatalog(t)
	res, err := newRunner(cat, nil, nil).Run(context.Background(), &config.CheckpointConfig{
		Name:                 "cp",
		BatchRequest:         batchRequest("yellow_tripdata_sample_2019-02"),
		ExpectationSuiteName: "taxi.pass",
		EvaluationParameters: map[string]any{"max_rows": 3},
	}, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "20210601T123000.000000Z", res.RunID.RunName)
}

func TestRunFailingValidation(t *testing.T) {
	cat := newCatalog(t)
	reg := prometheus.NewRegistry()
	r := newRunner(cat, reg, nil)

	res, err := r.Run(context.Background(), &config.CheckpointConfig{
		Name: "cp",
		Validations: []config.ValidationSpec{
			{BatchRequest: batchRequest("yellow_tripdata_sample_2019-01"), ExpectationSuiteName: "taxi.fail"},
		},
	}, RunOptions{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1.0, promtest.ToFloat64(r.metrics.runs.WithLabelValues("cp", "failure")))
}

func TestRunTemplateAndOverrides(t *testing.T) {
	cat := newCatalog(t)
	cat.checkpoints["my_template"] = &config.CheckpointConfig{
		Name:            "my_template",
		ClassName:       config.ClassCheckpoint,
		RunNameTemplate: "template-run",
		ActionList:      []config.ActionSpec{noop("from_template"), noop("replaced")},
		Validations: []config.ValidationSpec{{
			BatchRequest:         batchRequest("yellow_tripdata_sample_2019-01"),
			ExpectationSuiteName: "taxi.pass",
		}},
		EvaluationParameters: map[string]any{"max_rows": 10},
	}
	cfg := &config.CheckpointConfig{
		Name:         "child",
		TemplateName: "my_template",
		ActionList:   []config.ActionSpec{{Name: "replaced"}},
	}
	overrides := &config.CheckpointConfig{
		Validations: []config.ValidationSpec{{
			BatchRequest:         batchRequest("yellow_tripdata_sample_2019-02"),
			ExpectationSuiteName: "taxi.pass",
		}},
	}

	res, err := newRunner(cat, nil, nil).Run(context.Background(), cfg, RunOptions{Overrides: overrides})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "template-run", res.RunID.RunName)
	require.Len(t, res.RunResults, 2)
	for _, vr := range res.RunResults {
		assert.Equal(t, []string{"from_template"}, vr.ActionOrder)
	}
	assert.NotEqual(t, res.RunResults[0].Identifier.BatchIdentifier, res.RunResults[1].Identifier.BatchIdentifier)
	assert.Equal(t, "child", res.CheckpointConfig.Name)
	assert.Len(t, res.CheckpointConfig.Validations, 2)
}

func TestRunWithoutValidations(t *testing.T) {
	cat := newCatalog(t)
	_, err := newRunner(cat, nil, nil).Run(context.Background(), &config.CheckpointConfig{Name: "empty"}, RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrNoValidations)
}

func TestRunEvaluationParametersFromEnvironment(t *testing.T) {
	cat := newCatalog(t)
	env := map[string]string{"MY_PARAM": "1", "OLD_PARAM": "500"}

	res, err := newRunner(cat, nil, env).Run(context.Background(), &config.CheckpointConfig{
		Name:                 "cp",
		BatchRequest:         batchRequest("yellow_tripdata_sample_2019-01"),
		ExpectationSuiteName: "taxi.pass",
		EvaluationParameters: map[string]any{
			"param1":   "$MY_PARAM",
			"param2":   "1 + $OLD_PARAM",
			"max_rows": "param1 + 2",
		},
	}, RunOptions{})
	require.NoError(t, err)

	params := res.RunResults[0].ValidationResult.EvaluationParameters
	assert.Equal(t, 1, params["param1"])
	assert.Equal(t, 501, params["param2"])
	assert.Equal(t, 3, params["max_rows"])
	assert.True(t, res.Success)
}

func TestRunUnknownActionClass(t *testing.T) {
	cat := newCatalog(t)
	_, err := newRunner(cat, nil, nil).Run(context.Background(), &config.CheckpointConfig{
		Name:                 "cp",
		BatchRequest:         batchRequest("yellow_tripdata_sample_2019-01"),
		ExpectationSuiteName: "taxi.pass",
		ActionList: []config.ActionSpec{
			{Name: "mail", Action: map[string]any{"class_name": "EmailAction"}},
		},
	}, RunOptions{})
	require.Error(t, err)

	var verrs config.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, config.ErrUnknownActionClass, verrs[0].Code)
}

func TestRunMissingCollaborators(t *testing.T) {
	cat := newCatalog(t)
	r := newRunner(cat, nil, nil)

	missingDS := batchRequest("yellow_tripdata_sample_2019-01")
	missingDS.DatasourceName = "nope"
	_, err := r.Run(context.Background(), &config.CheckpointConfig{
		Name: "cp", BatchRequest: missingDS, ExpectationSuiteName: "taxi.pass",
	}, RunOptions{})
	assert.ErrorIs(t, err, errNotFound)

	_, err = r.Run(context.Background(), &config.CheckpointConfig{
		Name: "cp", BatchRequest: batchRequest("yellow_tripdata_sample_2019-01"), ExpectationSuiteName: "nope",
	}, RunOptions{})
	assert.ErrorIs(t, err, errNotFound)

	_, err = r.Run(context.Background(), &config.CheckpointConfig{
		Name: "cp", TemplateName: "nope",
	}, RunOptions{})
	assert.ErrorIs(t, err, errNotFound)
}

type failingAction struct{}

func (failingAction) Run(context.Context, *action.Input) (action.Result, error) {
	return nil, errors.New("disk full")
}

func TestRunFailingActionDoesNotAbort(t *testing.T) {
	cat := newCatalog(t)
	reg := prometheus.NewRegistry()
	actions := action.NewRegistry()
	actions.Register("FailingAction", func(map[string]any, action.Deps) (action.Action, error) {
		return failingAction{}, nil
	})
	r := NewRunner(Options{
		Catalog: cat,
		Actions: actions,
		Clock:   testutil.NewDeterministicClock(),
		Metrics: NewMetrics(reg),
	})

	res, err := r.Run(context.Background(), &config.CheckpointConfig{
		Name: "cp",
		Validations: []config.ValidationSpec{
			{BatchRequest: batchRequest("yellow_tripdata_sample_2019-01")},
			{BatchRequest: batchRequest("yellow_tripdata_sample_2019-02")},
		},
		ExpectationSuiteName: "taxi.pass",
		EvaluationParameters: map[string]any{"max_rows": 10},
		ActionList: []config.ActionSpec{
			{Name: "broken", Action: map[string]any{"class_name": "FailingAction"}},
			noop("after"),
		},
	}, RunOptions{})
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.RunResults, 2)
	for _, vr := range res.RunResults {
		assert.True(t, vr.ValidationResult.Success)
		assert.False(t, vr.Success())
		assert.Equal(t, action.Result{"class": "FailingAction", "error": "disk full"}, vr.ActionsResults["broken"])
		assert.Equal(t, map[string]string{"broken": "disk full"}, vr.ActionErrors)
		assert.Equal(t, config.ActionNoOp, vr.ActionsResults["after"].Class())
	}
	assert.Equal(t, 2.0, promtest.ToFloat64(r.metrics.actionFailures.WithLabelValues("broken")))
}

func TestValidationRunSuccessIgnoresResultKeys(t *testing.T) {
	vr := ValidationRun{
		ValidationResult: &expectation.SuiteValidationResult{Success: true},
		ActionsResults: map[string]action.Result{
			"docs": {"class": config.ActionUpdateDataDocs, "error": "file:///docs/error/index.html"},
		},
	}
	assert.True(t, vr.Success())

	vr.ActionErrors = map[string]string{"docs": "disk full"}
	assert.False(t, vr.Success())
}

func TestRunRejectsDuplicateValidation(t *testing.T) {
	cat := newCatalog(t)
	_, err := newRunner(cat, nil, nil).Run(context.Background(), &config.CheckpointConfig{
		Name: "cp",
		Validations: []config.ValidationSpec{
			{BatchRequest: batchRequest("yellow_tripdata_sample_2019-01")},
			{BatchRequest: batchRequest("yellow_tripdata_sample_2019-02")},
			{BatchRequest: batchRequest("yellow_tripdata_sample_2019-01")},
		},
		ExpectationSuiteName: "taxi.pass",
		EvaluationParameters: map[string]any{"max_rows": 10},
	}, RunOptions{})
	require.ErrorIs(t, err, ErrDuplicateValidation)
	assert.Contains(t, err.Error(), "validations[2]")
	assert.Contains(t, err.Error(), "validations[0]")
}

func TestResultMarshalJSONKeepsOrder(t *testing.T) {
	cat := newCatalog(t)
	res, err := newRunner(cat, nil, nil).Run(context.Background(), &config.CheckpointConfig{
		Name: "cp",
		Validations: []config.ValidationSpec{
			{BatchRequest: batchRequest("yellow_tripdata_sample_2019-02")},
			{BatchRequest: batchRequest("yellow_tripdata_sample_2019-01")},
		},
		ExpectationSuiteName: "taxi.pass",
		EvaluationParameters: map[string]any{"max_rows": 10},
	}, RunOptions{})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Contains(t, decoded, "checkpoint_config")
	runResults, ok := decoded["run_results"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, runResults, 2)

	first := res.RunResults[0].Identifier.String()
	second := res.RunResults[1].Identifier.String()
	assert.Less(t, strings.Index(string(data), first), strings.Index(string(data), second))
}

func TestRunName(t *testing.T) {
	at := time.Date(2021, 6, 1, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, "", RunName("", at))
	assert.Equal(t, "2021-06-01", RunName("%Y-%m-%d", at))
	assert.Equal(t, "2021-30-my-run", RunName("%Y-%M-my-run", at))
	assert.Equal(t, "static", RunName("static", at))
}
