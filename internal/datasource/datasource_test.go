package datasource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

const tripsCSV = `vendor_id,passenger_count,fare_amount,store_and_fwd_flag
1,1,12.5,N
2,3,7,N
1,,52.0,Y
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func intPtr(i int) *int { return &i }

// newProject lays out <root>/data with three monthly files and returns root.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, month := range []string{"2019-01", "2019-02", "2019-03"} {
		writeFile(t, filepath.Join(root, "data", "yellow_tripdata_sample_"+month+".csv"), tripsCSV)
	}
	writeFile(t, filepath.Join(root, "data", "README.md"), "not data")
	return root
}

func taxiConfig() *config.DatasourceConfig {
	return &config.DatasourceConfig{
		Name:            "taxi_datasource",
		ClassName:       config.ClassDatasource,
		ExecutionEngine: config.ExecutionEngineConfig{ClassName: config.ClassPandasExecutionEngine},
		DataConnectors: map[string]config.DataConnectorConfig{
			"default_inferred_data_connector_name": {
				ClassName:     config.ClassInferredAssetFilesystemDataConnector,
				BaseDirectory: "data/",
				DefaultRegex: &config.RegexConfig{
					Pattern:    `(.*)\.csv`,
					GroupNames: []string{"data_asset_name"},
				},
			},
			"monthly": {
				ClassName:     config.ClassInferredAssetFilesystemDataConnector,
				BaseDirectory: "data",
				DefaultRegex: &config.RegexConfig{
					Pattern:    `(yellow_tripdata_sample)_(\d{4})-(\d{2})\.csv`,
					GroupNames: []string{"data_asset_name", "year", "month"},
				},
			},
			"default_runtime_data_connector_name": {
				ClassName:        config.ClassRuntimeDataConnector,
				BatchIdentifiers: []string{"default_identifier_name"},
			},
		},
	}
}

func TestReadCSVTypesCells(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(tripsCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"vendor_id", "passenger_count", "fare_amount", "store_and_fwd_flag"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, []any{int64(1), int64(1), 12.5, "N"}, tbl.Rows[0])
	assert.Equal(t, []any{int64(1), nil, float64(52), "Y"}, tbl.Rows[2])

	col, ok := tbl.Column("passenger_count")
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(3), nil}, col)

	_, ok = tbl.Column("missing")
	assert.False(t, ok)
}

func TestReadCSVEmpty(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestParseCellBooleans(t *testing.T) {
	assert.Equal(t, true, parseCell("true"))
	assert.Equal(t, false, parseCell("False"))
	assert.Equal(t, "yes", parseCell("yes"))
	assert.Nil(t, parseCell("  "))
}

func TestTableFromRecords(t *testing.T) {
	tbl, err := TableFromRecords([]any{
		map[string]any{"b": 1, "a": "x"},
		map[string]any{"a": "y", "c": true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns)
	assert.Equal(t, [][]any{{"x", int64(1), nil}, {"y", nil, true}}, tbl.Rows)

	_, err = TableFromRecords([]any{"not a row"})
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	ds, err := New(taxiConfig(), newProject(t))
	require.NoError(t, err)

	r, err := ds.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "taxi_datasource", r.Name)
	assert.Equal(t, config.ClassPandasExecutionEngine, r.ExecutionEngine)

	assert.Equal(t, map[string]int{
		"yellow_tripdata_sample_2019-01": 1,
		"yellow_tripdata_sample_2019-02": 1,
		"yellow_tripdata_sample_2019-03": 1,
	}, r.DataConnectors["default_inferred_data_connector_name"].Assets)
	assert.Equal(t, map[string]int{"yellow_tripdata_sample": 3}, r.DataConnectors["monthly"].Assets)
	assert.Empty(t, r.DataConnectors["default_runtime_data_connector_name"].Assets)
}

func TestFilesystemGetBatchByAsset(t *testing.T) {
	root := newProject(t)
	ds, err := New(taxiConfig(), root)
	require.NoError(t, err)

	b, err := ds.GetBatch(context.Background(), &config.BatchRequest{
		DatasourceName:     "taxi_datasource",
		DataConnectorName:  "default_inferred_data_connector_name",
		DataAssetName:      "yellow_tripdata_sample_2019-01",
		DataConnectorQuery: &config.DataConnectorQuery{Index: intPtr(-1)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, b.Data.Len())
	assert.Equal(t, filepath.Join(root, "data", "yellow_tripdata_sample_2019-01.csv"), b.Spec["path"])
	assert.Equal(t, ir.MustBatchID(b.Definition.Spec()), b.ID)
	assert.Len(t, b.ID, 32)
}

func TestFilesystemGetBatchIndex(t *testing.T) {
	ds, err := New(taxiConfig(), newProject(t))
	require.NoError(t, err)

	tests := []struct {
		index     *int
		wantMonth string
	}{
		{nil, "03"},
		{intPtr(-1), "03"},
		{intPtr(-2), "02"},
		{intPtr(0), "01"},
	}
	for _, tt := range tests {
		b, err := ds.GetBatch(context.Background(), &config.BatchRequest{
			DataConnectorName:  "monthly",
			DataAssetName:      "yellow_tripdata_sample",
			DataConnectorQuery: &config.DataConnectorQuery{Index: tt.index},
		})
		require.NoError(t, err)
		assert.Equal(t, tt.wantMonth, b.Definition.BatchIdentifiers["month"])
		assert.Equal(t, "2019", b.Definition.BatchIdentifiers["year"])
	}
}

func TestFilesystemGetBatchFilter(t *testing.T) {
	ds, err := New(taxiConfig(), newProject(t))
	require.NoError(t, err)

	b, err := ds.GetBatch(context.Background(), &config.BatchRequest{
		DataConnectorName: "monthly",
		DataAssetName:     "yellow_tripdata_sample",
		DataConnectorQuery: &config.DataConnectorQuery{
			BatchFilterParameters: map[string]string{"month": "02"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "02", b.Definition.BatchIdentifiers["month"])
}

func TestFilesystemGetBatchErrors(t *testing.T) {
	ds, err := New(taxiConfig(), newProject(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = ds.GetBatch(ctx, &config.BatchRequest{DataConnectorName: "monthly", DataAssetName: "nope"})
	assert.ErrorIs(t, err, ErrNoBatch)

	_, err = ds.GetBatch(ctx, &config.BatchRequest{
		DataConnectorName:  "monthly",
		DataAssetName:      "yellow_tripdata_sample",
		DataConnectorQuery: &config.DataConnectorQuery{Index: intPtr(-4)},
	})
	assert.ErrorIs(t, err, ErrNoBatch)

	_, err = ds.GetBatch(ctx, &config.BatchRequest{DataConnectorName: "other", DataAssetName: "x"})
	assert.ErrorIs(t, err, ErrUnknownConnector)
}

func TestRuntimeGetBatch(t *testing.T) {
	ds, err := New(taxiConfig(), t.TempDir())
	require.NoError(t, err)

	req := &config.BatchRequest{
		DataConnectorName: "default_runtime_data_connector_name",
		DataAssetName:     "inline",
		RuntimeParameters: map[string]any{
			"batch_data": []any{
				map[string]any{"id": 1, "name": "a"},
				map[string]any{"id": 2, "name": "b"},
			},
		},
		BatchIdentifiers: map[string]any{"default_identifier_name": "run-1"},
	}
	b, err := ds.GetBatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Data.Len())
	assert.Equal(t, "inline", b.Definition.DataAssetName)
	assert.Equal(t, "run-1", b.Definition.BatchIdentifiers["default_identifier_name"])

	// same request, same id
	again, err := ds.GetBatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID)
}

func TestRuntimeGetBatchTable(t *testing.T) {
	ds, err := New(taxiConfig(), t.TempDir())
	require.NoError(t, err)

	tbl := &Table{Columns: []string{"x"}, Rows: [][]any{{int64(1)}}}
	b, err := ds.GetBatch(context.Background(), &config.BatchRequest{
		DataConnectorName: "default_runtime_data_connector_name",
		DataAssetName:     "inline",
		RuntimeParameters: map[string]any{"batch_data": tbl},
		BatchIdentifiers:  map[string]any{"default_identifier_name": "x"},
	})
	require.NoError(t, err)
	assert.Same(t, tbl, b.Data)
}

func TestRuntimeGetBatchPath(t *testing.T) {
	root := newProject(t)
	ds, err := New(taxiConfig(), root)
	require.NoError(t, err)

	b, err := ds.GetBatch(context.Background(), &config.BatchRequest{
		DataConnectorName: "default_runtime_data_connector_name",
		DataAssetName:     "from_path",
		RuntimeParameters: map[string]any{"path": "data/yellow_tripdata_sample_2019-02.csv"},
		BatchIdentifiers:  map[string]any{"default_identifier_name": "p"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, b.Data.Len())
}

func TestRuntimeGetBatchIdentifierChecks(t *testing.T) {
	ds, err := New(taxiConfig(), t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	data := map[string]any{"batch_data": []any{map[string]any{"a": 1}}}

	_, err = ds.GetBatch(ctx, &config.BatchRequest{
		DataConnectorName: "default_runtime_data_connector_name",
		DataAssetName:     "a",
		RuntimeParameters: data,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing batch identifier")

	_, err = ds.GetBatch(ctx, &config.BatchRequest{
		DataConnectorName: "default_runtime_data_connector_name",
		DataAssetName:     "a",
		RuntimeParameters: data,
		BatchIdentifiers:  map[string]any{"default_identifier_name": 1, "extra": 2},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown batch identifier")

	_, err = ds.GetBatch(ctx, &config.BatchRequest{
		DataConnectorName: "default_runtime_data_connector_name",
		DataAssetName:     "a",
		BatchIdentifiers:  map[string]any{"default_identifier_name": 1},
	})
	assert.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := taxiConfig()
	cfg.ExecutionEngine.ClassName = "SparkDFExecutionEngine"
	_, err := New(cfg, t.TempDir())
	var verrs config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, config.ErrUnknownEngine, verrs[0].Code)
}
