package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// Named-document tables and their document column.
const (
	tableDatasources = "datasources"
	tableSuites      = "expectation_suites"
	tableCheckpoints = "checkpoints"
)

func docColumn(table string) string {
	if table == tableSuites {
		return "suite"
	}
	return "config"
}

// PutDatasource inserts or replaces a datasource config by name.
func (s *Store) PutDatasource(ctx context.Context, cfg *config.DatasourceConfig) error {
	if err := s.upsertNamed(ctx, tableDatasources, cfg.Name, cfg); err != nil {
		return fmt.Errorf("put datasource %q: %w", cfg.Name, err)
	}
	return nil
}

// InsertSuite stores a new expectation suite. Returns ErrAlreadyExists if
// the name is taken.
func (s *Store) InsertSuite(ctx context.Context, suite *expectation.Suite) error {
	if err := s.insertNamed(ctx, tableSuites, suite.Name, suite); err != nil {
		return fmt.Errorf("insert expectation suite %q: %w", suite.Name, err)
	}
	return nil
}

// PutSuite inserts or replaces an expectation suite by name.
func (s *Store) PutSuite(ctx context.Context, suite *expectation.Suite) error {
	if err := s.upsertNamed(ctx, tableSuites, suite.Name, suite); err != nil {
		return fmt.Errorf("put expectation suite %q: %w", suite.Name, err)
	}
	return nil
}

// InsertCheckpoint stores a new checkpoint config. Returns
// ErrAlreadyExists if the name is taken.
func (s *Store) InsertCheckpoint(ctx context.Context, cfg *config.CheckpointConfig) error {
	if err := s.insertNamed(ctx, tableCheckpoints, cfg.Name, cfg); err != nil {
		return fmt.Errorf("insert checkpoint %q: %w", cfg.Name, err)
	}
	return nil
}

// PutCheckpoint inserts or replaces a checkpoint config by name.
func (s *Store) PutCheckpoint(ctx context.Context, cfg *config.CheckpointConfig) error {
	if err := s.upsertNamed(ctx, tableCheckpoints, cfg.Name, cfg); err != nil {
		return fmt.Errorf("put checkpoint %q: %w", cfg.Name, err)
	}
	return nil
}

// DeleteCheckpoint removes a checkpoint config. Returns ErrNotFound if it
// does not exist.
func (s *Store) DeleteCheckpoint(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete checkpoint %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete checkpoint %q: rows affected: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete checkpoint %q: %w", name, ErrNotFound)
	}
	return nil
}

// upsertNamed writes a document by name. A replaced row keeps its id and
// seq, so listings keep the original order.
func (s *Store) upsertNamed(ctx context.Context, table, name string, doc any) error {
	data, fp, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	col := docColumn(table)
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, %s, fingerprint)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET %s = excluded.%s, fingerprint = excluded.fingerprint
	`, table, col, col, col), s.ids.NewID(), name, data, fp)
	return err
}

// insertNamed writes a document only if the name is free.
func (s *Store) insertNamed(ctx context.Context, table, name string, doc any) error {
	data, fp, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, %s, fingerprint)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, table, docColumn(table)), s.ids.NewID(), name, data, fp)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// PutValidationResult stores a suite validation result under its
// identifier. Writing the same identifier again replaces the result.
func (s *Store) PutValidationResult(ctx context.Context, id ir.ValidationResultIdentifier, result *expectation.SuiteValidationResult) error {
	data, err := marshalJSON(result)
	if err != nil {
		return fmt.Errorf("put validation result %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO validation_results
		(identifier, suite_name, run_name, run_time, batch_identifier, success, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET success = excluded.success, result = excluded.result
	`,
		id.String(),
		id.ExpectationSuite.Name,
		id.RunID.RunName,
		id.RunID.RunTimeString(),
		id.BatchIdentifier,
		result.Success,
		data,
	)
	if err != nil {
		return fmt.Errorf("put validation result %s: %w", id, err)
	}
	return nil
}

// PutEvaluationParameters stores the resolved evaluation parameters and
// observed metrics of one suite within one run.
func (s *Store) PutEvaluationParameters(ctx context.Context, runID ir.RunIdentifier, suite string, params, metrics map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	if metrics == nil {
		metrics = map[string]any{}
	}
	p, err := marshalJSON(params)
	if err != nil {
		return fmt.Errorf("put evaluation parameters: %w", err)
	}
	m, err := marshalJSON(metrics)
	if err != nil {
		return fmt.Errorf("put evaluation parameters: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluation_parameters (run_name, run_time, suite_name, parameters, metrics)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_name, run_time, suite_name)
		DO UPDATE SET parameters = excluded.parameters, metrics = excluded.metrics
	`, runID.RunName, runID.RunTimeString(), suite, p, m)
	if err != nil {
		return fmt.Errorf("put evaluation parameters: %w", err)
	}
	return nil
}

// RunRecord summarizes one checkpoint run.
type RunRecord struct {
	ID             string           `json:"id"`
	CheckpointName string           `json:"checkpoint_name"`
	RunID          ir.RunIdentifier `json:"run_id"`
	Success        bool             `json:"success"`
	Result         json.RawMessage  `json:"result"`
}

// InsertRun appends a run record. An empty ID is filled in.
func (s *Store) InsertRun(ctx context.Context, run *RunRecord) error {
	if run.ID == "" {
		run.ID = s.ids.NewID()
	}
	result := string(run.Result)
	if result == "" {
		result = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoint_runs (id, checkpoint_name, run_name, run_time, success, result)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.CheckpointName, run.RunID.RunName, run.RunID.RunTimeString(), run.Success, result)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	return nil
}
