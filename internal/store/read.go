package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// GetDatasource loads a datasource config by name.
func (s *Store) GetDatasource(ctx context.Context, name string) (*config.DatasourceConfig, error) {
	var cfg config.DatasourceConfig
	if err := s.getNamed(ctx, tableDatasources, name, &cfg); err != nil {
		return nil, fmt.Errorf("get datasource %q: %w", name, err)
	}
	return &cfg, nil
}

// ListDatasourceNames returns datasource names in insertion order.
func (s *Store) ListDatasourceNames(ctx context.Context) ([]string, error) {
	names, err := s.listNames(ctx, tableDatasources)
	if err != nil {
		return nil, fmt.Errorf("list datasources: %w", err)
	}
	return names, nil
}

// GetSuite loads an expectation suite by name.
func (s *Store) GetSuite(ctx context.Context, name string) (*expectation.Suite, error) {
	var suite expectation.Suite
	if err := s.getNamed(ctx, tableSuites, name, &suite); err != nil {
		return nil, fmt.Errorf("get expectation suite %q: %w", name, err)
	}
	if suite.Expectations == nil {
		suite.Expectations = []expectation.Configuration{}
	}
	return &suite, nil
}

// ListSuiteNames returns expectation suite names in insertion order.
func (s *Store) ListSuiteNames(ctx context.Context) ([]string, error) {
	names, err := s.listNames(ctx, tableSuites)
	if err != nil {
		return nil, fmt.Errorf("list expectation suites: %w", err)
	}
	return names, nil
}

// GetCheckpoint loads a checkpoint config by name.
func (s *Store) GetCheckpoint(ctx context.Context, name string) (*config.CheckpointConfig, error) {
	var cfg config.CheckpointConfig
	if err := s.getNamed(ctx, tableCheckpoints, name, &cfg); err != nil {
		return nil, fmt.Errorf("get checkpoint %q: %w", name, err)
	}
	return &cfg, nil
}

// ListCheckpointNames returns checkpoint names in insertion order.
func (s *Store) ListCheckpointNames(ctx context.Context) ([]string, error) {
	names, err := s.listNames(ctx, tableCheckpoints)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	return names, nil
}

// fingerprint returns the stored fingerprint of a named document.
func (s *Store) fingerprint(ctx context.Context, table, name string) (string, error) {
	var fp string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT fingerprint FROM %s WHERE name = ?`, table), name,
	).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return fp, err
}

// CheckpointFingerprint returns the fingerprint of a stored checkpoint.
func (s *Store) CheckpointFingerprint(ctx context.Context, name string) (string, error) {
	fp, err := s.fingerprint(ctx, tableCheckpoints, name)
	if err != nil {
		return "", fmt.Errorf("checkpoint fingerprint %q: %w", name, err)
	}
	return fp, nil
}

func (s *Store) getNamed(ctx context.Context, table, name string, out any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE name = ?`, docColumn(table), table), name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return unmarshalDocument(data, out)
}

func (s *Store) listNames(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s ORDER BY seq ASC`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return names, nil
}

// GetValidationResult loads a stored suite validation result.
func (s *Store) GetValidationResult(ctx context.Context, id ir.ValidationResultIdentifier) (*expectation.SuiteValidationResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM validation_results WHERE identifier = ?`, id.String(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get validation result %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get validation result %s: %w", id, err)
	}
	var result expectation.SuiteValidationResult
	if err := unmarshalJSON(data, &result); err != nil {
		return nil, fmt.Errorf("get validation result %s: %w", id, err)
	}
	return &result, nil
}

// ListValidationResults returns stored result identifiers in insertion
// order. An empty suite lists results of every suite.
func (s *Store) ListValidationResults(ctx context.Context, suite string) ([]ir.ValidationResultIdentifier, error) {
	query := `SELECT suite_name, run_name, run_time, batch_identifier FROM validation_results`
	var args []any
	if suite != "" {
		query += ` WHERE suite_name = ?`
		args = append(args, suite)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list validation results: %w", err)
	}
	defer rows.Close()

	ids := []ir.ValidationResultIdentifier{}
	for rows.Next() {
		var suiteName, runName, runTime, batchID string
		if err := rows.Scan(&suiteName, &runName, &runTime, &batchID); err != nil {
			return nil, fmt.Errorf("list validation results: scan: %w", err)
		}
		runID, err := parseRunID(runName, runTime)
		if err != nil {
			return nil, fmt.Errorf("list validation results: %w", err)
		}
		ids = append(ids, ir.NewValidationResultIdentifier(suiteName, runID, batchID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list validation results: iterate: %w", err)
	}
	return ids, nil
}

// GetEvaluationParameters loads the parameters and observed metrics stored
// for one suite within one run.
func (s *Store) GetEvaluationParameters(ctx context.Context, runID ir.RunIdentifier, suite string) (params, metrics map[string]any, err error) {
	var p, m string
	err = s.db.QueryRowContext(ctx, `
		SELECT parameters, metrics FROM evaluation_parameters
		WHERE run_name = ? AND run_time = ? AND suite_name = ?
	`, runID.RunName, runID.RunTimeString(), suite).Scan(&p, &m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("get evaluation parameters %s/%s: %w", runID, suite, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get evaluation parameters %s/%s: %w", runID, suite, err)
	}
	if err := unmarshalJSON(p, &params); err != nil {
		return nil, nil, err
	}
	if err := unmarshalJSON(m, &metrics); err != nil {
		return nil, nil, err
	}
	return params, metrics, nil
}

// ListRuns returns run records in insertion order. An empty checkpoint
// name lists runs of every checkpoint.
func (s *Store) ListRuns(ctx context.Context, checkpoint string) ([]RunRecord, error) {
	query := `SELECT id, checkpoint_name, run_name, run_time, success, result FROM checkpoint_runs`
	var args []any
	if checkpoint != "" {
		query += ` WHERE checkpoint_name = ?`
		args = append(args, checkpoint)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var (
			r                RunRecord
			runName, runTime string
			result           string
		)
		if err := rows.Scan(&r.ID, &r.CheckpointName, &runName, &runTime, &r.Success, &result); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		r.RunID, err = parseRunID(runName, runTime)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		r.Result = json.RawMessage(result)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: iterate: %w", err)
	}
	return runs, nil
}

func parseRunID(runName, runTime string) (ir.RunIdentifier, error) {
	t, err := time.Parse(ir.RunTimeLayout, runTime)
	if err != nil {
		return ir.RunIdentifier{}, fmt.Errorf("run time %q: %w", runTime, err)
	}
	return ir.RunIdentifier{RunName: runName, RunTime: t}, nil
}
