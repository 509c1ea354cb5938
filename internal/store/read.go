package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, sample_rate, block_size, engine_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Scenario, &run.SampleRate, &run.BlockSize, &run.EngineVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run ordered by id. UUIDv7 ids sort by creation.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, sample_rate, block_size, engine_version
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Scenario, &run.SampleRate, &run.BlockSize, &run.EngineVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns the events of a run in drain order.
//
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, block, time, type, source, param
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var ev EventRecord
		var block, param int64
		if err := rows.Scan(&ev.RunID, &ev.Seq, &block, &ev.Time, &ev.Type, &ev.Source, &param); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Block = uint64(block)
		ev.Param = uint64(param)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadRouteSamples returns the route samples of a run ordered by block,
// then source and destination.
//
// Returns an empty slice (not nil) if the run has no samples.
func (s *Store) ReadRouteSamples(ctx context.Context, runID string) ([]RouteSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, block, source, destination, gain, target_gain, removing
		FROM route_samples
		WHERE run_id = ?
		ORDER BY block ASC, source COLLATE BINARY ASC, destination COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query route samples: %w", err)
	}
	defer rows.Close()

	samples := []RouteSample{}
	for rows.Next() {
		var rs RouteSample
		var block int64
		var removing int
		if err := rows.Scan(&rs.RunID, &block, &rs.Source, &rs.Destination, &rs.Gain, &rs.TargetGain, &removing); err != nil {
			return nil, fmt.Errorf("scan route sample: %w", err)
		}
		rs.Block = uint64(block)
		rs.Removing = removing != 0
		samples = append(samples, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate route samples: %w", err)
	}
	return samples, nil
}
