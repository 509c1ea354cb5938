package store

import (
	"context"
	"fmt"
)

// BeginRun records a run. Uses ON CONFLICT(id) DO NOTHING, so a run id
// written twice keeps its first row.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, sample_rate, block_size, engine_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Scenario,
		run.SampleRate,
		run.BlockSize,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// WriteEvent appends an event to a run. Duplicate (run, seq) pairs are
// silently ignored.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, ev EventRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (run_id, seq, block, time, type, source, param)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		ev.RunID,
		ev.Seq,
		int64(ev.Block),
		ev.Time,
		ev.Type,
		ev.Source,
		int64(ev.Param),
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// WriteRouteSample appends the gain of one edge after one block.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteRouteSample(ctx context.Context, rs RouteSample) error {
	removing := 0
	if rs.Removing {
		removing = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO route_samples (run_id, block, source, destination, gain, target_gain, removing)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rs.RunID,
		int64(rs.Block),
		rs.Source,
		rs.Destination,
		rs.Gain,
		rs.TargetGain,
		removing,
	)
	if err != nil {
		return fmt.Errorf("write route sample: %w", err)
	}
	return nil
}
