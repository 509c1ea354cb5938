package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/synthplane/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Object   string // optional - filter to one object's events and edges
}

// TraceEvent is one stored event.
type TraceEvent struct {
	Seq    int64   `json:"seq"`
	Block  uint64  `json:"block"`
	Time   float64 `json:"time"`
	Type   string  `json:"type"`
	Source string  `json:"source"`
	Param  uint64  `json:"param,omitempty"`
}

// TraceEdge is the state of one edge after a block.
type TraceEdge struct {
	Block       uint64  `json:"block"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Gain        float64 `json:"gain"`
	TargetGain  float64 `json:"target_gain"`
	Removing    bool    `json:"removing,omitempty"`
}

// RunSummary describes a stored run.
type RunSummary struct {
	ID            string `json:"id"`
	Scenario      string `json:"scenario"`
	SampleRate    int    `json:"sample_rate"`
	BlockSize     int    `json:"block_size"`
	EngineVersion string `json:"engine_version"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run    RunSummary   `json:"run"`
	Events []TraceEvent `json:"events"`
	Edges  []TraceEdge  `json:"edges"`
	Stats  TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Events        int    `json:"events"`
	EdgeSamples   int    `json:"edge_samples"`
	DistinctEdges int    `json:"distinct_edges"`
	LastBlock     uint64 `json:"last_block"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show a recorded run",
		Long: `Show the events and edge states recorded for a run.

Without --run, lists the runs stored in the database.

Examples:
  synthplane trace --db ./trace.db
  synthplane trace --db ./trace.db --run 0190a1b2-...
  synthplane trace --db ./trace.db --run fixed-run --object src --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show; lists runs when empty")
	cmd.Flags().StringVar(&opts.Object, "object", "", "filter to events and edges of one object")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(ctx, opts, st, cmd)
	}

	run, err := st.GetRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		_ = formatter.Error(ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := st.ReadEvents(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	samples, err := st.ReadRouteSamples(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read route samples", err)
	}

	result := buildTrace(run, events, samples, opts.Object)
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, RunID: run.ID})
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func listRuns(ctx context.Context, opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, summarize(r))
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: summaries})
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range summaries {
		fmt.Fprintf(w, "%s  %s  (%d Hz, %d frames, engine %s)\n",
			r.ID, r.Scenario, r.SampleRate, r.BlockSize, r.EngineVersion)
	}
	return nil
}

func summarize(r store.Run) RunSummary {
	return RunSummary{
		ID:            r.ID,
		Scenario:      r.Scenario,
		SampleRate:    r.SampleRate,
		BlockSize:     r.BlockSize,
		EngineVersion: r.EngineVersion,
	}
}

// buildTrace converts stored rows to trace output. When object is set, only
// events it raised and edges it terminates are kept.
func buildTrace(run store.Run, events []store.EventRecord, samples []store.RouteSample, object string) TraceResult {
	result := TraceResult{
		Run:    summarize(run),
		Events: []TraceEvent{},
		Edges:  []TraceEdge{},
	}

	for _, ev := range events {
		if object != "" && ev.Source != object {
			continue
		}
		result.Events = append(result.Events, TraceEvent{
			Seq:    ev.Seq,
			Block:  ev.Block,
			Time:   ev.Time,
			Type:   ev.Type,
			Source: ev.Source,
			Param:  ev.Param,
		})
		result.Stats.LastBlock = max(result.Stats.LastBlock, ev.Block)
	}

	distinct := make(map[[2]string]struct{})
	for _, rs := range samples {
		if object != "" && rs.Source != object && rs.Destination != object {
			continue
		}
		result.Edges = append(result.Edges, TraceEdge{
			Block:       rs.Block,
			Source:      rs.Source,
			Destination: rs.Destination,
			Gain:        rs.Gain,
			TargetGain:  rs.TargetGain,
			Removing:    rs.Removing,
		})
		distinct[[2]string{rs.Source, rs.Destination}] = struct{}{}
		result.Stats.LastBlock = max(result.Stats.LastBlock, rs.Block)
	}

	result.Stats.Events = len(result.Events)
	result.Stats.EdgeSamples = len(result.Edges)
	result.Stats.DistinctEdges = len(distinct)
	return result
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Run: %s\n", result.Run.ID)
	fmt.Fprintf(w, "Scenario: %s\n", result.Run.Scenario)
	if verbose {
		fmt.Fprintf(w, "Settings: %d Hz, %d frames per block, engine %s\n",
			result.Run.SampleRate, result.Run.BlockSize, result.Run.EngineVersion)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Events ===")
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Events {
		fmt.Fprintf(w, "  [%d] block %d t=%.4f %s %s", ev.Seq, ev.Block, ev.Time, ev.Type, ev.Source)
		if ev.Param != 0 {
			fmt.Fprintf(w, " param=%d", ev.Param)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Edges ===")
	if len(result.Edges) == 0 {
		fmt.Fprintln(w, "  (no edges)")
	}
	for _, e := range result.Edges {
		fmt.Fprintf(w, "  block %d %s -> %s gain=%.4f target=%.4f", e.Block, e.Source, e.Destination, e.Gain, e.TargetGain)
		if e.Removing {
			fmt.Fprint(w, " removing")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Events:         %d\n", result.Stats.Events)
	fmt.Fprintf(w, "  Edge Samples:   %d\n", result.Stats.EdgeSamples)
	fmt.Fprintf(w, "  Distinct Edges: %d\n", result.Stats.DistinctEdges)
	fmt.Fprintf(w, "  Last Block:     %d\n", result.Stats.LastBlock)

	return nil
}
