package store

import (
	"context"
	"errors"
	"testing"
)

func TestBeginRun_FirstWriteWins(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := testRun("run-1")
	if err := s.BeginRun(ctx, run); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	dup := run
	dup.Scenario = "other"
	if err := s.BeginRun(ctx, dup); err != nil {
		t.Fatalf("duplicate BeginRun() failed: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if got != run {
		t.Errorf("GetRun() = %+v, want %+v", got, run)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("ListRuns() returned nil, want empty slice")
	}
	if len(runs) != 0 {
		t.Errorf("ListRuns() returned %d runs, want 0", len(runs))
	}
}

func TestListRuns_OrderedByID(t *testing.T) {
	s := createTestStore(t)
	for _, id := range []string{"run-c", "run-a", "run-b"} {
		insertRun(t, s, id)
	}

	runs, err := s.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	want := []string{"run-a", "run-b", "run-c"}
	if len(runs) != len(want) {
		t.Fatalf("ListRuns() returned %d runs, want %d", len(runs), len(want))
	}
	for i, id := range want {
		if runs[i].ID != id {
			t.Errorf("runs[%d].ID = %q, want %q", i, runs[i].ID, id)
		}
	}
}

func TestReadEvents_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	insertRun(t, s, "run-1")

	events := []EventRecord{
		{RunID: "run-1", Seq: 3, Block: 4, Time: 1.0, Type: "finished", Source: "gen"},
		{RunID: "run-1", Seq: 1, Block: 1, Time: 0.25, Type: "looped", Source: "gen"},
		{RunID: "run-1", Seq: 2, Block: 2, Time: 0.5, Type: "user_data_freed", Source: "gen", Param: 42},
	}
	for _, ev := range events {
		if err := s.WriteEvent(ctx, ev); err != nil {
			t.Fatalf("WriteEvent() failed: %v", err)
		}
	}

	got, err := s.ReadEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadEvents() returned %d events, want 3", len(got))
	}
	for i, ev := range got {
		if ev.Seq != int64(i+1) {
			t.Errorf("events[%d].Seq = %d, want %d", i, ev.Seq, i+1)
		}
	}
	if got[1].Param != 42 {
		t.Errorf("events[1].Param = %d, want 42", got[1].Param)
	}
}

func TestWriteEvent_DuplicateIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	insertRun(t, s, "run-1")

	ev := EventRecord{RunID: "run-1", Seq: 1, Type: "finished", Source: "gen"}
	if err := s.WriteEvent(ctx, ev); err != nil {
		t.Fatalf("WriteEvent() failed: %v", err)
	}
	ev.Type = "looped"
	if err := s.WriteEvent(ctx, ev); err != nil {
		t.Fatalf("duplicate WriteEvent() failed: %v", err)
	}

	got, err := s.ReadEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(got) != 1 || got[0].Type != "finished" {
		t.Errorf("ReadEvents() = %+v, want one finished event", got)
	}
}

func TestWriteEvent_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteEvent(context.Background(), EventRecord{RunID: "missing", Seq: 1, Type: "finished"})
	if err == nil {
		t.Error("WriteEvent() for unknown run should fail")
	}
}

func TestReadEvents_EmptyRun(t *testing.T) {
	s := createTestStore(t)
	insertRun(t, s, "run-1")

	got, err := s.ReadEvents(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ReadEvents() = %v, want empty non-nil slice", got)
	}
}

func TestReadRouteSamples_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	insertRun(t, s, "run-1")

	samples := []RouteSample{
		{RunID: "run-1", Block: 1, Source: "b", Destination: "echo", Gain: 1, TargetGain: 1},
		{RunID: "run-1", Block: 0, Source: "b", Destination: "echo", Gain: 0.5, TargetGain: 1},
		{RunID: "run-1", Block: 1, Source: "a", Destination: "verb", Gain: 0.25, TargetGain: 0, Removing: true},
		{RunID: "run-1", Block: 1, Source: "a", Destination: "echo", Gain: 1, TargetGain: 1},
	}
	for _, rs := range samples {
		if err := s.WriteRouteSample(ctx, rs); err != nil {
			t.Fatalf("WriteRouteSample() failed: %v", err)
		}
	}

	got, err := s.ReadRouteSamples(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRouteSamples() failed: %v", err)
	}
	want := []RouteSample{samples[1], samples[3], samples[2], samples[0]}
	if len(got) != len(want) {
		t.Fatalf("ReadRouteSamples() returned %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("samples[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadRouteSamples_IsolatedPerRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	insertRun(t, s, "run-1")
	insertRun(t, s, "run-2")

	if err := s.WriteRouteSample(ctx, RouteSample{RunID: "run-1", Source: "a", Destination: "b", Gain: 1, TargetGain: 1}); err != nil {
		t.Fatalf("WriteRouteSample() failed: %v", err)
	}

	got, err := s.ReadRouteSamples(ctx, "run-2")
	if err != nil {
		t.Fatalf("ReadRouteSamples() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("run-2 has %d samples, want 0", len(got))
	}
}
