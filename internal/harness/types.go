package harness

// Trace event kinds.
const (
	KindStep  = "step"
	KindEdge  = "edge"
	KindEvent = "event"
)

// TraceEvent is one line of a run trace. Detail is pre-formatted with
// fixed precision so traces compare byte for byte.
type TraceEvent struct {
	Block  int    `json:"block"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// RunID identifies the run in the trace store.
	RunID string `json:"run_id"`

	// Pass is true if every step behaved as declared and every
	// expectation matched.
	Pass bool `json:"pass"`

	// Trace holds steps, edge states and drained events in block order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		RunID:  runID,
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(block int, kind, detail string) {
	r.Trace = append(r.Trace, TraceEvent{Block: block, Kind: kind, Detail: detail})
}
