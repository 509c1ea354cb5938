package testutil

// FixedRunGenerator returns the same run id every time.
//
// A scenario replayed with the same FixedRunGenerator writes byte-identical
// trace rows, which golden comparisons rely on.
//
// Thread-safety: FixedRunGenerator is stateless and safe for concurrent use.
type FixedRunGenerator struct {
	id string
}

// NewFixedRunGenerator creates a generator for id.
// If id is empty, Generate returns "test-run-default".
func NewFixedRunGenerator(id string) *FixedRunGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunGenerator{id: id}
}

// Generate returns the fixed run id.
func (g *FixedRunGenerator) Generate() string {
	return g.id
}
