package rng

// Range is the exclusive upper bound of values returned by Next.
const Range = 32768

const (
	multiplier = 1103515245
	increment  = 12345
)

// Generator is the classic C library linear-congruential generator.
// The zero value behaves as if seeded with 0.
type Generator struct {
	state uint32
}

// New returns a generator seeded with seed.
func New(seed uint32) *Generator {
	return &Generator{state: seed}
}

// Seed resets the generator state.
func (g *Generator) Seed(seed uint32) {
	g.state = seed
}

// Next advances the state and returns a value in [0, Range).
func (g *Generator) Next() int {
	g.state = g.state*multiplier + increment
	return int(g.state>>16) % Range
}

// Scale maps a draw from Next onto [0, n). Zero or negative n yields 0.
func Scale(v, n int) int {
	if n <= 0 {
		return 0
	}
	return min(max(v*n/Range, 0), n-1)
}
