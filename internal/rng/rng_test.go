package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_KnownSequence(t *testing.T) {
	// Reference values from the ANSI C sample rand() with srand(1).
	g := New(1)
	want := []int{16838, 5758, 10113, 17515, 31051}
	for i, w := range want {
		assert.Equal(t, w, g.Next(), "draw %d", i)
	}
}

func TestNext_Deterministic(t *testing.T) {
	for _, seed := range []uint32{0, 1, 42, 0xdeadbeef, 0xffffffff} {
		a, b := New(seed), New(seed)
		for i := 0; i < 1000; i++ {
			require.Equal(t, a.Next(), b.Next(), "seed %#x draw %d", seed, i)
		}
	}
}

func TestNext_InRange(t *testing.T) {
	g := New(0x12345678)
	for i := 0; i < 100000; i++ {
		v := g.Next()
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, Range)
	}
}

func TestSeed_Resets(t *testing.T) {
	g := New(7)
	first := []int{g.Next(), g.Next(), g.Next()}

	g.Seed(7)
	assert.Equal(t, first, []int{g.Next(), g.Next(), g.Next()})
}

func TestZeroValue(t *testing.T) {
	var g Generator
	assert.Equal(t, New(0).Next(), g.Next())
}

func TestScale(t *testing.T) {
	tests := []struct {
		name string
		v, n int
		want int
	}{
		{"zero draw", 0, 24, 0},
		{"max draw rows", Range - 1, 24, 23},
		{"max draw cols", Range - 1, 80, 79},
		{"midpoint", Range / 2, 80, 40},
		{"empty extent", 1234, 0, 0},
		{"negative clamps", -5, 10, 0},
		{"overflowing draw clamps", Range * 2, 10, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scale(tt.v, tt.n))
		})
	}
}
