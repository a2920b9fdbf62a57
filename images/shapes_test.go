package images

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIoU_Correctness validates the IoU implementation against known test cases
func TestIoU_Correctness(t *testing.T) {
	tests := []struct {
		name     string
		r1       Box
		r2       Box
		expected float64
	}{
		{
			name:     "Identical boxes",
			r1:       Box{0, 0, 99, 99},
			r2:       Box{0, 0, 99, 99},
			expected: 1.0,
		},
		{
			name:     "No overlap",
			r1:       Box{0, 0, 99, 99},
			r2:       Box{200, 200, 299, 299},
			expected: 0.0,
		},
		{
			name:     "Touching edges",
			r1:       Box{0, 0, 9, 9},
			r2:       Box{10, 0, 19, 9},
			expected: 0.0,
		},
		{
			name:     "Partial overlap",
			r1:       Box{0, 0, 9, 9},
			r2:       Box{5, 5, 14, 14},
			expected: 25.0 / 175.0, // intersection=5x5, union=100+100-25
		},
		{
			name:     "One inside other",
			r1:       Box{0, 0, 99, 99},
			r2:       Box{25, 25, 74, 74},
			expected: 0.25, // intersection=2500, union=10000
		},
		{
			name:     "Single pixel",
			r1:       Box{3, 3, 3, 3},
			r2:       Box{3, 3, 3, 3},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateIoU(tt.r1, tt.r2)
			assert.InDelta(t, tt.expected, result, 1e-9)

			// IoU(A, B) should equal IoU(B, A)
			assert.InDelta(t, result, CalculateIoU(tt.r2, tt.r1), 1e-12)
		})
	}
}

func TestGIoU_Correctness(t *testing.T) {
	tests := []struct {
		name     string
		r1       Box
		r2       Box
		expected float64
	}{
		{"Identical boxes", Box{0, 0, 9, 9}, Box{0, 0, 9, 9}, 1.0},
		{"Apart horizontally", Box{0, 0, 9, 9}, Box{20, 0, 29, 9}, -100.0 / 300.0},
		{"Partial overlap", Box{0, 0, 9, 9}, Box{5, 5, 14, 14}, 25.0/175.0 - 50.0/225.0},
		{"One inside other", Box{0, 0, 99, 99}, Box{25, 25, 74, 74}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateGIoU(tt.r1, tt.r2)
			assert.InDelta(t, tt.expected, result, 1e-9)
			assert.LessOrEqual(t, result, CalculateIoU(tt.r1, tt.r2)+1e-12)
		})
	}
}

// TestIoU_EdgeCases tests edge cases and boundary conditions
func TestIoU_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		r1   Box
		r2   Box
	}{
		{"Inverted box", Box{10, 10, 0, 0}, Box{0, 0, 99, 99}},
		{"Both inverted", Box{10, 10, 0, 0}, Box{20, 20, 5, 5}},
		{"Negative coordinates", Box{-100, -100, 0, 0}, Box{-50, -50, 50, 50}},
		{"Very large coordinates", Box{0, 0, 999999, 999999}, Box{500000, 500000, 999999, 999999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, fn := range []Overlap{CalculateIoU, CalculateGIoU} {
				result := fn(tt.r1, tt.r2)
				assert.False(t, math.IsNaN(result))
				assert.LessOrEqual(t, result, 1.0)
				assert.GreaterOrEqual(t, result, -1.0)
			}
		})
	}
}

func TestOverlapFunc(t *testing.T) {
	a := Box{0, 0, 9, 9}
	b := Box{20, 0, 29, 9}

	assert.Equal(t, 0.0, OverlapFunc(false)(a, b))
	assert.Less(t, OverlapFunc(true)(a, b), 0.0)
}

func TestInvertedBoxes(t *testing.T) {
	inverted := Box{10, 10, 0, 0}
	assert.Equal(t, 0.0, inverted.Width())
	assert.Equal(t, 0.0, inverted.Height())
	assert.Equal(t, 0.0, inverted.Area())

	tests := []struct {
		name string
		r1   Box
		r2   Box
		iou  float64
		giou float64
	}{
		{"Both inverted", inverted, Box{20, 20, 5, 5}, 0, 0},
		{"Inverted against valid", inverted, Box{0, 0, 99, 99}, 0, 0},
		// Enclosing box spans 10..25 on each axis: 256 pixels, 36 of them covered.
		{"Inverted apart from valid", inverted, Box{20, 20, 25, 25}, 0, -220.0 / 256.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.iou, CalculateIoU(tt.r1, tt.r2), 1e-12)
			assert.InDelta(t, tt.giou, CalculateGIoU(tt.r1, tt.r2), 1e-12)
			assert.InDelta(t, tt.giou, CalculateGIoU(tt.r2, tt.r1), 1e-12)
		})
	}
}

func TestUnion(t *testing.T) {
	a := Box{0, 0, 9, 9}
	b := Box{5, 5, 14, 14}
	assert.Equal(t, 175.0, a.Union(b))
	assert.Equal(t, a.Union(b), b.Union(a))
}
