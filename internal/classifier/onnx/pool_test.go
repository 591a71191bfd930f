package onnx

import (
	"math"
	"testing"
)

func TestMeanPool(t *testing.T) {
	// Tokens [1,2] [3,4] [5,6]; the last one is padding.
	out := meanPool([]float32{1, 2, 3, 4, 5, 6}, []int64{1, 1, 0}, 1, 3, 2)

	if len(out) != 2 {
		t.Fatalf("expected 2 values, got %d", len(out))
	}
	if !closeEnough(out[0], 2) || !closeEnough(out[1], 3) {
		t.Errorf("expected [2, 3], got %v", out)
	}
}

func TestMeanPoolBatch(t *testing.T) {
	hidden := []float32{10, 20, 30, 40, 5, 15, 0, 0}
	out := meanPool(hidden, []int64{1, 1, 1, 0}, 2, 2, 2)

	want := []float32{20, 30, 5, 15}
	for i := range want {
		if !closeEnough(out[i], want[i]) {
			t.Errorf("out[%d] = %f, want %f", i, out[i], want[i])
		}
	}
}

func TestMeanPoolAllPadding(t *testing.T) {
	out := meanPool([]float32{1, 2, 3, 4}, []int64{0, 0}, 1, 2, 2)
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %f, want 0", i, v)
		}
	}
}

func closeEnough(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}
