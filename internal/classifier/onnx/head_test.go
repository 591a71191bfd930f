package onnx

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeSafetensors encodes F32 tensors in the given order.
func writeSafetensors(t *testing.T, names []string, shapes map[string][]int, data map[string][]float32) string {
	t.Helper()
	header := map[string]any{}
	var body []byte
	for _, name := range names {
		start := len(body)
		for _, v := range data[name] {
			body = binary.LittleEndian.AppendUint32(body, math.Float32bits(v))
		}
		header[name] = map[string]any{
			"dtype":        "F32",
			"shape":        shapes[name],
			"data_offsets": []int{start, len(body)},
		}
	}
	hdr, err := json.Marshal(header)
	if err != nil {
		t.Fatal(err)
	}
	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(hdr)))
	buf = append(buf, hdr...)
	buf = append(buf, body...)

	path := filepath.Join(t.TempDir(), "head.safetensors")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadHead(t *testing.T) {
	path := writeSafetensors(t,
		[]string{headWeight, headBias},
		map[string][]int{headWeight: {3, 2}, headBias: {3}},
		map[string][]float32{
			headWeight: {1, 0, 0, 1, 1, 1},
			headBias:   {0.5, 0, -1},
		})

	h, err := loadHead(path)
	if err != nil {
		t.Fatalf("loadHead: %v", err)
	}
	if h.classes != 3 || h.dim != 2 {
		t.Fatalf("shape = %dx%d, want 3x2", h.classes, h.dim)
	}

	got := h.apply([]float32{2, 3})
	want := []float64{2.5, 3, 4}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("logit %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoadHeadWithoutBias(t *testing.T) {
	path := writeSafetensors(t,
		[]string{headWeight},
		map[string][]int{headWeight: {2, 2}},
		map[string][]float32{headWeight: {1, 2, 3, 4}})

	h, err := loadHead(path)
	if err != nil {
		t.Fatalf("loadHead: %v", err)
	}
	if got := h.apply([]float32{1, 1}); got[0] != 3 || got[1] != 7 {
		t.Errorf("apply = %v, want [3 7]", got)
	}
}

func TestLoadHeadErrors(t *testing.T) {
	t.Run("missing weight", func(t *testing.T) {
		path := writeSafetensors(t,
			[]string{"linear.weight"},
			map[string][]int{"linear.weight": {1, 1}},
			map[string][]float32{"linear.weight": {1}})
		if _, err := loadHead(path); err == nil {
			t.Error("expected error for missing classifier.weight")
		}
	})
	t.Run("bias mismatch", func(t *testing.T) {
		path := writeSafetensors(t,
			[]string{headWeight, headBias},
			map[string][]int{headWeight: {2, 1}, headBias: {3}},
			map[string][]float32{headWeight: {1, 1}, headBias: {0, 0, 0}})
		if _, err := loadHead(path); err == nil {
			t.Error("expected error for bias shape mismatch")
		}
	})
	t.Run("truncated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.safetensors")
		if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := loadHead(path); err == nil {
			t.Error("expected error for truncated file")
		}
	})
}

func TestSoftmax(t *testing.T) {
	probs := softmax([]float64{1000, 1001, 999})

	var sum float64
	for _, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			t.Fatalf("probability out of range: %v", probs)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("sum = %v, want 1", sum)
	}
	if !(probs[1] > probs[0] && probs[0] > probs[2]) {
		t.Errorf("softmax did not preserve order: %v", probs)
	}
	if softmax(nil) != nil {
		t.Error("softmax(nil) should be nil")
	}
}
