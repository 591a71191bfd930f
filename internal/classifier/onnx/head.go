package onnx

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

const (
	headWeight = "classifier.weight"
	headBias   = "classifier.bias"
)

// tensor is one F32 entry of a safetensors file.
type tensor struct {
	shape []int
	data  []float32
}

// readSafetensors decodes every F32 tensor in a safetensors file: an 8-byte
// little-endian header length, a JSON header, then the raw data block.
func readSafetensors(path string) (map[string]tensor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: %w", err)
	}
	if len(raw) < 8 {
		return nil, fmt.Errorf("safetensors: file too small: %d bytes", len(raw))
	}
	n := binary.LittleEndian.Uint64(raw[:8])
	if n > uint64(len(raw)-8) {
		return nil, fmt.Errorf("safetensors: header length %d exceeds file size", n)
	}
	body := raw[8+n:]

	var header map[string]json.RawMessage
	if err := json.Unmarshal(raw[8:8+n], &header); err != nil {
		return nil, fmt.Errorf("safetensors: parse header: %w", err)
	}

	out := make(map[string]tensor, len(header))
	for name, msg := range header {
		if name == "__metadata__" {
			continue
		}
		var meta struct {
			Dtype       string `json:"dtype"`
			Shape       []int  `json:"shape"`
			DataOffsets [2]int `json:"data_offsets"`
		}
		if err := json.Unmarshal(msg, &meta); err != nil {
			return nil, fmt.Errorf("safetensors: %s: %w", name, err)
		}
		if meta.Dtype != "F32" {
			return nil, fmt.Errorf("safetensors: %s: expected dtype F32, got %s", name, meta.Dtype)
		}

		count := 1
		for _, d := range meta.Shape {
			count *= d
		}
		lo, hi := meta.DataOffsets[0], meta.DataOffsets[1]
		if lo < 0 || hi > len(body) || hi-lo != count*4 {
			return nil, fmt.Errorf("safetensors: %s: data range [%d:%d] does not fit shape %v", name, lo, hi, meta.Shape)
		}

		data := make([]float32, count)
		for i := range data {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[lo+i*4:]))
		}
		out[name] = tensor{shape: meta.Shape, data: data}
	}
	return out, nil
}

// head is a dense classification layer: logits = W·x + b with W of shape
// [classes, dim]. The bias is optional.
type head struct {
	weight  []float32
	bias    []float32
	classes int
	dim     int
}

func loadHead(path string) (*head, error) {
	tensors, err := readSafetensors(path)
	if err != nil {
		return nil, fmt.Errorf("head: %w", err)
	}
	w, ok := tensors[headWeight]
	if !ok {
		return nil, fmt.Errorf("head: tensor %q not found", headWeight)
	}
	if len(w.shape) != 2 {
		return nil, fmt.Errorf("head: expected 2D weight, got shape %v", w.shape)
	}

	h := &head{weight: w.data, classes: w.shape[0], dim: w.shape[1]}
	if b, ok := tensors[headBias]; ok {
		if len(b.shape) != 1 || b.shape[0] != h.classes {
			return nil, fmt.Errorf("head: bias shape %v does not match %d classes", b.shape, h.classes)
		}
		h.bias = b.data
	}
	return h, nil
}

func (h *head) apply(vec []float32) []float64 {
	out := make([]float64, h.classes)
	for c := range out {
		row := h.weight[c*h.dim : (c+1)*h.dim]
		var sum float64
		for j, w := range row {
			sum += float64(w) * float64(vec[j])
		}
		if h.bias != nil {
			sum += float64(h.bias[c])
		}
		out[c] = sum
	}
	return out
}

// softmax turns logits into probabilities, shifting by the max for
// numerical stability.
func softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	peak := logits[0]
	for _, v := range logits[1:] {
		peak = max(peak, v)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
