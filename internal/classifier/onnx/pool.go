package onnx

// meanPool averages hidden states over the tokens the attention mask marks
// as real. hidden is flat [rows * cols * dim], mask is flat [rows * cols].
// Rows with no real tokens pool to zero.
func meanPool(hidden []float32, mask []int64, rows, cols, dim int64) []float32 {
	out := make([]float32, rows*dim)
	for r := int64(0); r < rows; r++ {
		acc := out[r*dim : (r+1)*dim]
		var n float32
		for c := int64(0); c < cols; c++ {
			if mask[r*cols+c] != 1 {
				continue
			}
			n++
			tok := hidden[(r*cols+c)*dim : (r*cols+c+1)*dim]
			for d, v := range tok {
				acc[d] += v
			}
		}
		if n == 0 {
			continue
		}
		for d := range acc {
			acc[d] /= n
		}
	}
	return out
}
