package onnx

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

var requiredInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

// session wraps a BERT-style model. Its first output is either logits
// [batch, classes] or hidden states [batch, seq, dim].
type session struct {
	sess   *ort.DynamicAdvancedSession
	output string
	logits bool
	width  int64 // classes for logits, hidden size otherwise
}

// newSession loads modelPath. The runtime library is resolved next to the
// model unless libPath is set.
func newSession(modelPath, libPath string, threads int) (*session, error) {
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}
	have := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		have[in.Name] = true
	}
	for _, name := range requiredInputs {
		if !have[name] {
			return nil, fmt.Errorf("onnx: model missing required input %q", name)
		}
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}

	s := &session{output: outputs[0].Name}
	switch dims := outputs[0].Dimensions; len(dims) {
	case 2:
		s.logits, s.width = true, dims[1]
	case 3:
		s.width = dims[2]
	default:
		return nil, fmt.Errorf("onnx: unsupported output shape %v", dims)
	}
	if s.width <= 0 {
		return nil, fmt.Errorf("onnx: output %q has dynamic last dimension", s.output)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: session options: %w", err)
	}
	defer opts.Destroy()
	if threads > 0 {
		opts.SetIntraOpNumThreads(threads)
	}
	opts.SetInterOpNumThreads(1)

	s.sess, err = ort.NewDynamicAdvancedSession(modelPath, requiredInputs, []string{s.output}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}
	return s, nil
}

// run executes one batch and returns a copy of the flat output tensor.
func (s *session) run(enc encoding) ([]float32, error) {
	shape := ort.NewShape(enc.rows, enc.cols)
	var inputs []ort.Value
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	for _, data := range [][]int64{enc.inputIDs, enc.attentionMask, enc.tokenTypeIDs} {
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("onnx: input tensor: %w", err)
		}
		inputs = append(inputs, t)
	}

	outShape := ort.NewShape(enc.rows, s.width)
	if !s.logits {
		outShape = ort.NewShape(enc.rows, enc.cols, s.width)
	}
	out, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer out.Destroy()

	if err := s.sess.Run(inputs, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}
	return append([]float32(nil), out.GetData()...), nil
}

func (s *session) close() error {
	return s.sess.Destroy()
}
