// Package onnx is a local sequence-classification adapter backed by ONNX
// Runtime. Models either emit logits directly or emit hidden states that
// are mean-pooled and passed through a dense head loaded from safetensors.
package onnx

import (
	"context"
	"fmt"

	"github.com/crimson-sun/steady/internal/classifier"
)

func init() {
	classifier.Register("onnx", func(cfg classifier.Config) (classifier.Classifier, error) {
		return New(cfg)
	})
}

// Classifier runs tokenizer -> session -> (pool -> head) -> softmax.
type Classifier struct {
	sess    *session
	tok     *tokenizer
	head    *head
	classes int
}

// New loads the model, vocabulary and, for hidden-state models, the head.
func New(cfg classifier.Config) (*Classifier, error) {
	vocab, err := loadVocabulary(cfg.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: %w", err)
	}

	sess, err := newSession(cfg.ModelPath, cfg.LibraryPath, cfg.Threads)
	if err != nil {
		return nil, err
	}

	c := &Classifier{sess: sess, tok: newTokenizer(vocab, cfg.MaxSeqLen)}
	if sess.logits {
		c.classes = int(sess.width)
	} else {
		if cfg.HeadPath == "" {
			sess.close()
			return nil, fmt.Errorf("onnx: model emits hidden states; a classification head is required")
		}
		h, err := loadHead(cfg.HeadPath)
		if err != nil {
			sess.close()
			return nil, fmt.Errorf("onnx: %w", err)
		}
		if int64(h.dim) != sess.width {
			sess.close()
			return nil, fmt.Errorf("onnx: hidden size %d != head input dim %d", sess.width, h.dim)
		}
		c.head, c.classes = h, h.classes
	}

	if cfg.NumClasses > 0 && cfg.NumClasses != c.classes {
		c.Close()
		return nil, fmt.Errorf("onnx: model produces %d classes, want %d", c.classes, cfg.NumClasses)
	}
	return c, nil
}

// Classes returns the number of classes the model scores.
func (c *Classifier) Classes() int { return c.classes }

// Classify scores a batch in a single inference call.
func (c *Classifier) Classify(ctx context.Context, batch []classifier.Request) ([]classifier.Response, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = r.Text
	}
	enc := c.tok.encodeBatch(texts)

	out, err := c.sess.run(enc)
	if err != nil {
		return nil, err
	}

	logits := c.logits(out, enc)
	resps := make([]classifier.Response, len(batch))
	for i, r := range batch {
		resps[i] = classifier.Response{Key: r.Key, Scores: scores(softmax(logits[i]))}
	}
	return resps, nil
}

func (c *Classifier) logits(out []float32, enc encoding) [][]float64 {
	rows := int(enc.rows)
	res := make([][]float64, rows)
	if c.head == nil {
		for i := range res {
			row := out[i*c.classes : (i+1)*c.classes]
			res[i] = make([]float64, c.classes)
			for j, v := range row {
				res[i][j] = float64(v)
			}
		}
		return res
	}

	dim := c.sess.width
	pooled := meanPool(out, enc.attentionMask, enc.rows, enc.cols, dim)
	for i := range res {
		res[i] = c.head.apply(pooled[int64(i)*dim : int64(i+1)*dim])
	}
	return res
}

// scores keys probabilities by the model's LABEL_i tokens.
func scores(probs []float64) map[string]float64 {
	m := make(map[string]float64, len(probs))
	for i, p := range probs {
		m[fmt.Sprintf("LABEL_%d", i)] = p
	}
	return m
}

// Close releases ONNX Runtime resources.
func (c *Classifier) Close() error {
	if c.sess != nil {
		return c.sess.close()
	}
	return nil
}
