package onnx

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// vocabulary is a WordPiece vocabulary. A token's id is its zero-based line
// number in vocab.txt.
type vocabulary struct {
	ids  map[string]int64
	size int

	pad, unk, cls, sep int64
}

func loadVocabulary(path string) (*vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()

	v, err := readVocabulary(f)
	if err != nil {
		return nil, fmt.Errorf("vocab: %s: %w", path, err)
	}
	return v, nil
}

func readVocabulary(r io.Reader) (*vocabulary, error) {
	v := &vocabulary{ids: make(map[string]int64, 32000)}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		v.ids[sc.Text()] = int64(v.size)
		v.size++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if v.size == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}

	for tok, dest := range map[string]*int64{
		"[PAD]": &v.pad,
		"[UNK]": &v.unk,
		"[CLS]": &v.cls,
		"[SEP]": &v.sep,
	} {
		id, ok := v.ids[tok]
		if !ok {
			return nil, fmt.Errorf("missing special token %s", tok)
		}
		*dest = id
	}
	return v, nil
}

func (v *vocabulary) has(tok string) bool {
	_, ok := v.ids[tok]
	return ok
}

func (v *vocabulary) id(tok string) int64 {
	if id, ok := v.ids[tok]; ok {
		return id
	}
	return v.unk
}
