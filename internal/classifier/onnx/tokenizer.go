package onnx

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	defaultMaxSeqLen = 128
	maxWordRunes     = 200
)

// encoding is a padded batch ready for inference. Slices are flat
// [rows * cols].
type encoding struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	rows, cols    int64
}

// tokenizer is an uncased BERT WordPiece tokenizer.
type tokenizer struct {
	vocab  *vocabulary
	maxLen int
}

func newTokenizer(v *vocabulary, maxLen int) *tokenizer {
	if maxLen < 3 {
		maxLen = defaultMaxSeqLen
	}
	return &tokenizer{vocab: v, maxLen: maxLen}
}

// encode returns [CLS] pieces... [SEP] truncated to maxLen.
func (t *tokenizer) encode(text string) []int64 {
	pieces := t.pieces(text)
	if limit := t.maxLen - 2; len(pieces) > limit {
		pieces = pieces[:limit]
	}
	ids := make([]int64, 0, len(pieces)+2)
	ids = append(ids, t.vocab.cls)
	for _, p := range pieces {
		ids = append(ids, t.vocab.id(p))
	}
	return append(ids, t.vocab.sep)
}

// encodeBatch pads every text to the longest sequence in the batch.
func (t *tokenizer) encodeBatch(texts []string) encoding {
	if len(texts) == 0 {
		return encoding{}
	}

	seqs := make([][]int64, len(texts))
	cols := 0
	for i, text := range texts {
		seqs[i] = t.encode(text)
		cols = max(cols, len(seqs[i]))
	}

	rows := len(texts)
	enc := encoding{
		inputIDs:      make([]int64, rows*cols),
		attentionMask: make([]int64, rows*cols),
		tokenTypeIDs:  make([]int64, rows*cols),
		rows:          int64(rows),
		cols:          int64(cols),
	}
	for i, seq := range seqs {
		off := i * cols
		for j, id := range seq {
			enc.inputIDs[off+j] = id
			enc.attentionMask[off+j] = 1
		}
		for j := len(seq); j < cols; j++ {
			enc.inputIDs[off+j] = t.vocab.pad
		}
	}
	return enc
}

// pieces runs basic tokenization followed by greedy longest-match WordPiece.
func (t *tokenizer) pieces(text string) []string {
	var out []string
	for _, word := range basicTokens(text) {
		out = append(out, t.wordPieces(word)...)
	}
	return out
}

func (t *tokenizer) wordPieces(word string) []string {
	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []string{"[UNK]"}
	}

	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		var match string
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if t.vocab.has(sub) {
				match = sub
				break
			}
		}
		if match == "" {
			return []string{"[UNK]"}
		}
		pieces = append(pieces, match)
		start = end
	}
	return pieces
}

// basicTokens cleans, lowercases and strips accents, then splits on
// whitespace and punctuation. CJK ideographs become single tokens.
func basicTokens(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar || isControl(r):
		case isCJK(r):
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	folded := stripMarks(strings.ToLower(b.String()))

	var tokens []string
	for _, field := range strings.Fields(folded) {
		start := 0
		for i, r := range field {
			if !isPunct(r) {
				continue
			}
			if i > start {
				tokens = append(tokens, field[start:i])
			}
			tokens = append(tokens, string(r))
			start = i + len(string(r))
		}
		if start < len(field) {
			tokens = append(tokens, field[start:])
		}
	}
	return tokens
}

// stripMarks drops combining marks after NFD decomposition.
func stripMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

// isPunct treats every non-alphanumeric printable ASCII symbol as
// punctuation, as BERT does, in addition to Unicode punctuation.
func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
