package perturb

import "unicode"

// qwertyNeighbors maps each lowercase letter to its adjacent keys on a
// QWERTY layout.
var qwertyNeighbors = map[byte]string{
	'q': "wa", 'w': "qeas", 'e': "wrsd", 'r': "etdf", 't': "ryfg",
	'y': "tugh", 'u': "yihj", 'i': "uojk", 'o': "ipkl", 'p': "ol",
	'a': "qwsz", 's': "weadzx", 'd': "erfsxc", 'f': "rtdgcv", 'g': "tyfhvb",
	'h': "yugjbn", 'j': "uihknm", 'k': "iojlm", 'l': "opk",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn",
	'n': "bhjm", 'm': "njk",
}

// Keyboard introduces keyboard-distance typos: a bounded fraction of words
// each get up to MaxCharsPerWord letters replaced by a neighbouring key,
// with at most MaxEdits substitutions per call.
type Keyboard struct {
	WordFraction    float64
	MaxCharsPerWord int
	MaxEdits        int
}

// NewKeyboard returns a Keyboard strategy with default bounds.
func NewKeyboard() *Keyboard {
	return &Keyboard{WordFraction: 0.3, MaxCharsPerWord: 2, MaxEdits: 4}
}

func (k *Keyboard) Name() string { return "keyboard" }

func (k *Keyboard) Perturb(text string) (string, error) {
	if text == "" {
		return "", fail(k.Name(), ErrEmptyText)
	}

	var words []span
	for _, s := range spans(text, isASCIILetter) {
		if s.end-s.start >= 2 {
			words = append(words, s)
		}
	}
	if len(words) == 0 {
		return "", fail(k.Name(), ErrNoEligibleWords)
	}

	rng := newRand(k.Name(), text)
	out := []byte(text)
	edits := 0
	for _, wi := range pick(rng, len(words), quota(k.WordFraction, len(words))) {
		if edits >= k.MaxEdits {
			break
		}
		w := words[wi]
		n := min(1+rng.IntN(max(k.MaxCharsPerWord, 1)), w.end-w.start, k.MaxEdits-edits)
		for _, off := range pick(rng, w.end-w.start, n) {
			i := w.start + off
			out[i] = neighbor(out[i], rng.IntN(8))
			edits++
		}
	}
	if edits == 0 {
		return "", fail(k.Name(), ErrUnchanged)
	}
	return string(out), nil
}

// neighbor returns a QWERTY neighbour of c selected by n, preserving case.
func neighbor(c byte, n int) byte {
	upper := c >= 'A' && c <= 'Z'
	lower := byte(unicode.ToLower(rune(c)))
	adj := qwertyNeighbors[lower]
	if adj == "" {
		return c
	}
	r := adj[n%len(adj)]
	if upper {
		r = byte(unicode.ToUpper(rune(r)))
	}
	return r
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
