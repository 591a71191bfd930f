package model

// BaseExample is one labeled text read from the source corpus.
type BaseExample struct {
	Index int    // position in the source, used for positional base ids
	Text  string // original, unperturbed text
	Label string // true class name, one of the LabelSet names
}
