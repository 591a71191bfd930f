// Package idgen derives stable base identifiers for corpus examples.
package idgen

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/crimson-sun/steady/internal/model"
)

// HashLen is the number of hex characters kept from the content hash.
const HashLen = 12

// Scheme selects how base ids are derived.
type Scheme string

const (
	SchemeHash  Scheme = "hash"  // content hash of the text
	SchemeIndex Scheme = "index" // zero-padded source position
)

// Hash returns the first HashLen hex characters of the md5 of text.
func Hash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:HashLen]
}

// Positional returns prefix_NNNN for the given source index.
func Positional(prefix string, index int) string {
	return fmt.Sprintf("%s_%04d", prefix, index)
}

// Generator produces base ids with a fixed scheme.
type Generator struct {
	Scheme Scheme
	Prefix string // used by SchemeIndex
}

// New returns a Generator. Unknown schemes fall back to SchemeIndex.
func New(scheme Scheme, prefix string) Generator {
	if scheme != SchemeHash {
		scheme = SchemeIndex
	}
	if prefix == "" {
		prefix = "base"
	}
	return Generator{Scheme: scheme, Prefix: prefix}
}

// ID returns the base id for ex.
func (g Generator) ID(ex model.BaseExample) string {
	if g.Scheme == SchemeHash {
		return Hash(ex.Text)
	}
	return Positional(g.Prefix, ex.Index)
}
