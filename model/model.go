// Package model holds a trained merge list together with the marker it was
// trained with, and reads and writes it in an order-preserving format.
package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/jmorganca/subword/tokenizer"
)

var (
	ErrMalformed     = errors.New("malformed merges")
	ErrInvalidMarker = errors.New("invalid marker")
)

type Model struct {
	Marker string

	// Merges may be extended between calls to Rank. Rules already in the list
	// must not be changed in place once Rank has been called.
	Merges tokenizer.Merges

	mu     sync.Mutex
	ranked int
	ranks  map[tokenizer.Pair]int
}

func New(merges tokenizer.Merges, marker string) *Model {
	if marker == "" {
		marker = tokenizer.DefaultMarker
	}

	return &Model{Marker: marker, Merges: merges}
}

func (m *Model) Validate() error {
	if m.Marker == "" || strings.ContainsFunc(m.Marker, unicode.IsSpace) {
		return fmt.Errorf("%w: %q", ErrInvalidMarker, m.Marker)
	}

	for i, pair := range m.Merges {
		if pair.Left == "" || pair.Right == "" ||
			strings.ContainsFunc(pair.Left, unicode.IsSpace) ||
			strings.ContainsFunc(pair.Right, unicode.IsSpace) {
			return fmt.Errorf("%w: rule %d %q", ErrMalformed, i, pair.String())
		}
	}

	return nil
}

// Rank returns the position of the first rule merging left and right, or -1.
// The index is extended whenever Merges has grown since the last call.
func (m *Model) Rank(left, right string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ranks == nil || len(m.Merges) < m.ranked {
		m.ranks = make(map[tokenizer.Pair]int, len(m.Merges))
		m.ranked = 0
	}

	for i := m.ranked; i < len(m.Merges); i++ {
		if _, ok := m.ranks[m.Merges[i]]; !ok {
			m.ranks[m.Merges[i]] = i
		}
	}
	m.ranked = len(m.Merges)

	if rank, ok := m.ranks[tokenizer.Pair{Left: left, Right: right}]; ok {
		return rank
	}

	return -1
}

// Symbols returns the symbols produced by the merges in the order they were
// learned, without duplicates.
func (m *Model) Symbols() []string {
	seen := make(map[string]struct{}, len(m.Merges))
	var symbols []string
	for _, pair := range m.Merges {
		s := pair.Merged()
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			symbols = append(symbols, s)
		}
	}

	return symbols
}

func (m *Model) Segmenter() *tokenizer.Segmenter {
	return tokenizer.NewSegmenter(m.Merges, m.Marker)
}
