package tokenizer

import (
	"cmp"
	"errors"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
)

var ErrEmptyInput = errors.New("no pairs to merge")

// Pair is two adjacent symbols considered as a merge candidate.
type Pair struct {
	Left, Right string
}

// Merged is the symbol that replaces the pair once it is merged.
func (p Pair) Merged() string {
	return p.Left + p.Right
}

func (p Pair) String() string {
	return p.Left + " " + p.Right
}

type PairCount struct {
	Pair  Pair
	Count int
}

// PairCounts maps pairs to their frequency and remembers the order in which
// each pair was first seen while scanning the corpus. That order is the
// tie-break used by SelectBest.
type PairCounts struct {
	counts *linkedhashmap.Map[Pair, int]
}

func newPairCounts() *PairCounts {
	return &PairCounts{counts: linkedhashmap.New[Pair, int]()}
}

// CountPairs counts every adjacent pair of every entry. Overlapping pairs of
// equal value are counted independently.
func CountPairs(corpus Corpus) *PairCounts {
	pc := newPairCounts()
	for _, entry := range corpus {
		for i := range len(entry) - 1 {
			pc.add(Pair{entry[i], entry[i+1]}, 1)
		}
	}

	return pc
}

func (pc *PairCounts) add(p Pair, n int) {
	count, _ := pc.counts.Get(p)
	pc.counts.Put(p, count+n)
}

func (pc *PairCounts) Get(p Pair) int {
	count, _ := pc.counts.Get(p)
	return count
}

func (pc *PairCounts) Len() int {
	return pc.counts.Size()
}

// Each calls fn for every pair in first-occurrence order.
func (pc *PairCounts) Each(fn func(Pair, int)) {
	pc.counts.Each(func(p Pair, count int) {
		fn(p, count)
	})
}

// Top returns at most n pairs ordered by descending count, ties in
// first-occurrence order.
func (pc *PairCounts) Top(n int) []PairCount {
	if n <= 0 {
		return nil
	}

	type ranked struct {
		PairCount
		order int
	}

	pairs := heap.NewWith(func(a, b ranked) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.order, b.order)
	})

	var order int
	pc.Each(func(p Pair, count int) {
		pairs.Push(ranked{PairCount{p, count}, order})
		order++
	})

	top := make([]PairCount, 0, min(n, pc.Len()))
	for len(top) < n {
		r, ok := pairs.Pop()
		if !ok {
			break
		}

		top = append(top, r.PairCount)
	}

	return top
}

// SelectBest returns the pair with the highest count. Among equal counts the
// pair seen first in the corpus wins, so the result depends only on the
// corpus and never on map iteration order.
func SelectBest(pc *PairCounts) (PairCount, error) {
	if pc == nil || pc.Len() == 0 {
		return PairCount{}, ErrEmptyInput
	}

	var best PairCount
	pc.Each(func(p Pair, count int) {
		if count > best.Count {
			best = PairCount{p, count}
		}
	})

	return best, nil
}
