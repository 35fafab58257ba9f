package tokenizer

import (
	"context"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jmorganca/subword/logutil"
)

// Segment splits word into characters plus marker and replays merges over
// them in learned order. Characters never seen in training simply stay
// unmerged.
func Segment(word string, merges Merges, marker string) []string {
	tokens := Reapply(wordEntry(word, marker), merges)
	logutil.Trace("segmented", "word", word, "tokens", tokens)
	return tokens
}

// Reapply replays merges over an existing token sequence without
// re-splitting it.
func Reapply(tokens []string, merges Merges) []string {
	entry := Entry(slices.Clone(tokens))
	for _, pair := range merges {
		if len(entry) < 2 {
			break
		}

		entry, _ = MergeEntry(pair, entry)
	}

	return entry
}

// Segmenter segments words with a fixed merge list. The merge list is never
// modified, so a Segmenter is safe for concurrent use.
type Segmenter struct {
	Merges Merges
	Marker string

	// Parallel limits SegmentAll. Zero means GOMAXPROCS.
	Parallel int
}

func NewSegmenter(merges Merges, marker string) *Segmenter {
	if marker == "" {
		marker = DefaultMarker
	}

	return &Segmenter{Merges: merges, Marker: marker}
}

func (s *Segmenter) Segment(word string) []string {
	return Segment(word, s.Merges, s.Marker)
}

// SegmentText segments every whitespace-separated word of text.
func (s *Segmenter) SegmentText(text string) [][]string {
	words := strings.Fields(text)
	segments := make([][]string, len(words))
	for i, word := range words {
		segments[i] = s.Segment(word)
	}

	return segments
}

// SegmentAll segments words concurrently. The result is in input order.
func (s *Segmenter) SegmentAll(ctx context.Context, words []string) ([][]string, error) {
	segments := make([][]string, len(words))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cmpOr(s.Parallel, runtime.GOMAXPROCS(0)))
	for i, word := range words {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			segments[i] = s.Segment(word)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return segments, nil
}

func cmpOr(n, fallback int) int {
	if n > 0 {
		return n
	}

	return fallback
}
