package tokenizer

import (
	"bufio"
	"io"
	"strings"

	"github.com/jmorganca/subword/internal/orderedmap"
)

// DefaultMarker terminates every word so that no pair spans two words.
const DefaultMarker = "_"

// Entry is one word occurrence as an ordered sequence of symbols.
type Entry []string

func (e Entry) String() string {
	return strings.Join(e, " ")
}

// Corpus is the working set of entries rewritten by each training round.
// Repeated words stay repeated: the duplication is the frequency signal.
type Corpus []Entry

// PrepareCorpus splits text on whitespace and turns every word occurrence
// into an entry of its characters followed by marker.
func PrepareCorpus(text, marker string) Corpus {
	words := strings.Fields(text)
	corpus := make(Corpus, 0, len(words))
	for _, word := range words {
		corpus = append(corpus, wordEntry(word, marker))
	}

	return corpus
}

// ReadCorpus is PrepareCorpus over a stream.
func ReadCorpus(r io.Reader, marker string) (Corpus, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	scanner.Split(bufio.ScanWords)

	var corpus Corpus
	for scanner.Scan() {
		corpus = append(corpus, wordEntry(scanner.Text(), marker))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return corpus, nil
}

func wordEntry(word, marker string) Entry {
	entry := make(Entry, 0, len(word)+1)
	for _, r := range word {
		entry = append(entry, string(r))
	}

	return append(entry, marker)
}

// Len returns the total number of symbols across all entries.
func (c Corpus) Len() int {
	var n int
	for _, e := range c {
		n += len(e)
	}

	return n
}

func (c Corpus) Clone() Corpus {
	clone := make(Corpus, len(c))
	for i, e := range c {
		clone[i] = append(Entry(nil), e...)
	}

	return clone
}

// Vocabulary returns the distinct symbols of the corpus in order of first
// appearance.
func (c Corpus) Vocabulary() []string {
	seen := make(map[string]struct{})
	var vocab []string
	for _, e := range c {
		for _, s := range e {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				vocab = append(vocab, s)
			}
		}
	}

	return vocab
}

// SymbolCounts returns how often each symbol occurs, in order of first
// appearance.
func (c Corpus) SymbolCounts() *orderedmap.Map[string, int] {
	counts := orderedmap.New[string, int]()
	for _, e := range c {
		for _, s := range e {
			counts.Update(s, func(n int) int { return n + 1 })
		}
	}

	return counts
}
