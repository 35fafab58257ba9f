package tokenizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDone is returned by Trainer.Step once training has finished.
	ErrDone = errors.New("training done")
)

// Merges is the ordered list of learned merge rules. Order is significant:
// rules are replayed exactly as learned.
type Merges []Pair

type Config struct {
	// Rounds is the maximum number of merges to learn.
	Rounds int
	// Marker is appended to every word. It must not occur in the corpus
	// alphabet.
	Marker string

	// OnRound, if set, is called after every completed round.
	OnRound func(Round)
}

func (c Config) Validate() error {
	if c.Rounds < 0 {
		return fmt.Errorf("%w: rounds must not be negative, got %d", ErrInvalidConfiguration, c.Rounds)
	}

	if c.Marker == "" {
		return fmt.Errorf("%w: marker must not be empty", ErrInvalidConfiguration)
	}

	if strings.ContainsFunc(c.Marker, unicode.IsSpace) {
		return fmt.Errorf("%w: marker must not contain whitespace", ErrInvalidConfiguration)
	}

	return nil
}

// Round describes one completed merge.
type Round struct {
	Number int
	Pair   Pair
	Count  int

	// Tokens and Vocabulary describe the corpus after the merge.
	Tokens     int
	Vocabulary int
}

// Trainer holds the state of one training run. Each run owns its corpus, so
// any number of trainers may run in the same process.
type Trainer struct {
	config Config

	corpus Corpus
	merges Merges
	round  int
	done   bool
}

func NewTrainer(corpus Corpus, config Config) (*Trainer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Trainer{
		config: config,
		corpus: corpus.Clone(),
		// every merge removes at least one token
		merges: make(Merges, 0, min(config.Rounds, corpus.Len())),
	}, nil
}

// Done reports whether the round limit was reached or no pairs remain.
func (t *Trainer) Done() bool {
	return t.done || t.round >= t.config.Rounds
}

// Step counts pairs, selects the best one, records it and merges it into the
// corpus. It returns ErrDone when there is nothing left to do.
func (t *Trainer) Step() (Round, error) {
	if t.Done() {
		t.done = true
		return Round{}, ErrDone
	}

	best, err := SelectBest(CountPairs(t.corpus))
	if errors.Is(err, ErrEmptyInput) {
		slog.Debug("no pairs left", "round", t.round)
		t.done = true
		return Round{}, ErrDone
	} else if err != nil {
		return Round{}, err
	}

	t.merges = append(t.merges, best.Pair)
	t.corpus = Merge(best.Pair, t.corpus)
	t.round++

	round := Round{
		Number:     t.round,
		Pair:       best.Pair,
		Count:      best.Count,
		Tokens:     t.corpus.Len(),
		Vocabulary: len(t.corpus.Vocabulary()),
	}

	slog.Debug("merged", "round", round.Number, "pair", best.Pair.String(), "symbol", best.Pair.Merged(), "count", best.Count, "tokens", round.Tokens, "vocab", round.Vocabulary)
	if t.config.OnRound != nil {
		t.config.OnRound(round)
	}

	return round, nil
}

// Run steps until done. Cancellation is checked between rounds; on
// cancellation the merges learned so far are returned with the context error.
func (t *Trainer) Run(ctx context.Context) (Merges, error) {
	for {
		if err := ctx.Err(); err != nil {
			return t.Merges(), err
		}

		if _, err := t.Step(); errors.Is(err, ErrDone) {
			return t.Merges(), nil
		} else if err != nil {
			return t.Merges(), err
		}
	}
}

func (t *Trainer) Merges() Merges {
	return slices.Clone(t.merges)
}

// Corpus returns the corpus as of the last completed round.
func (t *Trainer) Corpus() Corpus {
	return t.corpus
}

func (t *Trainer) Rounds() int {
	return t.round
}

// Train prepares text and runs a trainer over it.
func Train(ctx context.Context, text string, config Config) (Merges, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	t, err := NewTrainer(PrepareCorpus(text, config.Marker), config)
	if err != nil {
		return nil, err
	}

	return t.Run(ctx)
}
