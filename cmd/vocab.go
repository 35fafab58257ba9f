package cmd

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmorganca/subword/envconfig"
	"github.com/jmorganca/subword/format"
	"github.com/jmorganca/subword/tokenizer"
)

func cmdVocab() *cobra.Command {
	cmd := cobra.Command{
		Use:   "vocab [FILE]",
		Short: "Show pair frequencies and vocabulary growth",
		Long:  "Show the most frequent pairs before each round and how the vocabulary grows as merges are learned.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  vocabHandler,
	}

	cmd.Flags().IntP("rounds", "n", envconfig.Rounds, "Number of rounds to show")
	cmd.Flags().String("marker", envconfig.Marker, "End-of-word marker")
	cmd.Flags().String("text", "", "Read this text instead of a file")
	cmd.Flags().Int("top", 3, "Number of candidate pairs to show per round")
	cmd.Flags().Bool("symbols", false, "Also show symbol counts after the last round")
	cmd.Flags().Bool("json", false, "Print symbol counts as a JSON object in corpus order")
	return &cmd
}

func vocabHandler(cmd *cobra.Command, args []string) error {
	config := tokenizer.Config{
		Rounds: must(cmd.Flags().GetInt("rounds")),
		Marker: must(cmd.Flags().GetString("marker")),
	}

	corpus, err := readCorpus(cmd, args, config.Marker)
	if err != nil {
		return err
	}

	trainer, err := tokenizer.NewTrainer(corpus, config)
	if err != nil {
		return err
	}

	top := must(cmd.Flags().GetInt("top"))
	table := newTable(cmd.OutOrStdout(), "ROUND", "MERGED", "TOKENS", "VOCAB", "CANDIDATES")
	table.Append([]string{"0", "", strconv.Itoa(corpus.Len()), strconv.Itoa(len(corpus.Vocabulary())), ""})
	for !trainer.Done() {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		candidates := tokenizer.CountPairs(trainer.Corpus()).Top(top)

		round, err := trainer.Step()
		if errors.Is(err, tokenizer.ErrDone) {
			break
		} else if err != nil {
			return err
		}

		table.Append([]string{
			strconv.Itoa(round.Number),
			round.Pair.Merged(),
			strconv.Itoa(round.Tokens),
			strconv.Itoa(round.Vocabulary),
			formatCandidates(candidates),
		})
	}

	table.Render()

	if must(cmd.Flags().GetBool("symbols")) {
		counts := trainer.Corpus().SymbolCounts()
		if must(cmd.Flags().GetBool("json")) {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(counts)
		}

		symbols := newTable(cmd.OutOrStdout(), "SYMBOL", "COUNT")
		for symbol, count := range counts.All() {
			symbols.Append([]string{symbol, format.HumanNumber(uint64(count))})
		}

		symbols.Render()
	}

	return nil
}

func formatCandidates(candidates []tokenizer.PairCount) string {
	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = c.Pair.Left + "+" + c.Pair.Right + "=" + strconv.Itoa(c.Count)
	}

	return strings.Join(parts, " ")
}
