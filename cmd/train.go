package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmorganca/subword/envconfig"
	"github.com/jmorganca/subword/format"
	"github.com/jmorganca/subword/model"
	"github.com/jmorganca/subword/progress"
	"github.com/jmorganca/subword/tokenizer"
)

func cmdTrain() *cobra.Command {
	cmd := cobra.Command{
		Use:   "train [FILE]",
		Short: "Learn merges from a corpus",
		Long:  "Learn merges from FILE, --text or standard input. Compressed corpora ending in .gz or .zst are read transparently.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  trainHandler,
	}

	cmd.Flags().IntP("rounds", "n", envconfig.Rounds, "Number of merges to learn")
	cmd.Flags().String("marker", envconfig.Marker, "End-of-word marker")
	cmd.Flags().String("text", "", "Train on this text instead of a file")
	cmd.Flags().StringP("output", "o", "", "Write the merges to this path instead of standard output")
	cmd.Flags().Bool("verbose", false, "Show a table of every round")
	return &cmd
}

func readCorpus(cmd *cobra.Command, args []string, marker string) (tokenizer.Corpus, error) {
	if text := must(cmd.Flags().GetString("text")); text != "" {
		return tokenizer.PrepareCorpus(text, marker), nil
	}

	if len(args) == 0 {
		return tokenizer.ReadCorpus(cmd.InOrStdin(), marker)
	}

	r, err := model.Open(args[0])
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return tokenizer.ReadCorpus(r, marker)
}

func trainHandler(cmd *cobra.Command, args []string) error {
	config := tokenizer.Config{
		Rounds: must(cmd.Flags().GetInt("rounds")),
		Marker: must(cmd.Flags().GetString("marker")),
	}

	if err := config.Validate(); err != nil {
		return err
	}

	corpus, err := readCorpus(cmd, args, config.Marker)
	if err != nil {
		return err
	}

	var rounds []tokenizer.Round
	verbose := must(cmd.Flags().GetBool("verbose"))

	var bar *progress.RoundBar
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p := progress.NewProgress(f)
		defer p.StopAndClear()

		bar = progress.NewRoundBar("training", config.Rounds)
		p.Add(bar)
	}

	config.OnRound = func(r tokenizer.Round) {
		if bar != nil {
			bar.Set(r.Number, r.Pair.String(), r.Count)
		}

		if verbose {
			rounds = append(rounds, r)
		}
	}

	trainer, err := tokenizer.NewTrainer(corpus, config)
	if err != nil {
		return err
	}

	merges, err := trainer.Run(cmd.Context())
	if err != nil {
		return err
	}

	if verbose {
		writeRounds(cmd.ErrOrStderr(), rounds)
	}

	m := model.New(merges, config.Marker)
	if output := must(cmd.Flags().GetString("output")); output != "" {
		if err := m.Save(output); err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d merges to %s\n", len(merges), output)
		return nil
	}

	_, err = m.WriteTo(cmd.OutOrStdout())
	return err
}

func writeRounds(w io.Writer, rounds []tokenizer.Round) {
	table := newTable(w, "ROUND", "PAIR", "SYMBOL", "COUNT", "TOKENS", "VOCAB")
	for _, r := range rounds {
		table.Append([]string{
			strconv.Itoa(r.Number),
			r.Pair.String(),
			r.Pair.Merged(),
			format.HumanNumber(uint64(r.Count)),
			strconv.Itoa(r.Tokens),
			strconv.Itoa(r.Vocabulary),
		})
	}

	table.Render()
}
