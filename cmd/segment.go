package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmorganca/subword/api"
	"github.com/jmorganca/subword/envconfig"
	"github.com/jmorganca/subword/model"
)

func cmdSegment() *cobra.Command {
	cmd := cobra.Command{
		Use:   "segment [WORD...]",
		Short: "Split words into learned subwords",
		Long:  "Split words into learned subwords using a merges file, or a running server when no file is given. Words are read from standard input when none are passed.",
		RunE:  segmentHandler,
	}

	cmd.Flags().StringP("model", "m", envconfig.Model, "Merges file to segment with")
	cmd.Flags().String("host", "", "Segment through the server at this address")
	return &cmd
}

func segmentHandler(cmd *cobra.Command, args []string) error {
	words := args
	if len(words) == 0 {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			words = append(words, scanner.Text())
		}

		if err := scanner.Err(); err != nil {
			return err
		}
	}

	if len(words) == 0 {
		return fmt.Errorf("no words to segment")
	}

	var segments [][]string
	if path := must(cmd.Flags().GetString("model")); path != "" {
		m, err := model.Load(path)
		if err != nil {
			return err
		}

		segmenter := m.Segmenter()
		segmenter.Parallel = envconfig.MaxParallel
		segments, err = segmenter.SegmentAll(cmd.Context(), words)
		if err != nil {
			return err
		}
	} else {
		client, err := newClient(must(cmd.Flags().GetString("host")))
		if err != nil {
			return err
		}

		resp, err := client.Segment(cmd.Context(), &api.SegmentRequest{Words: words})
		if err != nil {
			return err
		}

		segments = resp.Segments
	}

	for _, s := range segments {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(s, " "))
	}

	return nil
}

func newClient(host string) (*api.Client, error) {
	if host == "" {
		return api.ClientFromEnvironment()
	}

	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	base, err := url.Parse(host)
	if err != nil {
		return nil, err
	}

	return api.NewClient(base, http.DefaultClient), nil
}
