package cmd

import (
	"log/slog"
	"maps"
	"net"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jmorganca/subword/envconfig"
	"github.com/jmorganca/subword/model"
	"github.com/jmorganca/subword/server"
)

func cmdServe() *cobra.Command {
	cmd := cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the subword server",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}

	cmd.Flags().StringP("model", "m", envconfig.Model, "Merges file to load at startup")
	appendEnvDocs(&cmd, slices.Collect(maps.Values(envconfig.AsMap())))
	return &cmd
}

func RunServer(cmd *cobra.Command, _ []string) error {
	var m *model.Model
	if path := must(cmd.Flags().GetString("model")); path != "" {
		var err error
		if m, err = model.Load(path); err != nil {
			return err
		}

		slog.Info("loaded model", "path", path, "merges", len(m.Merges), "marker", m.Marker)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(envconfig.Host.Host, envconfig.Host.Port))
	if err != nil {
		return err
	}

	return server.Serve(cmd.Context(), ln, m)
}
