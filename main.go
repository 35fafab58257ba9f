package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmorganca/subword/cmd"
	"github.com/jmorganca/subword/envconfig"
	"github.com/jmorganca/subword/logutil"
)

func main() {
	if err := cmd.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}

	envconfig.LoadConfig()
	logutil.Install(os.Stderr, logutil.Level(envconfig.DebugLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(cmd.NewCLI().ExecuteContext(ctx))
}
