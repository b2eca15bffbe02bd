package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"linebot_responder/src"
	"linebot_responder/src/logger"
	"linebot_responder/src/model"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "linebot_responder",
		Short:        "LINE greeting responder backed by Neo4j and Ollama",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the process environment")

	load := func(stdoutReserved bool) (*src.Config, error) {
		return loadConfig(envFile, stdoutReserved)
	}

	root.AddCommand(
		newServeCmd(load),
		newSeedCmd(load),
		newAskCmd(load),
	)
	return root
}

// loadConfig reads configuration and initializes the global logger.
// With stdoutReserved the command owns stdout and logs go to stderr instead.
func loadConfig(envFile string, stdoutReserved bool) (*src.Config, error) {
	config, err := src.LoadConfig(envFile)
	if err != nil {
		return nil, err
	}
	config.LogConfig = logConfigFor(config.LogConfig, stdoutReserved)
	if err := logger.InitLogger(config.LogConfig); err != nil {
		return nil, err
	}
	return config, nil
}

func logConfigFor(config model.LogConfig, stdoutReserved bool) model.LogConfig {
	if stdoutReserved && !strings.EqualFold(config.Output, "stderr") && !strings.EqualFold(config.Output, "file") {
		config.Output = "stderr"
	}
	return config
}
