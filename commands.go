package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linebot_responder/src"
	"linebot_responder/src/app"
	"linebot_responder/src/greeting"
	"linebot_responder/src/logger"
	"linebot_responder/src/server"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// configLoader loads config and the logger. Pass true when the command prints results to stdout.
type configLoader func(stdoutReserved bool) (*src.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := load(false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			startup := time.Now()
			application, err := app.New(ctx, config)
			if err != nil {
				logger.Error().Err(err).Msg("startup failed")
				return err
			}
			defer application.Close(context.Background())

			logger.Info().
				Int("corpus_size", application.Resolver.CorpusSize()).
				Bool("redis", application.Redis != nil).
				Dur("startup", time.Since(startup)).
				Msg("application ready")

			srv := server.NewServer(config.ServerConfig, application.Handler, application.Metrics.Handler(), application.HealthChecks())
			return srv.Run(ctx)
		},
	}
}

func newSeedCmd(load configLoader) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert greeting phrases and replies into Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := load(false)
			if err != nil {
				return err
			}

			entries, err := greeting.LoadSeedFile(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := greeting.NewStore(ctx, config.Neo4jConfig)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			n, err := store.UpsertGreetings(ctx, entries)
			if err != nil {
				return err
			}
			logger.Info().Int("greetings", n).Str("file", file).Msg("seed complete")
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d greetings\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "greetings.yaml", "YAML seed file")
	return cmd
}

func newAskCmd(load configLoader) *cobra.Command {
	var explain, asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <text>",
		Short: "Resolve one message from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := load(true)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			application, err := app.NewResolverOnly(ctx, config)
			if err != nil {
				return err
			}
			defer application.Close(context.Background())

			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if explain {
				m, err := application.Resolver.Explain(ctx, text)
				if err != nil {
					return err
				}
				if asJSON {
					data, err := sonic.ConfigStd.MarshalIndent(m, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(data))
					return nil
				}
				fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 60))
				fmt.Fprintf(out, "closest greeting: %s (#%d)\n", m.Name, m.Index)
				fmt.Fprintf(out, "score: %.4f threshold: %.4f accepted: %v\n", m.Score, m.Threshold, m.Accepted())
				fmt.Fprintf(out, "%s\n", strings.Repeat("=", 60))
			}

			reply, err := application.Resolver.Resolve(ctx, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, reply)
			return nil
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "print the closest greeting and its score")
	cmd.Flags().BoolVar(&asJSON, "json", false, "with --explain, print the match as JSON only")
	return cmd
}
