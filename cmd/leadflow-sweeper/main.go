// Package main provides the stale execution-log sweeper.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leadflowhq/leadflow/pkg/cmd"
	"github.com/leadflowhq/leadflow/pkg/log"
	"github.com/leadflowhq/leadflow/pkg/sweep"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("sweeper")

	command := &cli.Command{
		Name:                  "leadflow-sweeper",
		Usage:                 "Reconcile execution logs abandoned in the running state",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.DurationFlag{
				Name:    "ttl",
				Usage:   "Age past which a running log is considered abandoned",
				Value:   sweep.DefaultTTL,
				Sources: cli.EnvVars("SWEEP_TTL"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron schedule for sweep passes",
				Value:   sweep.DefaultSchedule,
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single sweep pass and exit",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Leadflow sweeper")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			sweeper := sweep.NewSweeper(
				persistence.ExecutionLogs(),
				command.Duration("ttl"),
				command.String("schedule"),
				logger,
			)

			if command.Bool("once") {
				sweeper.SweepOnce(ctx)

				return nil
			}

			if err := sweeper.Start(ctx); err != nil {
				return err
			}

			defer sweeper.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Shutting down sweeper")

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
