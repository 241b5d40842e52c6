package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reelforge/internal/daemon"
	"reelforge/internal/ledger"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the animation daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger store: %w", err)
			}

			pl := pipeline.New(cfg, store, logger)
			d, err := daemon.New(cfg, store, pl, logger)
			if err != nil {
				store.Close()
				return err
			}
			defer d.Close()

			runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reelforge daemon listening on %s\n", d.Addr())

			<-runCtx.Done()
			return nil
		},
	}
}
