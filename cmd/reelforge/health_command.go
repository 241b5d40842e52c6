package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check whether the daemon is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.HealthResponse
			if err := ctx.doJSON(cmd, http.MethodGet, "/api/health", nil, &resp); err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:  %s\n", resp.Status)
			fmt.Fprintf(out, "Version: %s\n", resp.Version)
			fmt.Fprintf(out, "Uptime:  %s\n", (time.Duration(resp.UptimeSeconds) * time.Second).String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw JSON response")
	return cmd
}
