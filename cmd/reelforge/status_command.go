package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status <animation-id>",
		Short: "Show the progress of an animation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/animations/%s/status?user_id=%s",
				url.PathEscape(args[0]), url.QueryEscape(ctx.userID()))

			var view api.StatusView
			if err := ctx.doJSON(cmd, http.MethodGet, path, nil, &view); err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:   %s\n", view.Status)
			fmt.Fprintf(out, "Progress: %.0f%%\n", view.Progress)
			if view.StatusMessage != "" {
				fmt.Fprintf(out, "Stage:    %s\n", view.StatusMessage)
			}
			if view.VideoURL != "" {
				fmt.Fprintf(out, "Video:    %s\n", view.VideoURL)
			}
			if view.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:    %s\n", view.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw JSON response")
	return cmd
}
