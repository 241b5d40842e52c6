package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var qualityFlag string
	var conversationFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "generate <query>...",
		Short: "Generate an animation from a natural-language description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.GenerateRequest{
				Query:          strings.Join(args, " "),
				Quality:        qualityFlag,
				ConversationID: conversationFlag,
				UserID:         ctx.userID(),
			}

			var resp api.GenerateResponse
			if err := ctx.doJSON(cmd, http.MethodPost, "/api/generate-animation", req, &resp); err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			if resp.Success {
				renderOutcome(out, true, fmt.Sprintf("animation %s (version %d) ready", resp.AnimationID, resp.Version))
				fmt.Fprintf(out, "  conversation: %s\n", resp.ConversationID)
				fmt.Fprintf(out, "  video:        %s\n", resp.VideoURL)
				return nil
			}
			renderOutcome(out, false, resp.Message)
			fmt.Fprintf(out, "  animation:    %s (version %d)\n", resp.AnimationID, resp.Version)
			fmt.Fprintf(out, "  conversation: %s\n", resp.ConversationID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&qualityFlag, "quality", "q", "low", "Render quality (low, medium, high)")
	cmd.Flags().StringVar(&conversationFlag, "conversation", "", "Continue an existing conversation by id")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw JSON response")

	return cmd
}
