package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
)

func newConversationsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Inspect and manage conversations",
	}

	cmd.AddCommand(newConversationsListCommand(ctx))
	cmd.AddCommand(newConversationsShowCommand(ctx))
	cmd.AddCommand(newConversationsRenameCommand(ctx))
	cmd.AddCommand(newConversationsDeleteCommand(ctx))
	return cmd
}

func newConversationsListCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/conversations?user_id=" + url.QueryEscape(ctx.userID())

			var resp api.ConversationListResponse
			if err := ctx.doJSON(cmd, http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, resp)
			}
			if len(resp.Conversations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conversations yet.")
				return nil
			}

			rows := make([][]string, 0, len(resp.Conversations))
			for _, conv := range resp.Conversations {
				rows = append(rows, []string{conv.ID, conv.Title, conv.UpdatedAt})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{column("ID"), column("Title"), column("Updated")},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw JSON response")
	return cmd
}

func newConversationsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Show a conversation with its animations and messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/conversations/%s?user_id=%s",
				url.PathEscape(args[0]), url.QueryEscape(ctx.userID()))

			var resp api.ConversationDetailResponse
			if err := ctx.doJSON(cmd, http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", resp.Conversation.Title)
			fmt.Fprintf(out, "ID:      %s\n", resp.Conversation.ID)
			fmt.Fprintf(out, "Created: %s\n", resp.Conversation.CreatedAt)
			fmt.Fprintf(out, "Updated: %s\n", resp.Conversation.UpdatedAt)

			if len(resp.Animations) > 0 {
				rows := make([][]string, 0, len(resp.Animations))
				for _, anim := range resp.Animations {
					rows = append(rows, []string{
						fmt.Sprintf("%d", anim.Version),
						anim.ID,
						anim.Status,
						anim.Quality,
						anim.VideoURL,
					})
				}
				fmt.Fprintf(out, "\nAnimations:\n%s\n", renderTable(
					[]tableColumn{
						numericColumn("Ver"),
						column("ID"),
						column("Status"),
						column("Quality"),
						column("Video"),
					},
					rows,
				))
			}

			if len(resp.Messages) > 0 {
				fmt.Fprintln(out, "\nMessages:")
				for _, msg := range resp.Messages {
					fmt.Fprintf(out, "  [%s] %s\n", msg.Type, msg.Content)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw JSON response")
	return cmd
}

func newConversationsRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <conversation-id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/conversations/" + url.PathEscape(args[0])
			payload := api.RenameRequest{UserID: ctx.userID(), Title: args[1]}

			var view api.ConversationView
			if err := ctx.doJSON(cmd, http.MethodPatch, path, payload, &view); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", view.ID, view.Title)
			return nil
		},
	}
}

func newConversationsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <conversation-id>",
		Short: "Delete a conversation and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/conversations/%s?user_id=%s",
				url.PathEscape(args[0]), url.QueryEscape(ctx.userID()))

			var resp api.DeleteResponse
			if err := ctx.doJSON(cmd, http.MethodDelete, path, nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", resp.ID)
			return nil
		},
	}
}
