package cli

import (
	"bufio"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// actionLaunchApp marks the final turn of a signup
const actionLaunchApp = "launch_app"

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Sign up by chatting with glow",
		Long: `Start an interactive signup conversation. Each line you type is sent as one
message; the conversation ends when signup completes or input ends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			scanner := bufio.NewScanner(cmd.InOrStdin())

			out.Prompt()
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					out.Prompt()
					continue
				}

				var result ChatResult
				req := map[string]string{"session_id": sessionID, "message": line}
				if err := client.Post(cmd.Context(), "/api/v1/chat", req, &result); err != nil {
					return err
				}
				sessionID = result.SessionID
				out.Print(result)

				if result.Action == actionLaunchApp {
					return nil
				}
				out.Prompt()
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Resume an existing session")

	cmd.AddCommand(newChatSendCmd())
	cmd.AddCommand(newChatShowCmd())

	return cmd
}

func newChatSendCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "send MESSAGE",
		Short: "Send a single message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"session_id": sessionID,
				"message":    strings.Join(args, " "),
			}
			var result ChatResult

			if err := client.Post(cmd.Context(), "/api/v1/chat", req, &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (omit to start a new one)")

	return cmd
}

func newChatShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show SESSION_ID",
		Short: "Show a conversation's progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ChatSession

			if err := client.Get(cmd.Context(), "/api/v1/chat/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
