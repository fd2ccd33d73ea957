package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match [vent text]",
		Short: "Match a vent against the profile catalog",
		Long:  "Match a vent against the profile catalog. With no arguments the vent is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			vent := strings.Join(args, " ")
			if vent == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				vent = string(data)
			}
			if strings.TrimSpace(vent) == "" {
				return fmt.Errorf("vent text is required")
			}

			var result MatchResult
			if err := client.Post(cmd.Context(), "/api/v1/matches", map[string]string{"vent_text": vent}, &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
