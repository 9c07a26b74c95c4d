package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feichai0017/document-summarizer/internal/agent"
	"github.com/feichai0017/document-summarizer/internal/models"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <name>...",
		Short: "Show the extraction strategy chosen for file names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unsupported := 0
			for _, name := range args {
				strategy, err := agent.Detect(name)
				if err != nil {
					unsupported++
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tunsupported\t%s\n", name, models.UserMessage(err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, strategy, agent.MimeTypeFor(strategy))
			}
			if unsupported > 0 {
				return &exitError{code: 2, err: fmt.Errorf("%d unsupported file(s)", unsupported)}
			}
			return nil
		},
	}
}
