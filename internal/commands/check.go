package commands

import (
	"github.com/spf13/cobra"
)

// NewCheckCommand is the status-line hook entry: it runs one scheduling
// check and exits 0 no matter what, since it sits on the editor's hot path.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "check",
		Short:  "Run one auto sync scheduling check",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			newAutoSyncService().Check()
			return nil
		},
	}
}
