package commands

import (
	"fmt"

	"github.com/abelzeko/orphanage-bot/internal/usecases"
	"github.com/spf13/cobra"
)

// history: print journaled submissions made from this terminal.
func historyCmd(o *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := o.openJournal()
			if err != nil {
				return err
			}
			defer repo.Close()

			uc := usecases.NewOrphanageUseCase(o.deps(nil), repo, nil)
			records, err := uc.History(cliChatID, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), usecases.FormatHistory(records))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "how many entries to print")
	return cmd
}
