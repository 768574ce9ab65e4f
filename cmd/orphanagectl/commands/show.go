package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/usecases"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// show <id>: open the details screen for one orphanage.
func showCmd(o *rootOptions) *cobra.Command {
	var qrPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an orphanage's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid orphanage id %q", args[0])
			}

			s := usecases.NewSession(o.deps(nil), cliChatID)
			s.Start(cmd.Context())
			s.Nav.Navigate(cmd.Context(), entities.ScreenOrphanageDetails, entities.IDParams(id))

			details := s.Details()
			if details == nil {
				return errors.New("details screen did not open")
			}
			page, err := details.Page()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, usecases.FormatDetails(page))
			for _, u := range page.Gallery {
				fmt.Fprintf(out, "🖼 %s\n", u)
			}
			fmt.Fprintf(out, "🧭 %s\n", page.RouteURL)

			if qrPath != "" {
				png, err := details.RouteQR(256)
				if err != nil {
					return err
				}
				if err := os.WriteFile(qrPath, png, 0o644); err != nil {
					return errors.Wrapf(err, "failed to write %s", qrPath)
				}
				fmt.Fprintf(out, "route QR code written to %s\n", qrPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&qrPath, "qr", "", "write the route QR code (PNG) to this path")
	return cmd
}
