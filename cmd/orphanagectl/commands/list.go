package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration"
	"github.com/abelzeko/orphanage-bot/internal/usecases"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// list: focus the map screen and print its markers and footer.
func listCmd(o *rootOptions) *cobra.Command {
	var near string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orphanages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := usecases.NewSession(o.deps(nil), cliChatID)
			s.Start(cmd.Context())
			if state, err := s.Map.State(); state == entities.LoadFailed {
				return errors.Wrap(err, "failed to load orphanages")
			}

			out := cmd.OutOrStdout()
			if near == "" {
				for _, m := range s.Map.Markers() {
					fmt.Fprintf(out, "%d\t%s\t%s,%s\n", m.ID, m.Name,
						integration.FormatCoordinate(m.Position.Latitude), integration.FormatCoordinate(m.Position.Longitude))
				}
				fmt.Fprintln(out, usecases.FormatFooter(s.Map.Count()))
				return nil
			}

			from, err := parseCoordinate(near)
			if err != nil {
				return err
			}
			for _, n := range s.Map.Nearest(from, limit) {
				fmt.Fprintf(out, "%d\t%s\t%.0f m\n", n.Orphanage.ID, n.Orphanage.Name, n.DistanceMeters)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&near, "near", "", "order by distance from \"lat,lng\"")
	cmd.Flags().IntVar(&limit, "limit", 5, "how many orphanages to print with --near")
	return cmd
}

func parseCoordinate(s string) (entities.Coordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return entities.Coordinate{}, errors.Errorf("invalid coordinate %q, want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return entities.Coordinate{}, errors.Wrapf(err, "invalid latitude %q", latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return entities.Coordinate{}, errors.Wrapf(err, "invalid longitude %q", lngStr)
	}
	return entities.Coordinate{Latitude: lat, Longitude: lng}, nil
}
