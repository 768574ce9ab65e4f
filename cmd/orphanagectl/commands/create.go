package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/usecases"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type createFlags struct {
	lat, lng       float64
	name           string
	about          string
	instructions   string
	openingHours   string
	openOnWeekends bool
	photos         []string
}

// create: walk the picker and the form with values taken from flags.
func createCmd(o *rootOptions) *cobra.Command {
	f := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new orphanage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			repo, err := o.openJournal()
			if err != nil {
				return err
			}
			defer repo.Close()

			s := usecases.NewSession(o.deps(repo), cliChatID)
			s.Start(ctx)
			s.Map.StartCreation(ctx)

			picker := s.Picker()
			if picker == nil {
				return errors.New("position picker did not open")
			}
			picker.Tap(entities.Coordinate{Latitude: f.lat, Longitude: f.lng})
			if err := picker.Proceed(ctx); err != nil {
				return err
			}
			if err := s.LastFocusError(); err != nil {
				return err
			}

			form := s.Form()
			if form == nil {
				return errors.New("orphanage form did not open")
			}
			form.SetName(f.name)
			form.SetAbout(f.about)
			form.SetInstructions(f.instructions)
			form.SetOpeningHours(f.openingHours)
			form.SetOpenOnWeekends(f.openOnWeekends)

			for _, path := range f.photos {
				added, err := form.AddPhoto(ctx, filePicker{path: path})
				if err != nil {
					return errors.Wrapf(err, "failed to add photo %s", path)
				}
				if !added {
					fmt.Fprintf(out, "skipped %s: not found\n", path)
				}
			}

			res, err := form.Submit(ctx)
			if err != nil {
				return err
			}
			if res.Outcome != entities.OutcomeCreated {
				if res.Navigated {
					fmt.Fprintln(out, "submitted, but the server answered with an error")
				}
				return errors.Wrap(res.Err, "failed to register orphanage")
			}
			fmt.Fprintf(out, "registered %q with %d photos\n", f.name, res.Record.ImageCount)
			return nil
		},
	}

	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&f.name, "name", "", "orphanage name")
	cmd.Flags().StringVar(&f.about, "about", "", "description")
	cmd.Flags().StringVar(&f.instructions, "instructions", "", "visiting instructions")
	cmd.Flags().StringVar(&f.openingHours, "hours", "", "opening hours")
	cmd.Flags().BoolVar(&f.openOnWeekends, "weekends", true, "open on weekends")
	cmd.Flags().StringSliceVar(&f.photos, "photo", nil, "photo path (repeatable)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// filePicker offers one file from disk. A missing file is a cancelled pick and
// an unreadable one a refused permission.
type filePicker struct {
	path string
}

func (p filePicker) Pick(context.Context) (usecases.PickResult, error) {
	info, err := os.Stat(p.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return usecases.Cancelled(), nil
	case errors.Is(err, os.ErrPermission):
		return usecases.PermissionDenied(), nil
	case err != nil:
		return usecases.PickResult{}, err
	case info.IsDir():
		return usecases.Cancelled(), nil
	}

	fh, err := os.Open(p.path)
	if errors.Is(err, os.ErrPermission) {
		return usecases.PermissionDenied(), nil
	}
	if err != nil {
		return usecases.PickResult{}, err
	}
	fh.Close()
	return usecases.Picked(p.path), nil
}
