// Package commands defines the orphanagectl CLI, a terminal front-end over the
// same screens the bot drives.
//
// Commands
//
//   - list      Load the map and print every orphanage (or the nearest ones)
//   - show      Print one orphanage's details and optionally its route QR code
//   - create    Register an orphanage from flags and photo paths
//   - history   Print the local submission journal
package commands

import (
	"github.com/abelzeko/orphanage-bot/internal/config"
	"github.com/abelzeko/orphanage-bot/internal/integration"
	"github.com/abelzeko/orphanage-bot/internal/logging"
	"github.com/abelzeko/orphanage-bot/internal/repository"
	"github.com/abelzeko/orphanage-bot/internal/usecases"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliChatID tags journal entries written from the terminal
const cliChatID int64 = 0

type rootOptions struct {
	configDir string
	apiURL    string
	dbPath    string
	policy    string
	verbose   bool

	cfg *config.Config
	log *zap.SugaredLogger
	api integration.OrphanageAPI
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:          "orphanagectl",
		Short:        "Browse and register orphanages from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup()
		},
	}

	root.PersistentFlags().StringVar(&o.configDir, "config", "", "directory holding config.yaml (default . then ./config)")
	root.PersistentFlags().StringVar(&o.apiURL, "api", "", "orphanage API base URL (overrides api.baseURL)")
	root.PersistentFlags().StringVar(&o.dbPath, "db", "", "submission journal path (overrides db.path)")
	root.PersistentFlags().StringVar(&o.policy, "policy", "", "submit policy: optimistic or strict (overrides submit.policy)")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(listCmd(o), showCmd(o), createCmd(o), historyCmd(o))
	return root
}

func (o *rootOptions) setup() error {
	var paths []string
	if o.configDir != "" {
		paths = append(paths, o.configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	if o.dbPath != "" {
		cfg.DB.Path = o.dbPath
	}
	if o.policy != "" {
		cfg.Submit.Policy = o.policy
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	} else {
		cfg.Log.Level = "warn"
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	api, err := integration.NewHTTPOrphanageAPI(cfg.API.BaseURL, cfg.API.Timeout, nil, log)
	if err != nil {
		return err
	}

	o.cfg, o.log, o.api = cfg, log, api
	return nil
}

// openJournal opens the sqlite journal; callers close it
func (o *rootOptions) openJournal() (*repository.SQLiteSubmissionRepository, error) {
	repo, err := repository.NewSQLiteSubmissionRepository(o.cfg.DB.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open submission journal")
	}
	return repo, nil
}

func (o *rootOptions) deps(journal usecases.Journal) usecases.Deps {
	return usecases.Deps{
		API:     o.api,
		Opener:  integration.FileOpener{},
		Journal: journal,
		Policy:  usecases.SubmitPolicy(o.cfg.Submit.Policy),
		Log:     o.log,
	}
}
