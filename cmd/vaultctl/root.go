package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/imagevault/imagevault-server/internal/config"
	"github.com/imagevault/imagevault-server/internal/di"
)

// storeFlags are forwarded to config.Load so vaultctl resolves the same
// paths and backends as the server.
type storeFlags struct {
	envFile   string
	dataPath  string
	dbBackend string
	dbURI     string
	dbPath    string
	verbose   bool
}

func (f *storeFlags) args() []string {
	var args []string
	add := func(name, value string) {
		if value != "" {
			args = append(args, "-"+name, value)
		}
	}
	add("env-file", f.envFile)
	add("data-path", f.dataPath)
	add("db-backend", f.dbBackend)
	add("db-uri", f.dbURI)
	add("db-path", f.dbPath)
	return args
}

// container loads configuration and returns a DI container. The caller must
// shut it down.
func (f *storeFlags) container() (*do.RootScope, error) {
	cfg, err := config.Load(f.args())
	if err != nil {
		return nil, err
	}
	if !f.verbose {
		cfg.Logger.Level = "error"
	}
	// Seeding from ACCOUNT_* is the server's job; vaultctl sets the account explicitly.
	cfg.Auth.Account = config.AccountConfig{}
	return di.NewContainerWithConfig(cfg), nil
}

func newRootCmd() *cobra.Command {
	flags := &storeFlags{}

	rootCmd := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Administer the ImageVault account and tag vocabulary",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", "", "Path to .env file (default: .env)")
	pf.StringVar(&flags.dataPath, "data-path", "", "Base path for local data")
	pf.StringVar(&flags.dbBackend, "db-backend", "", "Document store backend: mongo or badger")
	pf.StringVar(&flags.dbURI, "db-uri", "", "MongoDB connection string")
	pf.StringVar(&flags.dbPath, "db-path", "", "Badger database directory")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log at the configured level")

	rootCmd.AddCommand(newAccountCmd(flags))
	rootCmd.AddCommand(newTagsCmd(flags))

	return rootCmd
}

func shutdown(cmd *cobra.Command, injector *do.RootScope) {
	if err := injector.Shutdown(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "shutdown:", err)
	}
}
