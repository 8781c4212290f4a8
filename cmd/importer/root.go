package main

import (
	"github.com/spf13/cobra"
	"github.com/warp/staffing-engine/config"
	"github.com/warp/staffing-engine/importers"
)

// globals are the flags every subcommand shares.
type globals struct {
	envFiles []string
	driver   string
	dsn      string
}

func (g *globals) config() (*config.Config, error) {
	cfg, err := config.Load(g.envFiles...)
	if err != nil {
		return nil, err
	}
	if g.driver != "" {
		cfg.DBDriver = g.driver
	}
	if g.dsn != "" {
		cfg.DBDSN = g.dsn
	}
	return cfg, cfg.Validate()
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:          "staffing-import",
		Short:        "Import staffing workbooks into the relational store",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", nil, "Env files to read (default .env, .env.local)")
	cmd.PersistentFlags().StringVar(&g.driver, "driver", "", "Database driver, sqlite3 or pgx (overrides DB_DRIVER)")
	cmd.PersistentFlags().StringVar(&g.dsn, "db", "", "Database DSN (overrides DB_DSN)")

	cmd.AddCommand(newRunCmd(g), newTokenCmd(g), newTypesCmd())
	return cmd
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the import types",
		RunE: func(cmd *cobra.Command, args []string) error {
			types := make([]string, 0)
			for _, imp := range importers.All() {
				types = append(types, imp.Family())
			}
			return writeJSON(cmd.OutOrStdout(), map[string][]string{"types": types})
		},
	}
}
