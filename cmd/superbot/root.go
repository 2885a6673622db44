package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/m3rciful/superbot/core/buildinfo"
	corecmd "github.com/m3rciful/superbot/core/cmd"
	"github.com/m3rciful/superbot/internal/ledger"
	"github.com/m3rciful/superbot/internal/superbot"
)

const defaultConfigPath = "config.yaml"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "superbot",
		Short:        "SuperBot - Telegram assistant with AI chat, weather and an income ledger",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return serve(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")

	root.AddCommand(
		newServeCmd(&configPath),
		newLedgerCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return serve(*configPath)
		},
	}
}

func serve(configPath string) error {
	return corecmd.Run(corecmd.Options{
		ConfigPath:        configPath,
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return superbot.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			c, ok := cfg.(*superbot.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", cfg)
			}
			return superbot.Bootstrap(c)
		},
	})
}

func newLedgerCmd(configPath *string) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the income ledger",
	}
	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "report <month>",
		Short: "Print the report of a month (1-12) of the current year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			month, err := strconv.Atoi(args[0])
			if err != nil || month < 1 || month > 12 {
				return fmt.Errorf("month must be a number between 1 and 12, got %q", args[0])
			}
			path, err := corecmd.ResolveConfigPath(corecmd.Options{
				ConfigPath:        *configPath,
				DefaultConfigPath: defaultConfigPath,
			})
			if err != nil {
				return err
			}
			cfg, err := superbot.LoadLedger(path)
			if err != nil {
				return err
			}
			engine, closeFn, err := superbot.OpenLedger(cfg, nil)
			if err != nil {
				return err
			}
			defer closeLedger(&err, closeFn)

			rep, err := engine.Report(cmd.Context(), month)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	})
	return ledgerCmd
}

// closeLedger runs closeFn and joins its failure onto *errp.
func closeLedger(errp *error, closeFn func() error) {
	if cerr := closeFn(); cerr != nil {
		*errp = errors.Join(*errp, fmt.Errorf("ledger: close: %w", cerr))
	}
}

func printReport(w io.Writer, r ledger.Report) error {
	name := ledger.MonthName(r.Period.Month)
	if len(r.Entries) == 0 {
		_, err := fmt.Fprintf(w, "No entries for %s %d.\n", name, r.Period.Year)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %d\n", name, r.Period.Year); err != nil {
		return err
	}
	for i, e := range r.Entries {
		if _, err := fmt.Fprintf(w, "%3d  %-10s  Rp %s\n", i+1, e.Date, ledger.FormatAmount(e.Amount)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Total: Rp %s\n", ledger.FormatAmount(r.Total))
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
