package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/m3rciful/leadgenbot/core/buildinfo"
	"github.com/m3rciful/leadgenbot/core/cmd"
	"github.com/m3rciful/leadgenbot/internal/app"
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/format"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
	)

	serve := func(c *cobra.Command, _ []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		return cmd.Run(cmd.Options{
			ConfigPath:        configPath,
			DefaultConfigPath: app.DefaultConfigPath,
			LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
				cfg, err := app.LoadConfig(path)
				if err != nil {
					return nil, err
				}
				return cfg, nil
			},
			Bootstrap: app.Bootstrap,
			Context:   c.Context(),
		})
	}

	root := &cobra.Command{
		Use:           "leadbot",
		Short:         "Telegram ordering assistant for lead sales",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config; missing is fine")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bot (default)",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		newCatalogCmd(),
		newVersionCmd(),
	)
	return root
}

func newCatalogCmd() *cobra.Command {
	var path string
	c := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and print the price catalog",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cat, err := catalog.Load(path)
			if err != nil {
				return err
			}
			return printCatalog(c.OutOrStdout(), cat)
		},
	}
	c.Flags().StringVarP(&path, "file", "f", "", "catalog YAML (default: embedded)")
	return c
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			fmt.Fprintln(c.OutOrStdout(), "leadbot "+buildinfo.Summary())
		},
	}
}

// loadEnvFile applies a dotenv file without overriding variables already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func printCatalog(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"GEO"}
	for _, t := range catalog.LeadTypes() {
		header = append(header, t.Label())
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, key := range cat.Keys() {
		entry, _ := cat.Lookup(key)
		row := []string{format.DisplayGeo(key)}
		for _, t := range catalog.LeadTypes() {
			p, _ := entry.Price(t)
			row = append(row, fmt.Sprintf("$%d / %d", p.Price, p.MOQ))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	fmt.Fprintf(tw, "\nPay: %s\n", cat.Payment())
	return tw.Flush()
}
