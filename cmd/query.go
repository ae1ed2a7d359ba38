package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tani-io/tani/internal/aggregate"
	"github.com/tani-io/tani/internal/model"
	"github.com/tani-io/tani/internal/region"
	"github.com/tani-io/tani/internal/report"
	"github.com/tani-io/tani/internal/store"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <region text>",
	Short: "Resolve free text to an administrative region",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), "query")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		reg, err := resolveArgs(cmd, st, args)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(reg)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <region text>",
	Short: "Print the harvest summary narrative of a region",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), "query")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		reg, err := resolveArgs(cmd, st, args)
		if err != nil {
			return err
		}
		text, err := report.NewBuilder(aggregate.NewEngine(st), cfg.Report.Locale).
			Narrative(cmd.Context(), reg, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func resolveArgs(cmd *cobra.Command, st store.Reader, args []string) (model.Region, error) {
	match, err := store.ParseMatch(cfg.Region.Match)
	if err != nil {
		return model.Region{}, err
	}
	return region.NewResolver(st, region.WithMatch(match)).Resolve(cmd.Context(), strings.Join(args, " "))
}

func init() {
	rootCmd.AddCommand(resolveCmd, summaryCmd)
}
