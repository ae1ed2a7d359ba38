package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tani-io/tani/internal/ingest"
	"github.com/tani-io/tani/internal/resilience"
)

var (
	ingestHarvest     []string
	ingestClimate     []string
	ingestSurvey      []string
	ingestReplace     bool
	ingestParallelism int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load harvest, climate and survey files into the store",
	Long: `Parses CSV or XLSX sources and upserts them. Several --harvest files are
summed per province, regency and district before loading.

With --replace each loaded table is emptied in the same transaction that
writes it. If a table fails to load it keeps its previous rows; tables
that were already written stay replaced.`,
	Example: `  tani ingest --harvest data_panen.xlsx --climate iklim.csv --survey ksa.csv
  tani ingest --harvest part1.csv --harvest part2.csv --replace`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src := ingest.Sources{Harvest: ingestHarvest, Climate: ingestClimate, Survey: ingestSurvey}
		if src.Empty() {
			return fmt.Errorf("at least one of --harvest, --climate or --survey is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, "ingest")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rc := resilience.FromConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
		loader := ingest.NewLoader(st,
			ingest.WithRetry(rc),
			ingest.WithParallelism(ingestParallelism),
			ingest.WithReplace(ingestReplace),
		)
		res, err := loader.Load(ctx, src)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "harvest=%d climate=%d survey=%d\n", res.Harvest, res.Climate, res.Survey)
		return nil
	},
}

func init() {
	f := ingestCmd.Flags()
	f.StringArrayVar(&ingestHarvest, "harvest", nil, "harvest file (CSV or XLSX); repeatable")
	f.StringArrayVar(&ingestClimate, "climate", nil, "climate file (CSV or XLSX); repeatable")
	f.StringArrayVar(&ingestSurvey, "survey", nil, "KSA survey file (CSV or XLSX); repeatable")
	f.BoolVar(&ingestReplace, "replace", false, "replace the contents of each loaded table")
	f.IntVar(&ingestParallelism, "parallelism", ingest.DefaultParallelism, "files parsed concurrently")
	rootCmd.AddCommand(ingestCmd)
}
