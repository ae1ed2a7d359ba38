package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tani-io/tani/internal/ingest"
)

func writeHarvestCSV(t *testing.T, dir string) string {
	t.Helper()
	header := append([]string{ingest.ColProvince, ingest.ColRegency, ingest.ColDistrict}, ingest.HarvestMeasureHeaders...)
	line := func(prov, reg, panen string) string {
		vals := make([]string, len(ingest.HarvestMeasureHeaders))
		for i := range vals {
			vals[i] = "2"
		}
		vals[12] = panen
		return strings.Join(append([]string{prov, reg, ""}, vals...), ",")
	}
	body := strings.Join([]string{
		strings.Join(header, ","),
		line("Jawa Barat", "", "900"),
		line("Jawa Barat", "Bogor", "400"),
		line("Jawa Barat", "Garut", "500"),
	}, "\n") + "\n"

	path := filepath.Join(dir, "panen.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func runCommand(t *testing.T, run func() error, out *bytes.Buffer) string {
	t.Helper()
	require.NoError(t, run())
	return out.String()
}

func TestIngestResolveSummary(t *testing.T) {
	dir := t.TempDir()
	withConfig(t, sqliteConfig(filepath.Join(dir, "tani.db")))
	ctx := context.Background()

	ingestHarvest = []string{writeHarvestCSV(t, dir)}
	t.Cleanup(func() { ingestHarvest = nil })

	var out bytes.Buffer
	ingestCmd.SetContext(ctx)
	ingestCmd.SetOut(&out)
	got := runCommand(t, func() error { return ingestCmd.RunE(ingestCmd, nil) }, &out)
	assert.Equal(t, "harvest=3 climate=0 survey=0\n", got)

	out.Reset()
	resolveCmd.SetContext(ctx)
	resolveCmd.SetOut(&out)
	got = runCommand(t, func() error { return resolveCmd.RunE(resolveCmd, []string{"kabupaten", "garut"}) }, &out)
	assert.JSONEq(t, `{"level":"kabupaten","kabupaten":"Garut","provinsi":"Jawa Barat"}`, got)

	out.Reset()
	summaryCmd.SetContext(ctx)
	summaryCmd.SetOut(&out)
	got = runCommand(t, func() error { return summaryCmd.RunE(summaryCmd, []string{"jawa", "barat"}) }, &out)
	assert.Contains(t, got, "**Analisis Data Panen Wilayah: JAWA BARAT**")
	assert.Contains(t, got, "Total Panen: 900 ha")
}

func TestIngestCommand_NoSources(t *testing.T) {
	withConfig(t, sqliteConfig(filepath.Join(t.TempDir(), "tani.db")))

	ingestCmd.SetContext(context.Background())
	err := ingestCmd.RunE(ingestCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--harvest")
}

func TestMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tani.db")
	withConfig(t, sqliteConfig(path))

	migrateCmd.SetContext(context.Background())
	require.NoError(t, migrateCmd.RunE(migrateCmd, nil))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
