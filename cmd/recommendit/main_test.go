package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/storage/badger"
)

const rawCSV = `Assessment Name,Assessment URL,Remote Testing Support,Adaptive/IRT Support,Time,Test Type Keys,Description
Java 8 (New),https://example.com/java-8-new/,Yes,Yes,18 min,K,Multi-choice test of Java 8 knowledge.
OPQ32r,https://example.com/opq32r/,Yes,No,25 min,P,Occupational personality questionnaire.
Sales Simulation,https://example.com/sales-sim/,No,No,N/A,"S, E",Role play for sales staff.
`

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	// Point at a config file that does not exist so defaults apply
	base := []string{"recommendit", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--env-file", filepath.Join(t.TempDir(), "none.env")}
	return newApp().Run(append(base, args...))
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"warn", false},
		{"error", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := run(t, "--log-level", tt.level, "info", "--snapshot", filepath.Join(t.TempDir(), "missing"))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}
			// The info command fails on an empty snapshot, not on the logger
			require.Error(t, err)
			assert.NotContains(t, err.Error(), "invalid log level")
		})
	}
}

func TestBuildRequiresDestination(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "raw.csv", rawCSV)

	err := run(t, "build", "--input", input, "--provider", "mock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output or --snapshot")
}

func TestBuildRequiresInput(t *testing.T) {
	err := run(t, "build", "--output", "x.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")
}

func TestBuildMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	input := writeFile(t, dir, "raw.csv", rawCSV)

	err := run(t, "build", "--input", input, "--output", filepath.Join(dir, "out.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestBuildImportQuery(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "raw.csv", rawCSV)
	output := filepath.Join(dir, "final.csv")
	snapshot := filepath.Join(dir, "snapshot")

	require.NoError(t, run(t, "build", "--input", input, "--output", output, "--provider", "mock", "--concurrency", "2", "--batch-size", "2"))

	f, err := os.Open(output)
	require.NoError(t, err)
	records, err := catalog.ReadCSV(f)
	f.Close()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Java 8 (New)", records[0].Name)
	assert.Len(t, records[0].Vector, 1536)

	require.NoError(t, run(t, "import", "--input", output, "--snapshot", snapshot))

	repo, err := badger.NewRepository(snapshot, false)
	require.NoError(t, err)
	info, err := repo.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, info.Count)
	assert.Equal(t, "text-embedding-3-small", info.Model)
	require.NoError(t, repo.Close())

	require.NoError(t, run(t, "info", "--snapshot", snapshot))

	// The text a record was embedded from finds that record
	query := core.EmbeddingText(records[2])
	require.NoError(t, run(t, "query", "--provider", "mock", "--catalog", output, query))
	require.NoError(t, run(t, "query", "--provider", "mock", "--snapshot", snapshot, "--format", "catalog", "--explain", query))

	// Unrelated text is a benign no-match
	require.NoError(t, run(t, "query", "--provider", "mock", "--catalog", output, "underwater basket weaving"))
}

func TestQueryTracing(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "raw.csv", rawCSV)
	output := filepath.Join(dir, "final.csv")
	require.NoError(t, run(t, "build", "--input", input, "--output", output, "--provider", "mock"))

	var spans bytes.Buffer
	app := newApp()
	app.ErrWriter = &spans
	err := app.Run([]string{"recommendit",
		"--config", filepath.Join(dir, "none.yaml"),
		"--env-file", filepath.Join(dir, "none.env"),
		"--trace",
		"query", "--provider", "mock", "--catalog", output, "java developer"})
	require.NoError(t, err)

	assert.Contains(t, spans.String(), "search.Recommend")
	assert.Contains(t, spans.String(), "search.embed")
	_, pending := app.Metadata[tracerShutdownKey]
	assert.False(t, pending)
}

func TestQueryErrors(t *testing.T) {
	err := run(t, "query", "--provider", "mock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description is required")

	err = run(t, "query", "--provider", "mock", "--format", "yaml", "java")
	require.Error(t, err)

	err = run(t, "query", "--provider", "mock", "--catalog", filepath.Join(t.TempDir(), "missing.csv"), "java")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCatalogLoad)
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	rec := &core.CatalogRecord{
		Name:            "Java 8 (New)",
		URL:             "https://example.com/java-8-new/",
		DurationMinutes: 18,
		RemoteSupport:   core.SupportYes,
		AdaptiveSupport: core.SupportNo,
		TestTypes:       []string{"Knowledge & Skills"},
	}
	require.NoError(t, printResults(&buf, []core.RetrievalResult{{Record: rec, Score: 0.8123}}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "1. Java 8 (New) (0.8123)\n"))
	assert.Contains(t, out, "Remote Testing: Yes")
	assert.Contains(t, out, "Adaptive Support: No")
	assert.Contains(t, out, "Duration: 18 min")
	assert.Contains(t, out, "Test Type: Knowledge & Skills")
}

func TestCommandFlags(t *testing.T) {
	app := newApp()
	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"serve", "query", "build", "import", "info"}, names)

	var build *cli.Command
	for _, cmd := range app.Commands {
		if cmd.Name == "build" {
			build = cmd
		}
	}
	require.NotNil(t, build)
	for _, flag := range build.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == "input" {
			assert.True(t, f.Required)
		}
	}
}
