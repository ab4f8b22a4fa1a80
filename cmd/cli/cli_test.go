package cli

import (
	"testing"
	"time"

	"github.com/brain-io/agent/internal/platform"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "expired"},
		{-time.Minute, "expired"},
		{30 * time.Second, "less than a minute"},
		{time.Minute, "1 minute"},
		{45 * time.Minute, "45 minutes"},
		{time.Hour + 5*time.Minute, "1 hour, 5 minutes"},
		{4 * time.Hour, "4 hours, 0 minutes"},
		{26 * time.Hour, "1 day, 2 hours"},
		{73 * time.Hour, "3 days, 1 hours"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in), tt.in.String())
	}
}

func newDatasetCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "datasets"}
	addDatasetFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestDatasetQueryFromFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		query, err := datasetQueryFromFlags(newDatasetCommand(t))
		require.NoError(t, err)
		assert.Equal(t, platform.DefaultDatasetQuery(), query)
	})

	t.Run("overrides", func(t *testing.T) {
		query, err := datasetQueryFromFlags(newDatasetCommand(t,
			"--region", "EUR", "--universe", "TOP2500", "--delay", "0", "--theme", "--limit", "20", "--offset", "40"))
		require.NoError(t, err)

		assert.Equal(t, "EQUITY", query.InstrumentType)
		assert.Equal(t, "EUR", query.Region)
		assert.Equal(t, "TOP2500", query.Universe)
		assert.Equal(t, 0, query.Delay)
		assert.True(t, query.Theme)
		assert.Equal(t, 20, query.Limit)
		assert.Equal(t, 40, query.Offset)
	})

	t.Run("bad delay", func(t *testing.T) {
		_, err := datasetQueryFromFlags(newDatasetCommand(t, "--delay", "3"))
		assert.ErrorContains(t, err, "delay")
	})
}

func TestRenderDatasets(t *testing.T) {
	page := &platform.DatasetPage{
		Count: 1,
		Results: []platform.Dataset{{
			ID:         "fundamental6",
			Name:       "Company Fundamental Data",
			Category:   platform.Category{Name: "Fundamental"},
			Coverage:   0.96,
			FieldCount: 886,
			AlphaCount: 1200,
		}},
	}

	out := renderDatasets(page)
	assert.Contains(t, out, "fundamental6")
	assert.Contains(t, out, "Fundamental")
	assert.Contains(t, out, "96%")
	assert.Contains(t, out, "886")
}

func TestCommandTree(t *testing.T) {
	root := GetCommandOptions()

	for _, path := range [][]string{
		{"login"},
		{"session", "status"},
		{"session", "validate"},
		{"session", "logout"},
		{"monitor"},
		{"datasets"},
		{"service", "install"},
		{"service", "run"},
		{"version"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
