package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/platform"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets available to the account",
	Long: `Lists datasets using the stored session, signing in first when needed.

Example:
  brain datasets --region USA --universe TOP3000 --delay 1`,
	RunE: func(cmd *cobra.Command, args []string) error {

		query, err := datasetQueryFromFlags(cmd)
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(context.Background())
		defer cleanup()

		runtime, err := newRuntime(ctx)
		if err != nil {
			return err
		}

		page, err := runtime.Platform.ListDatasets(ctx, query)
		if err != nil {
			return err
		}

		if len(page.Results) == 0 {
			fmt.Println(infoStyle.Render("No datasets matched"))
			return nil
		}

		fmt.Println(renderDatasets(page))
		fmt.Println(infoStyle.Render(fmt.Sprintf("Showing %d of %d datasets", len(page.Results), page.Count)))
		return nil
	},
}

func datasetQueryFromFlags(cmd *cobra.Command) (platform.DatasetQuery, error) {

	query := platform.DefaultDatasetQuery()
	flags := cmd.Flags()

	var err error
	if query.InstrumentType, err = flags.GetString("instrument-type"); err != nil {
		return query, err
	}
	if query.Region, err = flags.GetString("region"); err != nil {
		return query, err
	}
	if query.Delay, err = flags.GetInt("delay"); err != nil {
		return query, err
	}
	if query.Universe, err = flags.GetString("universe"); err != nil {
		return query, err
	}
	if query.Theme, err = flags.GetBool("theme"); err != nil {
		return query, err
	}
	if query.Limit, err = flags.GetInt("limit"); err != nil {
		return query, err
	}
	if query.Offset, err = flags.GetInt("offset"); err != nil {
		return query, err
	}

	if query.Delay != 0 && query.Delay != 1 {
		return query, fmt.Errorf("delay must be 0 or 1, got %d", query.Delay)
	}

	return query, nil
}

func renderDatasets(page *platform.DatasetPage) string {

	rows := make([][]string, 0, len(page.Results))
	for _, dataset := range page.Results {
		rows = append(rows, []string{
			dataset.ID,
			dataset.Name,
			dataset.Category.Name,
			strconv.FormatFloat(dataset.Coverage*100, 'f', 0, 64) + "%",
			strconv.Itoa(dataset.FieldCount),
			strconv.Itoa(dataset.AlphaCount),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(infoStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("ID", "NAME", "CATEGORY", "COVERAGE", "FIELDS", "ALPHAS").
		Rows(rows...).
		String()
}

func addDatasetFlags(cmd *cobra.Command) {
	defaults := platform.DefaultDatasetQuery()

	cmd.Flags().String("instrument-type", defaults.InstrumentType, "Instrument type")
	cmd.Flags().String("region", defaults.Region, "Region")
	cmd.Flags().Int("delay", defaults.Delay, "Data delay in days (0 or 1)")
	cmd.Flags().String("universe", defaults.Universe, "Universe")
	cmd.Flags().Bool("theme", defaults.Theme, "Only list themed datasets")
	cmd.Flags().Int("limit", 0, "Maximum number of datasets to return")
	cmd.Flags().Int("offset", 0, "Number of datasets to skip")
}

func init() {
	addDatasetFlags(datasetsCmd)
	rootCmd.AddCommand(datasetsCmd)
}
