package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/marketplace/storage"
)

// Row limits for each probe query. Zero means all rows.
const (
	probeLocationLimit = 5
	probeCategoryLimit = 5
	probeUserLimit     = 3
)

type probeResult struct {
	Name     string     `json:"name"`
	Status   string     `json:"status"` // "pass" or "fail"
	Detail   string     `json:"detail,omitempty"`
	Duration string     `json:"duration"`
	Columns  []string   `json:"columns,omitempty"`
	Rows     [][]string `json:"rows,omitempty"`
}

type probeReport struct {
	Driver  string        `json:"driver"`
	Results []probeResult `json:"results"`
	Failed  int           `json:"failed"`
}

type probeQuery struct {
	name    string
	columns []string
	run     func(ctx context.Context, c storage.Catalog) ([][]string, error)
}

func probeQueries() []probeQuery {
	return []probeQuery{
		{
			name:    "locations",
			columns: []string{"ID", "NAME", "TYPE", "LAT", "LNG"},
			run: func(ctx context.Context, c storage.Catalog) ([][]string, error) {
				locs, err := c.ActiveLocations(ctx, probeLocationLimit)
				if err != nil {
					return nil, err
				}
				rows := make([][]string, 0, len(locs))
				for _, l := range locs {
					rows = append(rows, []string{
						strconv.FormatInt(l.ID, 10), l.Name, l.Type,
						strconv.FormatFloat(l.Latitude, 'f', 4, 64),
						strconv.FormatFloat(l.Longitude, 'f', 4, 64),
					})
				}
				return rows, nil
			},
		},
		{
			name:    "categories",
			columns: []string{"ID", "NAME", "SLUG", "ORDER"},
			run: func(ctx context.Context, c storage.Catalog) ([][]string, error) {
				cats, err := c.ActiveCategories(ctx, probeCategoryLimit)
				if err != nil {
					return nil, err
				}
				rows := make([][]string, 0, len(cats))
				for _, cat := range cats {
					rows = append(rows, []string{
						strconv.FormatInt(cat.ID, 10), cat.Name, cat.Slug, strconv.Itoa(cat.SortOrder),
					})
				}
				return rows, nil
			},
		},
		{
			name:    "conditions",
			columns: []string{"ID", "NAME", "DESCRIPTION"},
			run: func(ctx context.Context, c storage.Catalog) ([][]string, error) {
				conds, err := c.ActiveConditions(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([][]string, 0, len(conds))
				for _, cond := range conds {
					rows = append(rows, []string{strconv.FormatInt(cond.ID, 10), cond.Name, cond.Description})
				}
				return rows, nil
			},
		},
		{
			name:    "users",
			columns: []string{"ID", "USERNAME", "EMAIL", "STATUS"},
			run: func(ctx context.Context, c storage.Catalog) ([][]string, error) {
				users, err := c.ActiveUsers(ctx, probeUserLimit)
				if err != nil {
					return nil, err
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Username, u.Email, u.Status})
				}
				return rows, nil
			},
		},
	}
}

// runProbe runs every probe query against c. A failing query is recorded
// and the remaining queries still run.
func runProbe(ctx context.Context, c storage.Catalog) probeReport {
	var report probeReport
	for _, q := range probeQueries() {
		start := time.Now()
		rows, err := q.run(ctx, c)
		res := probeResult{
			Name:     q.name,
			Status:   "pass",
			Duration: time.Since(start).Round(time.Microsecond).String(),
			Columns:  q.columns,
			Rows:     rows,
		}
		if err != nil {
			res.Status = "fail"
			res.Detail = err.Error()
			res.Columns = nil
			report.Failed++
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func printHumanProbe(w io.Writer, report probeReport) error {
	fmt.Fprintf(w, "Store probe: %s\n\n", report.Driver)
	for _, res := range report.Results {
		if res.Status == "fail" {
			fmt.Fprintf(w, "[FAIL] %s: %s\n\n", res.Name, res.Detail)
			continue
		}
		fmt.Fprintf(w, "[PASS] %s (%d rows, %s)\n", res.Name, len(res.Rows), res.Duration)
		if len(res.Rows) == 0 {
			fmt.Fprintln(w)
			continue
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		writeTabRow(tw, res.Columns)
		for _, row := range res.Rows {
			writeTabRow(tw, row)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if report.Failed == 0 {
		fmt.Fprintln(w, "Result: OK")
	} else {
		fmt.Fprintf(w, "Result: %d of %d queries failed\n", report.Failed, len(report.Results))
	}
	return nil
}

func writeTabRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			io.WriteString(w, "\t")
		}
		io.WriteString(w, c)
	}
	io.WriteString(w, "\n")
}

func printJSONProbe(w io.Writer, report probeReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

var probeJSONOutput bool

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Run the catalog queries against the configured store",
	Long: `Opens the configured store and lists active locations, categories,
conditions and users. Each query is reported on its own so one broken table
does not hide the state of the others. Exits non-zero if any query fails.`,
	Args: cobra.NoArgs,
	RunE: runProbeCmd,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().BoolVar(&probeJSONOutput, "json", false, "Output results as JSON")
}

func runProbeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	catalog, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer catalog.Close()

	report := runProbe(cmd.Context(), catalog)
	report.Driver = cfg.Store.Driver

	out := cmd.OutOrStdout()
	if probeJSONOutput {
		err = printJSONProbe(out, report)
	} else {
		err = printHumanProbe(out, report)
	}
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d probe queries failed", report.Failed, len(report.Results))
	}
	return nil
}
