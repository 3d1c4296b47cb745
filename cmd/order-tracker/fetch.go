package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/order-tracker/internal/app"
	"github.com/nhle/order-tracker/internal/model"
	appsync "github.com/nhle/order-tracker/internal/sync"
)

var (
	fetchSourceName string
	fetchDays       int
	fetchMax        int

	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all configured sources once and exit",
		Long: "fetch polls every enabled mail source a single time, runs the\n" +
			"extraction pipeline over the results, and stores new orders.\n" +
			"Useful from cron or scripts; the TUI polls on its own.",
		RunE: runFetch,
	}
)

func init() {
	fetchCmd.Flags().StringVar(
		&fetchSourceName, "source", "",
		"fetch only the source with this name",
	)
	fetchCmd.Flags().IntVar(
		&fetchDays, "days", 0,
		"override the configured lookback window, in days",
	)
	fetchCmd.Flags().IntVar(
		&fetchMax, "max", 0,
		"override the configured per-source message cap",
	)
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, s, cleanup, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	sources, err := s.GetSources(ctx)
	if err != nil {
		return err
	}

	syncCfg := cfg.Sync
	if fetchDays > 0 {
		syncCfg.LookbackDays = fetchDays
	}
	if fetchMax > 0 {
		syncCfg.MaxResults = fetchMax
	}

	p := appsync.New(s, syncCfg)
	registered := 0
	for _, src := range sources {
		if !src.Enabled {
			continue
		}
		if fetchSourceName != "" && src.Name != fetchSourceName {
			continue
		}
		adapter := app.BuildAdapter(src)
		if adapter == nil {
			fmt.Fprintf(os.Stderr, "skipping %s: adapter unavailable\n", src.Name)
			continue
		}
		p.RegisterSource(adapter, src)
		registered++
	}

	if registered == 0 {
		return fmt.Errorf("no matching sources to fetch")
	}

	start := time.Now()
	results := p.RunOnce(ctx)

	failed := 0
	for _, r := range results {
		name := sourceDisplayName(sources, r.SourceID)
		if r.Error != nil {
			failed++
			fmt.Printf("%-20s error: %v\n", name, r.Error)
			continue
		}
		fmt.Printf("%-20s %d messages, %d orders (%d rejected), %d new\n",
			name, r.Stats.Processed, r.Stats.Accepted, r.Stats.Rejected,
			r.NewOrderCount)
	}
	fmt.Printf("done in %s\n", time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(results))
	}
	return nil
}

// sourceDisplayName resolves a source ID back to its configured name.
func sourceDisplayName(sources []model.SourceConfig, id string) string {
	for _, s := range sources {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}
