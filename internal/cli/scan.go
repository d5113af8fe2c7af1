package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"arb-profit-bot/internal/app"
	"arb-profit-bot/internal/scan"
)

var scanHighOnly bool

var scanCmd = &cobra.Command{
	Use:   "scan [sheet]",
	Short: "Scan price sheets and write profit results back",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		clients := app.InitializeClients(ctx)
		orch := clients.NewOrchestrator(scanHighOnly)

		var summary *scan.Summary
		var err error
		if len(args) == 1 {
			summary, err = scanOne(ctx, clients, orch, args[0])
		} else {
			summary, err = orch.ScanAll(ctx)
		}
		if summary != nil {
			printSummary(cmd, summary)
		}
		return err
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanHighOnly, "high-only", false, "Only alert on high-tier finds")
}

func scanOne(ctx context.Context, clients *app.Clients, orch *scan.Orchestrator, title string) (*scan.Summary, error) {
	worksheets, err := clients.Sheet.Worksheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	for _, ws := range worksheets {
		if ws.Title == title {
			return orch.ScanSheet(ctx, ws)
		}
	}
	return nil, fmt.Errorf("no worksheet named %q", title)
}

func printSummary(cmd *cobra.Command, s *scan.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rows processed: %d\n", s.RowsProcessed)
	fmt.Fprintf(out, "high: %d  medium: %d  low: %d\n", len(s.High), len(s.Medium), len(s.Low))
	if !s.Completed {
		fmt.Fprintln(out, "scan stopped early; cursor saved for resume")
	}
	for _, item := range s.High {
		fmt.Fprintf(out, "  %s!%d %s profit £%s margin %s%%\n",
			item.Sheet, item.Row+1, item.ASIN, item.Profit.StringFixed(2), item.Margin.StringFixed(2))
	}
	log.Info().Int("rows", s.RowsProcessed).Bool("completed", s.Completed).Msg("Scan finished")
}
