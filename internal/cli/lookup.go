package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"arb-profit-bot/internal/app"
	"arb-profit-bot/internal/evaluate"
	"arb-profit-bot/internal/profit"
)

var lookupBuyPrice string

// lookupCmd is the single-product diagnostic: it runs the same
// evaluation path a scan does and prints every intermediate value.
var lookupCmd = &cobra.Command{
	Use:   "lookup <asin>",
	Short: "Evaluate one product and print the pricing decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asin := args[0]
		clients := app.InitializeClients(ctx)

		products := clients.Keepa.FetchBatch(ctx, []string{asin})
		p, ok := products[asin]
		if !ok {
			return fmt.Errorf("no product data for %s", asin)
		}

		sell, sellers := evaluate.SellPrice(log.Logger, p)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "asin:          %s\n", p.ASIN)
		fmt.Fprintf(out, "sell price:    £%s\n", sell.StringFixed(2))
		fmt.Fprintf(out, "sellers:       %d\n", sellers)
		fmt.Fprintf(out, "monthly sold:  %d\n", p.MonthlySold)
		fmt.Fprintf(out, "live offers:   %d\n", len(p.Offers))
		if p.FBAFees != nil {
			fmt.Fprintf(out, "fulfillment:   £%s\n",
				decimal.New(p.FBAFees.PickAndPackFee, -2).StringFixed(2))
		}

		if lookupBuyPrice == "" {
			return nil
		}
		buy, err := decimal.NewFromString(lookupBuyPrice)
		if err != nil {
			return fmt.Errorf("invalid --buy price %q: %w", lookupBuyPrice, err)
		}
		result := profit.Calculate(buy, sell, p.FBAFees)
		margin := profit.Margin(result.Profit, sell)
		monthly := profit.Monthly(result.Profit, p.MonthlySold, sellers)
		fmt.Fprintf(out, "profit:        £%s\n", result.Profit.StringFixed(2))
		fmt.Fprintf(out, "roi:           %s%%\n", result.ROI.StringFixed(2))
		fmt.Fprintf(out, "margin:        %s%%\n", margin.StringFixed(2))
		fmt.Fprintf(out, "est monthly:   £%s\n", monthly.StringFixed(2))
		return nil
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupBuyPrice, "buy", "", "Buy price to compute profit against")
}
