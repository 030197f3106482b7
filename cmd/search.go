package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pointfindr/points-cli/internal/model"
)

var (
	searchFrom      []string
	searchTo        []string
	searchStart     string
	searchEnd       string
	searchPrograms  []string
	searchAlliances []string
	searchPartners  []string
	searchPointsMin int
	searchPointsMax int
	searchDays      int
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search award availability and rank the best redemptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if _, err := time.Parse("2006-01-02", searchStart); err != nil {
			return eris.Wrapf(err, "invalid --start date %q", searchStart)
		}
		end := searchEnd
		if end == "" {
			end = searchStart
		} else if _, err := time.Parse("2006-01-02", end); err != nil {
			return eris.Wrapf(err, "invalid --end date %q", end)
		}

		env, err := initSearchEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		query := model.Query{
			Origins:      upperAll(searchFrom),
			Destinations: upperAll(searchTo),
			StartDate:    searchStart,
			EndDate:      end,
			Filters: model.Filters{
				Programs:         searchPrograms,
				Alliances:        searchAlliances,
				TransferPartners: searchPartners,
				PointsMin:        searchPointsMin,
				PointsMax:        searchPointsMax,
				Days:             searchDays,
			},
		}

		result, err := env.Pipeline.FindDeals(ctx, query)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		zap.L().Info("search complete",
			zap.Int("deals", len(result.AllDeals)),
		)

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printDeals(result)
		return nil
	},
}

func upperAll(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, strings.ToUpper(strings.TrimSpace(c)))
	}
	return out
}

// printDeals renders the ranked result as a table, one row per populated
// cabin, cheapest deal first.
func printDeals(result *model.Result) {
	if len(result.AllDeals) == 0 {
		fmt.Println("No deals found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tROUTE\tPROGRAM\tCABIN\tPOINTS\tFEES\tCASH\tCPP\tSOURCE")
	for i := range result.AllDeals {
		deal := &result.AllDeals[i]
		for _, cabin := range model.CabinOrder {
			offer := deal.Offer(cabin)
			if offer == nil || offer.Points <= 0 {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				deal.Date,
				deal.Route.String(),
				deal.Program,
				cabin,
				offer.Points,
				orDash(offer.Fees),
				formatCash(offer.CheapestCashPrice),
				formatCPP(offer.CheapestCPP),
				deal.Source,
			)
		}
	}
	w.Flush()

	if cheapest := result.CheapestDeal; cheapest != nil {
		if points, ok := cheapest.BestPoints(); ok {
			fmt.Printf("\nCheapest: %s %s on %s for %d points\n",
				cheapest.Route.String(), cheapest.Program, cheapest.Date, points)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatCash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *v)
}

func formatCPP(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchFrom, "from", nil, "origin airport codes (required)")
	searchCmd.Flags().StringSliceVar(&searchTo, "to", nil, "destination airport codes (required)")
	searchCmd.Flags().StringVar(&searchStart, "start", "", "start date YYYY-MM-DD (required)")
	searchCmd.Flags().StringVar(&searchEnd, "end", "", "end date YYYY-MM-DD (default: start date)")
	searchCmd.Flags().StringSliceVar(&searchPrograms, "programs", nil, "limit to these mileage programs")
	searchCmd.Flags().StringSliceVar(&searchAlliances, "alliances", nil, "limit to these airline alliances (source-side)")
	searchCmd.Flags().StringSliceVar(&searchPartners, "transfer-partners", nil, "limit to these transferable currencies (source-side)")
	searchCmd.Flags().IntVar(&searchPointsMin, "points-min", 0, "minimum points cost")
	searchCmd.Flags().IntVar(&searchPointsMax, "points-max", 0, "maximum points cost")
	searchCmd.Flags().IntVar(&searchDays, "days", 0, "extra days to search around the start date")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the full result as JSON")
	_ = searchCmd.MarkFlagRequired("from")
	_ = searchCmd.MarkFlagRequired("to")
	_ = searchCmd.MarkFlagRequired("start")
	rootCmd.AddCommand(searchCmd)
}
