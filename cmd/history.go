package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [search-id]",
	Short: "Show past searches and their results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if len(args) == 1 {
			search, err := st.GetSearch(ctx, args[0])
			if err != nil {
				return err
			}
			return enc.Encode(search)
		}

		searches, err := st.ListSearches(ctx, historyLimit)
		if err != nil {
			return err
		}

		if historyJSON {
			return enc.Encode(searches)
		}

		if len(searches) == 0 {
			fmt.Println("No searches recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tROUTE\tDATES\tSTATUS\tDEALS\tWHEN")
		for _, s := range searches {
			dates := s.Query.StartDate
			if s.Query.EndDate != "" && s.Query.EndDate != s.Query.StartDate {
				dates += ".." + s.Query.EndDate
			}
			fmt.Fprintf(w, "%s\t%s > %s\t%s\t%s\t%d\t%s\n",
				s.ID,
				strings.Join(s.Query.Origins, ","),
				strings.Join(s.Query.Destinations, ","),
				dates,
				s.Status,
				s.DealCount,
				s.CreatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of searches to list")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(historyCmd)
}
