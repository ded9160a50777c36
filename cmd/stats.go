package cmd

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/db/engines/maple"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the shop summary, database info and metrics",
	Args:  cobra.NoArgs,
	RunE: util.ShopRunE(func(_ context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
		out := cmd.OutOrStdout()

		sum, err := s.Summary()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "SUMMARY")
		fmt.Fprintf(out, "  %-22s: %d\n", "Orders", sum.Orders)
		fmt.Fprintf(out, "  %-22s: R$ %s\n", "Revenue", sum.Revenue.StringFixed(2))
		fmt.Fprintf(out, "  %-22s: %d (%d active)\n", "Products", sum.Products, sum.ActiveProducts)
		for status, n := range sum.OrdersByStatus {
			fmt.Fprintf(out, "  %-22s: %d\n", "Status "+status, n)
		}
		fmt.Fprintf(out, "  %-22s: %d\n", "Low Stock", len(sum.LowStock))
		for _, p := range sum.LowStock {
			fmt.Fprintf(out, "    %-20s: %d (%s)\n", p.ID, p.Stock, p.Name)
		}

		info, err := s.Store().GetDBInfo()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nDATABASE")
		fmt.Fprintf(out, "  %-22s: %s\n", "Engine", info.DbType)
		fmt.Fprintf(out, "  %-22s: %d\n", "Keys", info.Entries)
		fmt.Fprintf(out, "  %-22s: %d bytes\n", "Size", info.SizeBytes)
		if meta, ok := info.Metadata.(*maple.Metadata); ok {
			fmt.Fprintf(out, "  %-22s: %d\n", "Write Index", meta.CurrentWriteIndex)
			fmt.Fprintf(out, "  %-22s: %d (balance %.2f, %d to %d keys)\n", "Shards", meta.ShardCount, meta.Balance.Quality, meta.Balance.Min, meta.Balance.Max)
			fmt.Fprintf(out, "  %-22s: %d\n", "Expired Entries", meta.ExpiredEntries)
		}

		if withMetrics, _ := cmd.Flags().GetBool("metrics"); withMetrics {
			fmt.Fprintln(out, "\nMETRICS")
			metrics.WritePrometheus(out, true)
		}
		return nil
	}),
}

func init() {
	statsCmd.Flags().Bool("metrics", false, util.WrapString("Also print all metrics in Prometheus text format"))
}
