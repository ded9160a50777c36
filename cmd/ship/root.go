package ship

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/shipping"
	"github.com/spf13/cobra"
)

var (
	// ShipCommands represents the shipping command group
	ShipCommands = &cobra.Command{
		Use:   "ship",
		Short: "Shipping quotes",
	}
	quoteCmd = &cobra.Command{
		Use:   "quote",
		Short: "Quote the shipping options for a postal code and a weight",
		Args:  cobra.NoArgs,
		RunE:  quote,
	}
)

func init() {
	ShipCommands.AddCommand(quoteCmd)

	quoteCmd.Flags().String("cep", "", util.WrapString("Destination postal code"))
	quoteCmd.Flags().Float64("weight", 1, util.WrapString("Total weight in kg"))
	quoteCmd.Flags().Duration("timeout", 0, util.WrapString("Give up after this duration (0 = wait)"))
	_ = quoteCmd.MarkFlagRequired("cep")
}

func quote(cmd *cobra.Command, _ []string) error {
	cep, _ := cmd.Flags().GetString("cep")
	weight, _ := cmd.Flags().GetFloat64("weight")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	options, err := util.GetConfig().Estimator().Estimate(ctx, cep, []shipping.Item{{Weight: weight, Quantity: 1}})
	if err != nil {
		return err
	}
	if len(options) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no shipping options")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tPRICE\tDEADLINE")
	for _, o := range options {
		fmt.Fprintf(w, "%s\tR$ %s\t%d dias úteis\n", o.Service, o.Price.StringFixed(2), o.DeadlineDays)
	}
	return w.Flush()
}
