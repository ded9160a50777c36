package catalog

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/query"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/spf13/cobra"
)

var (
	// CatalogCommands represents the catalogue command group
	CatalogCommands = &cobra.Command{
		Use:   "catalog",
		Short: "Query the product catalogue",
	}
	searchCmd = &cobra.Command{
		Use:   "search",
		Short: "Filter, sort and page the active products",
		Args:  cobra.NoArgs,
		RunE:  util.ShopRunE(search),
	}
)

func init() {
	CatalogCommands.AddCommand(searchCmd)
	CatalogCommands.AddCommand(benchCmd)

	flags := searchCmd.Flags()
	flags.String("query", "", util.WrapString("Text contained in the name or description"))
	flags.String("slug", "", util.WrapString("Category or department slug"))
	flags.String("brand", "", util.WrapString("Brand id"))
	flags.Bool("in-stock", false, util.WrapString("Only products with stock"))
	flags.String("sort", query.SortNewest, util.WrapString("Sort order (newest, name-asc, stored)"))
	flags.Int("page", 1, util.WrapString("Page to show (1-based)"))
	flags.Bool("json", false, util.WrapString("Print the result as JSON"))
}

func paramsFromFlags(cmd *cobra.Command) query.Params {
	flags := cmd.Flags()
	p := query.Params{}
	p.Query, _ = flags.GetString("query")
	p.Slug, _ = flags.GetString("slug")
	p.BrandID, _ = flags.GetString("brand")
	p.InStockOnly, _ = flags.GetBool("in-stock")
	p.Sort, _ = flags.GetString("sort")
	p.Page, _ = flags.GetInt("page")
	return p
}

func search(_ context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
	engine := query.NewEngine(query.FromTables(s.Products, s.Categories, s.Departments))
	res, err := engine.Query(paramsFromFlags(cmd))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return util.PrintJSON(cmd.OutOrStdout(), res)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range res.Items {
		price := "R$ " + p.EffectivePrice().StringFixed(2)
		if p.SalePrice != nil {
			price += " (de R$ " + p.Price.StringFixed(2) + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Name, price, p.Stock)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\npage %d of %d (%d products)\n", res.Page, res.Pages, res.Total)
	return nil
}
