package order

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/ValentinKolb/dShop/lib/export"
	"github.com/ValentinKolb/dShop/lib/shipping"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	// OrderCommands represents the order command group
	OrderCommands = &cobra.Command{
		Use:   "order",
		Short: "Create, list and export orders",
	}
	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Check out a cart: quote shipping, snapshot prices and create the order",
		Args:  cobra.NoArgs,
		RunE:  util.ShopRunE(create),
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List all orders",
		Args:  cobra.NoArgs,
		RunE:  util.ShopRunE(list),
	}
	statusCmd = &cobra.Command{
		Use:   "status [id] [status]",
		Short: "Set the status of an order (" + strings.Join(lo.Map(catalog.OrderStatuses, func(s catalog.OrderStatus, _ int) string { return string(s) }), ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE:  util.ShopRunE(setStatus),
	}
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export all orders to an Avro container file",
		Args:  cobra.NoArgs,
		RunE:  util.ShopRunE(exportOrders),
	}
)

func init() {
	OrderCommands.AddCommand(createCmd)
	OrderCommands.AddCommand(listCmd)
	OrderCommands.AddCommand(statusCmd)
	OrderCommands.AddCommand(exportCmd)

	flags := createCmd.Flags()
	flags.String("user", "", util.WrapString("Id of the ordering user"))
	flags.StringSlice("item", nil, util.WrapString("Ordered product as id:quantity (repeatable)"))
	flags.String("cep", "", util.WrapString("Postal code of the shipping address"))
	flags.String("street", "", util.WrapString("Street of the shipping address"))
	flags.String("number", "", util.WrapString("House number of the shipping address"))
	flags.String("city", "", util.WrapString("City of the shipping address"))
	flags.String("state", "", util.WrapString("State (UF) of the shipping address"))
	flags.String("service", shipping.ServicePAC, util.WrapString("Shipping service (PAC, SEDEX)"))
	flags.String("payment", string(catalog.PaymentPix), util.WrapString("Payment method (pix, credit_card, boleto)"))
	_ = createCmd.MarkFlagRequired("user")
	_ = createCmd.MarkFlagRequired("item")

	exportCmd.Flags().String("out", "orders.avro", util.WrapString("Output file"))
	exportCmd.Flags().String("compression", "deflate", util.WrapString("Block compression (null, deflate)"))
}

// parseItems parses id:quantity pairs
func parseItems(values []string) ([]catalog.CartItem, error) {
	items := make([]catalog.CartItem, 0, len(values))
	for _, v := range values {
		id, qtyStr, found := strings.Cut(v, ":")
		qty := 1
		if found {
			n, err := strconv.Atoi(qtyStr)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid quantity in %q", v)
			}
			qty = n
		}
		items = append(items, catalog.CartItem{ProductID: id, Quantity: qty})
	}
	return items, nil
}

func create(ctx context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
	flags := cmd.Flags()
	user, _ := flags.GetString("user")
	rawItems, _ := flags.GetStringSlice("item")
	service, _ := flags.GetString("service")
	payment, _ := flags.GetString("payment")

	items, err := parseItems(rawItems)
	if err != nil {
		return err
	}

	addr := catalog.Address{UserID: user}
	addr.CEP, _ = flags.GetString("cep")
	addr.Street, _ = flags.GetString("street")
	addr.Number, _ = flags.GetString("number")
	addr.City, _ = flags.GetString("city")
	addr.State, _ = flags.GetString("state")
	addr = addr.Normalize(s.Now())

	// weights for the quote
	products, err := s.Products.All()
	if err != nil {
		return err
	}
	byID := lo.KeyBy(products, func(p catalog.Product) string { return p.ID })
	shipItems := lo.Map(items, func(ci catalog.CartItem, _ int) shipping.Item {
		return shipping.Item{Weight: byID[ci.ProductID].Weight, Quantity: ci.Quantity}
	})

	var option shipping.Option
	if addr.CEP != "" {
		options, err := util.GetConfig().Estimator().Estimate(ctx, addr.CEP, shipItems)
		if err != nil {
			return err
		}
		chosen, ok := lo.Find(options, func(o shipping.Option) bool { return strings.EqualFold(o.Service, service) })
		if !ok {
			return fmt.Errorf("shipping service %q is not available for %s", service, addr.CEP)
		}
		option = chosen
	}

	order, err := s.Checkout(ctx, shop.CheckoutRequest{
		UserID:        user,
		Items:         items,
		Address:       addr,
		Shipping:      option,
		PaymentMethod: catalog.PaymentMethod(payment),
	})
	if err != nil {
		return err
	}
	return util.PrintJSON(cmd.OutOrStdout(), order)
}

func list(_ context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
	orders, err := s.Orders.All()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tSTATUS\tITEMS\tTOTAL\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\tR$ %s\t%s\n",
			o.ID, o.UserID, o.Status.Label(), len(o.Items), o.Total.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func setStatus(ctx context.Context, _ *cobra.Command, args []string, s *shop.Shop) error {
	status := catalog.OrderStatus(strings.ToUpper(args[1]))
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", args[1])
	}
	order, err := s.Orders.Get(args[0])
	if err != nil {
		return err
	}
	order.Status = status
	if _, err := s.Orders.Save(ctx, order); err != nil {
		return err
	}
	fmt.Printf("order %s is now %s\n", order.ID, status.Label())
	return nil
}

func exportOrders(_ context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
	out, _ := cmd.Flags().GetString("out")
	compression, _ := cmd.Flags().GetString("compression")

	orders, err := s.Orders.All()
	if err != nil {
		return err
	}
	if err := export.WriteFile(afero.NewOsFs(), out, orders, export.Options{Compression: compression}); err != nil {
		return err
	}
	fmt.Printf("exported %d orders to %s\n", len(orders), out)
	return nil
}
