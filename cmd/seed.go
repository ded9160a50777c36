package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the default data to every absent table",
	Long: util.WrapString(`Write the default data to every absent table and the settings slot.
Existing slots are never overwritten, so running seed twice is safe.`),
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		s, err := shop.Open(util.GetConfig().ShopConfig())
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := s.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		seeded, err := s.Seed(ctx)
		if err != nil {
			return err
		}
		if len(seeded) == 0 {
			fmt.Println("all slots present, nothing to seed")
			return nil
		}
		for _, slot := range seeded {
			fmt.Printf("seeded %s\n", s.Key(slot))
		}
		return nil
	},
}
