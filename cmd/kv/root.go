package kv

import (
	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/lib/store"
	"github.com/spf13/cobra"
)

var (
	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:   "kv",
		Short: "Raw access to the storage slots",
		Long: util.WrapString(`Raw access to the storage slots. Keys are full storage keys
including the prefix (e.g. supritec_products). Writes bypass validation
and table locks.`),
	}
)

func init() {
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(keysCmd)

	getCmd.Flags().String("path", "", util.WrapString("gjson path to select from the value (e.g. 0.name or #.id)"))
}

// withStore opens the data store (without seeding) for fn
func withStore(fn func(cmd *cobra.Command, args []string, s store.IStore) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		sh, err := shop.Open(util.GetConfig().ShopConfig())
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := sh.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		return fn(cmd, args, sh.Store())
	}
}
