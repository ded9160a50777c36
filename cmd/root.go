package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dShop/cmd/catalog"
	"github.com/ValentinKolb/dShop/cmd/kv"
	"github.com/ValentinKolb/dShop/cmd/order"
	"github.com/ValentinKolb/dShop/cmd/ship"
	"github.com/ValentinKolb/dShop/cmd/table"
	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.4.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dshop",
		Short: "storefront catalogue store",
		Long: fmt.Sprintf(`dShop (v%s)

The catalogue, order and settings store of the Supritec storefront.
All data lives in one snapshot file; the tables are seeded on first use.

Configuration is read from flags, a config file (--config) and DSHOP_*
environment variables (e.g. DSHOP_DATA_FILE=/var/lib/dshop/shop.db).`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dShop",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dShop v%s\n", Version)
		},
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(util.GetConfig().String())
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Flags
	util.SetupFlags(RootCmd)
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	// Add Commands
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(seedCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(settingsCmd)
	RootCmd.AddCommand(catalog.CatalogCommands)
	RootCmd.AddCommand(table.TableCommands)
	RootCmd.AddCommand(order.OrderCommands)
	RootCmd.AddCommand(ship.ShipCommands)
	RootCmd.AddCommand(kv.KeyValueCommands)
}

// setup binds the flags of the executed command and installs the logger
func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return logging.Init(viper.GetString("log-level"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
