package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Read and write the store settings",
	}
	settingsGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Print the store settings",
		Args:  cobra.NoArgs,
		RunE: util.ShopRunE(func(_ context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
			settings, err := s.StoreSettings()
			if err != nil {
				return err
			}
			if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()
				return enc.Encode(settings)
			}
			return util.PrintJSON(cmd.OutOrStdout(), settings)
		}),
	}
	settingsSetCmd = &cobra.Command{
		Use:   "set",
		Short: "Replace the store settings with a JSON or YAML document",
		Args:  cobra.NoArgs,
		RunE: util.ShopRunE(func(ctx context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
			data, err := readInput(cmd)
			if err != nil {
				return err
			}

			var settings catalog.StoreSettings
			if json.Valid(data) {
				err = json.Unmarshal(data, &settings)
			} else {
				err = yaml.Unmarshal(data, &settings)
			}
			if err != nil {
				return fmt.Errorf("decode settings: %w", err)
			}

			if err := s.SaveStoreSettings(ctx, settings); err != nil {
				return err
			}
			fmt.Println("settings saved")
			return nil
		}),
	}
)

func init() {
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	settingsGetCmd.Flags().Bool("yaml", false, util.WrapString("Print YAML instead of JSON"))
	settingsSetCmd.Flags().String("file", "", util.WrapString("File to read (default stdin)"))
}

func readInput(cmd *cobra.Command) ([]byte, error) {
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		return os.ReadFile(file)
	}
	return io.ReadAll(cmd.InOrStdin())
}
