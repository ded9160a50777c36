package kv

import (
	"fmt"

	"github.com/ValentinKolb/dShop/lib/store"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the raw value of a key",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(_ *cobra.Command, args []string, s store.IStore) error {
			if err := s.Set(args[0], []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		}),
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the raw value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, s store.IStore) error {
			key := args[0]
			resp, ok, err := s.Get(key)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %s not found", key)
			}

			if path, _ := cmd.Flags().GetString("path"); path != "" {
				if !gjson.ValidBytes(resp) {
					return fmt.Errorf("value of %s is not JSON", key)
				}
				res := gjson.GetBytes(resp, path)
				if !res.Exists() {
					return fmt.Errorf("path %q matches nothing in %s", path, key)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.String())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", resp)
			return nil
		}),
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(_ *cobra.Command, args []string, s store.IStore) error {
			if err := s.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		}),
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(_ *cobra.Command, args []string, s store.IStore) error {
			ok, err := s.Has(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v\n", args[0], ok)
			return nil
		}),
	}
	keysCmd = &cobra.Command{
		Use:   "keys [prefix]",
		Short: "Lists the keys starting with prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, s store.IStore) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			keys, err := s.Keys(prefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		}),
	}
)
