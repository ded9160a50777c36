package table

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/davecgh/go-spew/spew"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	// TableCommands represents the table command group
	TableCommands = &cobra.Command{
		Use:   "table",
		Short: "Read and write the records of a table",
		Long: util.WrapString("Read and write the records of a table. Tables: " +
			strings.Join(lo.Map(shop.Tables, func(t shop.Table, _ int) string { return string(t) }), ", ")),
	}
	listCmd = &cobra.Command{
		Use:   "list [table]",
		Short: "Print all records of a table",
		Args:  cobra.ExactArgs(1),
		RunE: util.ShopRunE(func(_ context.Context, cmd *cobra.Command, args []string, s *shop.Shop) error {
			t, err := s.Table(args[0])
			if err != nil {
				return err
			}
			records, err := t.Records()
			if err != nil {
				return err
			}
			return printRecord(cmd, records)
		}),
	}
	getCmd = &cobra.Command{
		Use:   "get [table] [id]",
		Short: "Print one record",
		Args:  cobra.ExactArgs(2),
		RunE: util.ShopRunE(func(_ context.Context, cmd *cobra.Command, args []string, s *shop.Shop) error {
			t, err := s.Table(args[0])
			if err != nil {
				return err
			}
			rec, err := t.Record(args[1])
			if err != nil {
				return err
			}
			return printRecord(cmd, rec)
		}),
	}
	putCmd = &cobra.Command{
		Use:   "put [table]",
		Short: "Insert or replace a record given as JSON",
		Long: util.WrapString(`Insert or replace a record given as JSON (--file or stdin).
A record with the same id is replaced as a whole, fields missing in the input
are cleared. Records without id get a new one.`),
		Args: cobra.ExactArgs(1),
		RunE: util.ShopRunE(func(ctx context.Context, cmd *cobra.Command, args []string, s *shop.Shop) error {
			t, err := s.Table(args[0])
			if err != nil {
				return err
			}
			data, err := readInput(cmd)
			if err != nil {
				return err
			}
			rec, err := t.SaveJSON(ctx, data)
			if err != nil {
				return err
			}
			return util.PrintJSON(cmd.OutOrStdout(), rec)
		}),
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [table] [id]",
		Short: "Delete a record (absent ids are ignored)",
		Args:  cobra.ExactArgs(2),
		RunE: util.ShopRunE(func(ctx context.Context, _ *cobra.Command, args []string, s *shop.Shop) error {
			t, err := s.Table(args[0])
			if err != nil {
				return err
			}
			if err := t.Delete(ctx, args[1]); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		}),
	}
	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "List references to deleted records",
		Args:  cobra.NoArgs,
		RunE: util.ShopRunE(func(_ context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
			refs, err := s.CheckReferences()
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no dangling references")
				return nil
			}
			for _, ref := range refs {
				fmt.Fprintln(cmd.OutOrStdout(), ref.String())
			}
			return nil
		}),
	}
)

func init() {
	TableCommands.AddCommand(listCmd)
	TableCommands.AddCommand(getCmd)
	TableCommands.AddCommand(putCmd)
	TableCommands.AddCommand(deleteCmd)
	TableCommands.AddCommand(checkCmd)

	for _, c := range []*cobra.Command{listCmd, getCmd} {
		c.Flags().Bool("dump", false, util.WrapString("Print a Go value dump instead of JSON"))
	}
	putCmd.Flags().String("file", "", util.WrapString("File to read (default stdin)"))
}

func printRecord(cmd *cobra.Command, v any) error {
	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
		cfg.Fdump(cmd.OutOrStdout(), v)
		return nil
	}
	return util.PrintJSON(cmd.OutOrStdout(), v)
}

func readInput(cmd *cobra.Command) ([]byte, error) {
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		return os.ReadFile(file)
	}
	return io.ReadAll(cmd.InOrStdin())
}
