package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/order-tracker/internal/export"
	"github.com/nhle/order-tracker/internal/store"
)

var (
	exportOut    string
	exportStatus string
	exportSeller string
	exportSource string

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write stored orders as CSV",
		RunE:  runExport,
	}
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "only orders with this status")
	exportCmd.Flags().StringVar(&exportSeller, "seller", "", "only orders from this seller")
	exportCmd.Flags().StringVar(&exportSource, "source-type", "", "only orders from this source type (gmail, imap, mbox)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	_, s, cleanup, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer cleanup()

	filter := store.OrderFilter{
		SortBy:   "source_date",
		SortDesc: true,
	}
	if exportStatus != "" {
		filter.Status = &exportStatus
	}
	if exportSeller != "" {
		filter.Seller = &exportSeller
	}
	if exportSource != "" {
		filter.SourceType = &exportSource
	}

	orders, err := s.GetOrders(cmd.Context(), filter)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	var f *os.File
	if exportOut != "" {
		f, err = os.Create(exportOut)
		if err != nil {
			return err
		}
		w = f
	}

	if err := export.WriteCSV(w, orders); err != nil {
		if f != nil {
			f.Close()
		}
		return err
	}

	if f != nil {
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "exported %d orders to %s\n", len(orders), exportOut)
	}
	return nil
}
