package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/ledger"
	"github.com/Veraticus/feeledger/internal/model"
)

func countersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counters",
		Short: "Show the Counter sheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, _, release, err := openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			counters, err := l.Counters(cmd.Context())
			if err != nil {
				return err
			}
			printCounters(cmd.OutOrStdout(), counters)
			return nil
		},
	}

	cmd.AddCommand(countersInitCmd())
	return cmd
}

func countersInitCmd() *cobra.Command {
	var seed ledger.CounterSeed

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Seed the Counter sheet of a new spreadsheet",
		Long: `Seed the Counter sheet: B1 last admission number, B2 last bill number,
B3 last student row and B4 last fee-log row.

The first admitted student receives --admission-start + 1 and is written to --first-row.
Existing counters are kept unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, _, release, err := openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			return runCountersInit(cmd.Context(), l, seed, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&seed.AdmissionStart, "admission-start", 0, "last admission number already issued")
	cmd.Flags().IntVar(&seed.FirstRow, "first-row", model.FirstDataRow, "first data row on the Students and FeeLogs sheets")
	cmd.Flags().BoolVar(&seed.Force, "force", false, "overwrite counters that already hold values")

	return cmd
}

func runCountersInit(ctx context.Context, l *ledger.Service, seed ledger.CounterSeed, w io.Writer) error {
	counters, err := l.InitCounters(ctx, seed)
	if errors.Is(err, ledger.ErrCountersSeeded) {
		return common.NewUserError("rerun with --force to overwrite the Counter sheet", err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Counters initialized.")
	printCounters(w, counters)
	return nil
}

func printCounters(w io.Writer, c model.Counters) {
	fmt.Fprintf(w, "%-24s %d\n", "Last admission number:", c.LastAdmNo)
	fmt.Fprintf(w, "%-24s %d\n", "Last bill number:", c.LastBillNo)
	fmt.Fprintf(w, "%-24s %d\n", "Last student row:", c.LastStudentRow)
	fmt.Fprintf(w, "%-24s %d\n", "Last fee-log row:", c.LastFeeLogRow)
}
