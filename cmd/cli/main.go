package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/edufinance/internal/adapter/http/dto"
	"github.com/iho/edufinance/internal/adapter/report"
)

type options struct {
	baseURL string
	timeout time.Duration
}

func (o *options) client() *apiClient {
	return newAPIClient(o.baseURL, o.timeout)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "edufinance-cli",
		Short:         "EduFinance CLI tool",
		Long:          `A command line interface for the EduFinance school ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the EduFinance API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(
		transactionsCmd(opts),
		summaryCmd(opts),
		exportCmd(opts),
		ledgerCmd(opts),
	)

	return rootCmd
}

// periodFlags are the shared --mode/--month/--start/--end filters.
type periodFlags struct {
	mode, month, start, end string
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.mode, "mode", "all", "Period mode: all, month or range")
	cmd.Flags().StringVar(&p.month, "month", "", "Month for --mode month (YYYY-MM, default current)")
	cmd.Flags().StringVar(&p.start, "start", "", "First day for --mode range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p.end, "end", "", "Last day for --mode range (YYYY-MM-DD)")
}

func (p *periodFlags) query() url.Values {
	q := url.Values{}
	for k, v := range map[string]string{"mode": p.mode, "month": p.month, "start": p.start, "end": p.end} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

func transactionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Transaction operations",
	}

	var period periodFlags
	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the transactions of a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.client().ListTransactions(cmd.Context(), period.query())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), view)
			}
			printView(cmd.OutOrStdout(), view)
			return nil
		},
	}
	period.register(listCmd)
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")

	var req dto.TransactionRequest
	var amount, idempotencyKey string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Amount = json.Number(amount)
			tx, err := opts.client().CreateTransaction(cmd.Context(), req, idempotencyKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s: %s %s %s\n", tx.ID, tx.Type, report.Money(tx.Amount), tx.Course)
			return nil
		},
	}
	addCmd.Flags().StringVar(&req.Date, "date", time.Now().Format("2006-01-02"), "Date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&req.Type, "type", "", "INCOME or EXPENSE")
	addCmd.Flags().StringVar(&req.Course, "course", "", "Course (income) or category (expense)")
	addCmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 1500.50")
	addCmd.Flags().StringVar(&req.Method, "method", "CASH", "CASH, TRANSFER or OTHER")
	addCmd.Flags().StringVar(&req.Description, "description", "", "Free text description")
	addCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("amount")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().DeleteTransaction(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, deleteCmd)
	return cmd
}

func summaryCmd(opts *options) *cobra.Command {
	var period periodFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the totals of a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := opts.client().Summary(cmd.Context(), period.query())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Period: %s\n", summary.Label)
			printSummary(out, summary.Summary)

			if len(summary.Breakdown) > 0 {
				fmt.Fprintln(out)
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "COURSE/CATEGORY\tINCOME\tEXPENSE\tCOUNT")
				for _, lt := range summary.Breakdown {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", lt.Label, report.Money(lt.Income), report.Money(lt.Expense), lt.Count)
				}
				_ = w.Flush()
			}
			return nil
		},
	}
	period.register(cmd)
	return cmd
}

func exportCmd(opts *options) *cobra.Command {
	var period periodFlags
	var out string
	cmd := &cobra.Command{
		Use:       "export <pdf|xlsx>",
		Short:     "Download a report",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"pdf", "xlsx"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, filename, err := opts.client().Export(cmd.Context(), args[0], period.query())
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Base(filename)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	period.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to the server's filename)")
	return cmd
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare the live ledger with its stored copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.client().Reconcile(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Live: %d  Stored: %d\n", result.LiveCount, result.StoredCount)
			if result.IsReconciled {
				fmt.Fprintln(out, "Reconciliation PASSED")
				return nil
			}

			for _, id := range result.MissingStored {
				fmt.Fprintf(out, "  not stored: %s\n", id)
			}
			for _, id := range result.MissingLive {
				fmt.Fprintf(out, "  not live:   %s\n", id)
			}
			for _, id := range result.Changed {
				fmt.Fprintf(out, "  changed:    %s\n", id)
			}
			return fmt.Errorf("reconciliation FAILED")
		},
	}

	cmd.AddCommand(reconcileCmd)
	return cmd
}

func printView(out io.Writer, view *dto.ViewResponse) {
	fmt.Fprintf(out, "Period: %s\n\n", view.Period.Label)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tCOURSE\tMETHOD\tAMOUNT\tDESCRIPTION")
	for _, tx := range view.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Type, tx.Course, tx.Method, report.Money(tx.Amount), truncate(tx.Description, 40))
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	printSummary(out, view.Summary)
}

func printSummary(out io.Writer, s dto.SummaryResponse) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Income:\t%s\n", report.Money(s.TotalIncome))
	fmt.Fprintf(w, "Expenses:\t%s\n", report.Money(s.TotalExpense))
	fmt.Fprintf(w, "Balance:\t%s\n", report.Money(s.NetBalance))
	fmt.Fprintf(w, "Cash:\t%s\n", report.Money(s.CashBalance))
	fmt.Fprintf(w, "Transfer:\t%s\n", report.Money(s.TransferBalance))
	fmt.Fprintf(w, "Transactions:\t%d\n", s.Count)
	_ = w.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

