package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"github.com/iwvelando/use-of-proceeds/pkg/format"
	"github.com/iwvelando/use-of-proceeds/pkg/loans"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type paymentOptions struct {
	principal float64
	rate      float64
	years     int
	months    int
	schedule  bool
}

// amortizationMonths prefers an explicit month count over the term in years.
func (o paymentOptions) amortizationMonths() int {
	if o.months > 0 {
		return o.months
	}
	return o.years * constants.MonthsPerYear
}

func (o paymentOptions) validate() error {
	switch {
	case o.principal <= 0:
		return errors.New("principal must be greater than 0")
	case o.rate < 0:
		return errors.New("interest rate cannot be negative")
	case o.amortizationMonths() <= 0:
		return errors.New("either --years or --months must be greater than 0")
	}
	return nil
}

func newPaymentCmd() *cobra.Command {
	var opts paymentOptions

	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Calculate the payment for a fixed-rate loan",
		Example: "  use-of-proceeds payment --principal 250000 --rate 6 --years 10\n" +
			"  use-of-proceeds payment --principal 50000 --rate 7.25 --months 84 --schedule",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			months := opts.amortizationMonths()
			payment := loans.CalculateLoanPayment(opts.principal, opts.rate, months)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Principal:       %s\n", format.Currency(opts.principal))
			fmt.Fprintf(out, "Interest rate:   %s\n", format.Percent(opts.rate))
			fmt.Fprintf(out, "Amortization:    %d months\n", months)
			fmt.Fprintf(out, "Monthly payment: %s\n", cents(payment.MonthlyPayment))
			fmt.Fprintf(out, "Annual payment:  %s\n", cents(payment.AnnualPayment))

			if !opts.schedule {
				return nil
			}
			schedule := loans.NewAmortizationScheduleGenerator(nil).GenerateSchedule(opts.principal, opts.rate, months)
			fmt.Fprintf(out, "Total interest:  %s\n", cents(loans.TotalInterest(schedule)))
			fmt.Fprintln(out, renderSchedule(schedule))
			return nil
		},
	}

	cmd.Flags().Float64Var(&opts.principal, "principal", 0, "loan principal in dollars")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "annual interest rate in percent, e.g. 6.5")
	cmd.Flags().IntVar(&opts.years, "years", 0, "term in years")
	cmd.Flags().IntVar(&opts.months, "months", 0, "amortization in months (overrides --years)")
	cmd.Flags().BoolVar(&opts.schedule, "schedule", false, "print the month-by-month amortization schedule")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}

// cents renders a dollar amount with two decimals, e.g. "$2775.51".
func cents(amount float64) string {
	return "$" + decimal.NewFromFloat(amount).StringFixed(2)
}

func renderSchedule(schedule []loans.Payment) string {
	rows := make([][]string, 0, len(schedule))
	for _, p := range schedule {
		rows = append(rows, []string{
			strconv.Itoa(p.Month),
			cents(p.Payment),
			cents(p.Principal),
			cents(p.Interest),
			cents(p.RemainingPrincipal),
		})
	}
	right := lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Month", "Payment", "Principal", "Interest", "Remaining").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return right.Bold(true)
			}
			return right
		}).
		String()
}
