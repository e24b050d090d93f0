// Package loans provides common loan processing utilities.
package loans

import (
	"math"

	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"github.com/iwvelando/use-of-proceeds/pkg/mathutil"
	"go.uber.org/zap"
)

// LoanPayment holds the periodic payments for a fixed-rate loan.
type LoanPayment struct {
	MonthlyPayment float64 `json:"monthly_payment"`
	AnnualPayment  float64 `json:"annual_payment"`
}

// Payment holds the values for a given month of an amortization schedule.
type Payment struct {
	Month              int     `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remaining_principal"`
}

// CalculateLoanPayment calculates the payments for a loan using the standard
// amortization formula. Degenerate inputs (non-positive principal or term,
// non-finite values) yield a zero payment rather than NaN or Inf.
func CalculateLoanPayment(principal, annualInterestRate float64, amortizationMonths int) LoanPayment {
	monthly := CalculateMonthlyPayment(principal, annualInterestRate, amortizationMonths)
	return LoanPayment{
		MonthlyPayment: monthly,
		AnnualPayment:  monthly * constants.MonthsPerYear,
	}
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 || !mathutil.IsFinite(principal) || principal <= 0 || !mathutil.IsFinite(annualInterestRate) {
		return 0
	}

	periodicInterestRate := PeriodicRate(annualInterestRate)
	if periodicInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	payment := principal * periodicInterestRate * power / (power - 1.00)
	if !mathutil.IsFinite(payment) {
		return 0
	}
	return payment
}

// PeriodicRate converts an annual percentage rate into a monthly rate.
func PeriodicRate(annualInterestRate float64) float64 {
	return annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * PeriodicRate(annualInterestRate)
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates the month-by-month amortization schedule for a
// loan. An empty schedule is returned when no payment is due.
func (g *AmortizationScheduleGenerator) GenerateSchedule(principal, annualInterestRate float64, amortizationMonths int) []Payment {
	monthlyPayment := CalculateMonthlyPayment(principal, annualInterestRate, amortizationMonths)
	if monthlyPayment == 0 {
		g.logger.Debug("no payment due, returning empty schedule",
			zap.String("op", "loans.GenerateSchedule"),
			zap.Float64("principal", principal),
			zap.Int("amortizationMonths", amortizationMonths),
		)
		return nil
	}

	schedule := make([]Payment, 0, amortizationMonths)
	remaining := principal
	for month := 1; month <= amortizationMonths; month++ {
		var current Payment
		current.Month = month
		current.Interest = CalculateInterestPayment(remaining, annualInterestRate)
		current.Payment = monthlyPayment
		current.Principal = monthlyPayment - current.Interest

		if month == amortizationMonths || mathutil.Round(remaining-current.Principal) <= 0 {
			// We will get machine error otherwise so settle the final balance exactly.
			current.Principal = remaining
			current.Payment = remaining + current.Interest
			current.RemainingPrincipal = 0
			schedule = append(schedule, current)
			break
		}

		current.RemainingPrincipal = remaining - current.Principal
		remaining = current.RemainingPrincipal
		schedule = append(schedule, current)
	}

	g.logger.Debug("generated amortization schedule",
		zap.String("op", "loans.GenerateSchedule"),
		zap.Int("payments", len(schedule)),
		zap.Float64("monthlyPayment", monthlyPayment),
	)
	return schedule
}

// TotalInterest sums the interest paid over a schedule.
func TotalInterest(schedule []Payment) float64 {
	total := 0.0
	for _, payment := range schedule {
		total += payment.Interest
	}
	return total
}
