// Package interest computes simple interest on an outstanding principal
// using a day-prorated monthly rate.
package interest

import (
	"errors"
	"fmt"

	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidDateRange means the end date precedes the start date.
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrNegativeAmount means the amount or rate is negative.
	ErrNegativeAmount = errors.New("negative amount")
)

var (
	hundred      = decimal.NewFromInt(100)
	daysPerMonth = decimal.NewFromInt(30)
)

// Calculate computes simple interest owed on amount between startDate and
// endDate at monthlyRate percent per 30-day month.
//
// Day count is exclusive of the start day and inclusive of the end day, so
// 2024-01-01 to 2024-01-31 is 30 days and charges exactly one month of
// interest. The interest is rounded half-up to 2 decimals once, at the end;
// the returned total is amount plus the rounded interest.
func Calculate(amount, monthlyRate decimal.Decimal, startDate, endDate models.Date) (models.Calculation, error) {
	if amount.IsNegative() {
		return models.Calculation{}, fmt.Errorf("%w: amount %s must not be negative", ErrNegativeAmount, amount)
	}
	if monthlyRate.IsNegative() {
		return models.Calculation{}, fmt.Errorf("%w: monthly rate %s must not be negative", ErrNegativeAmount, monthlyRate)
	}
	if endDate.Before(startDate.Time) {
		return models.Calculation{}, fmt.Errorf("%w: end date %s precedes start date %s", ErrInvalidDateRange, endDate, startDate)
	}

	days := startDate.DaysUntil(endDate)
	dailyRate := monthlyRate.Div(hundred).Div(daysPerMonth)
	interest := amount.Mul(dailyRate).Mul(decimal.NewFromInt(int64(days))).Round(2)

	return models.Calculation{
		Amount:         amount,
		MonthlyRate:    monthlyRate,
		StartDate:      startDate,
		EndDate:        endDate,
		DaysCalculated: days,
		Interest:       interest,
		TotalAmount:    amount.Add(interest),
	}, nil
}
