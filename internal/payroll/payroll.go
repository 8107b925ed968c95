// Package payroll implements the per-musician payment allocation for a
// concert: fixed and variable fee deductions, finder commission, seniority
// bonuses, equal-share distribution and inter-musician instrument rentals.
package payroll

import (
	"fmt"

	"tesoreria/internal/core"
)

// Allocation constants, in euros.
const (
	CarFeePerCar          = 10.0
	SeniorityBonusPerYear = 2.0
	FinderCommissionRate  = 0.10
	BacklineThreshold     = 1300.0
	BacklineFeeLow        = 20.0
	BacklineFeeHigh       = 30.0
)

// VerifyTolerance is the aggregate rounding drift accepted by Verify,
// in euros (less than one cent per musician for the usual roster sizes).
const VerifyTolerance = 0.1

// Calculate computes the full payroll breakdown for one concert. It is a pure
// function: deterministic for given inputs, no state, no side effects.
//
// Preconditions are checked explicitly so a misuse surfaces as a typed error
// instead of NaN amounts: the roster must be non-empty and every monetary
// field non-negative. A negative AmountToDistribute is NOT an error; it
// signals an overcommitted payroll and is surfaced verbatim in the result.
func Calculate(input core.PayrollInput, musicians []core.Musician) (*core.PayrollResult, error) {
	if len(musicians) == 0 {
		return nil, core.ErrNoMusicians
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Step 1: backline fee tiers on gross revenue.
	backlineFee := BacklineFeeLow
	if input.GrossAmount > BacklineThreshold {
		backlineFee = BacklineFeeHigh
	}

	// Step 2: car fees. NumberOfCars is the actual driver count, recomputed
	// by the caller from the driver list.
	carFees := float64(input.NumberOfCars) * CarFeePerCar

	// Steps 3-4: total fees, then the remainder. Not clamped: a negative
	// remainder is the caller's signal that fees exceed gross.
	totalFees := backlineFee + input.PersonalBacklineAmount + carFees + input.AdditionalTravelFees
	amountAfterFees := input.GrossAmount - totalFees

	// Steps 5-6: finder commission off the post-fee amount.
	finderCommission := core.Round2(amountAfterFees * FinderCommissionRate)
	amountAfterFinderCommission := amountAfterFees - finderCommission

	// Steps 7-8: seniority bonuses, uncapped.
	totalSeniorityBonus := 0.0
	for _, m := range musicians {
		totalSeniorityBonus += float64(m.SeniorityYears) * SeniorityBonusPerYear
	}
	amountToDistribute := amountAfterFinderCommission - totalSeniorityBonus

	// Step 9: equal share.
	equalShare := core.Round2(amountToDistribute / float64(len(musicians)))

	// Step 10: per-musician totals.
	payments := make([]core.MusicianPayment, 0, len(musicians))
	for _, m := range musicians {
		p := core.MusicianPayment{
			Name:           m.Name,
			EqualShare:     equalShare,
			SeniorityBonus: float64(m.SeniorityYears) * SeniorityBonusPerYear,
		}
		if input.FinderName == m.Name {
			p.FinderCommission = finderCommission
		}
		if isDriver(input.Drivers, m.Name) {
			p.CarAllowance = CarFeePerCar
		}
		if input.PersonalBacklineOwner == m.Name {
			p.PersonalBackline = input.PersonalBacklineAmount
		}
		for _, r := range input.InstrumentRentals {
			if r.OwnerName == m.Name {
				p.InstrumentRentalIncome += r.Amount
			}
			if r.RenterName == m.Name {
				p.InstrumentRentalExpense += r.Amount
			}
		}
		p.Total = core.Round2(p.EqualShare + p.SeniorityBonus + p.FinderCommission +
			p.CarAllowance + p.PersonalBackline +
			p.InstrumentRentalIncome - p.InstrumentRentalExpense)
		payments = append(payments, p)
	}

	return &core.PayrollResult{
		GrossAmount:          input.GrossAmount,
		TotalFees:            totalFees,
		BacklineFee:          backlineFee,
		CarFees:              carFees,
		PersonalBacklineFee:  input.PersonalBacklineAmount,
		AdditionalTravelFees: input.AdditionalTravelFees,
		AmountAfterFees:      amountAfterFees,
		FinderCommission:     finderCommission,
		TotalSeniorityBonus:  totalSeniorityBonus,
		AmountToDistribute:   amountToDistribute,
		EqualSharePerPerson:  equalShare,
		Payments:             payments,
	}, nil
}

// ActualDrivers extracts the driver names from the roster flags, in roster
// order. The raw car-count form field is always overridden by the length of
// this list before Calculate is invoked.
func ActualDrivers(musicians []core.Musician, driverFlags map[string]bool) []string {
	var drivers []string
	for _, m := range musicians {
		if driverFlags[m.Name] {
			drivers = append(drivers, m.Name)
		}
	}
	return drivers
}

// Verify reports whether musician totals plus the collective backline fee
// reconcile with the gross amount within VerifyTolerance. It is advisory
// only: it never mutates the result or blocks computation.
func Verify(result *core.PayrollResult) bool {
	totalPaid := 0.0
	for _, p := range result.Payments {
		totalPaid += p.Total
	}
	diff := result.GrossAmount - (totalPaid + result.BacklineFee)
	if diff < 0 {
		diff = -diff
	}
	return diff < VerifyTolerance
}

func isDriver(drivers []string, name string) bool {
	for _, d := range drivers {
		if d == name {
			return true
		}
	}
	return false
}

// Summary renders a one-line human summary for logs.
func Summary(result *core.PayrollResult) string {
	return fmt.Sprintf("gross=%s fees=%s distribute=%s share=%s musicians=%d",
		core.FormatEuros(result.GrossAmount),
		core.FormatEuros(result.TotalFees),
		core.FormatEuros(result.AmountToDistribute),
		core.FormatEuros(result.EqualSharePerPerson),
		len(result.Payments))
}
