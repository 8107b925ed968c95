// Package services orchestrates the domain components: payroll runs on one
// side, ledger mutations plus export-event publishing on the other.
package services

import (
	"context"
	"log/slog"

	"tesoreria/internal/core"
	"tesoreria/internal/payroll"
)

// PayrollRequest is one payroll run as submitted by the caller: the raw
// input fields plus the roster with driver flags.
type PayrollRequest struct {
	GrossAmount            float64                 `json:"grossAmount"`
	AdditionalTravelFees   float64                 `json:"additionalTravelFees"`
	FinderName             string                  `json:"finderName"`
	PersonalBacklineOwner  string                  `json:"personalBacklineOwner,omitempty"`
	PersonalBacklineAmount float64                 `json:"personalBacklineAmount"`
	Musicians              []RosterEntry           `json:"musicians"`
	InstrumentRentals      []core.InstrumentRental `json:"instrumentRentals,omitempty"`
}

// RosterEntry is a musician plus the per-run driver flag.
type RosterEntry struct {
	Name           string `json:"name"`
	SeniorityYears int    `json:"seniorityYears"`
	IsDriver       bool   `json:"isDriver"`
}

// PayrollOutcome pairs the allocation result with the advisory
// reconciliation verdict.
type PayrollOutcome struct {
	Result     *core.PayrollResult `json:"result"`
	Reconciled bool                `json:"reconciled"`
}

// PayrollService validates payroll requests and runs the allocator.
type PayrollService struct{}

func NewPayrollService() *PayrollService {
	return &PayrollService{}
}

// Run validates the request, applies the actual-drivers policy (the car
// count is always the number of flagged drivers, never a typed-in number),
// runs the allocator and attaches the reconciliation verdict.
func (s *PayrollService) Run(ctx context.Context, req PayrollRequest) (*PayrollOutcome, error) {
	musicians := make([]core.Musician, 0, len(req.Musicians))
	driverFlags := make(map[string]bool, len(req.Musicians))
	for _, m := range req.Musicians {
		musicians = append(musicians, core.Musician{Name: m.Name, SeniorityYears: m.SeniorityYears})
		driverFlags[m.Name] = m.IsDriver
	}
	drivers := payroll.ActualDrivers(musicians, driverFlags)

	input := core.PayrollInput{
		GrossAmount:            req.GrossAmount,
		AdditionalTravelFees:   req.AdditionalTravelFees,
		NumberOfCars:           len(drivers),
		Drivers:                drivers,
		FinderName:             req.FinderName,
		PersonalBacklineOwner:  req.PersonalBacklineOwner,
		PersonalBacklineAmount: req.PersonalBacklineAmount,
		InstrumentRentals:      req.InstrumentRentals,
	}

	result, err := payroll.Calculate(input, musicians)
	if err != nil {
		return nil, err
	}

	reconciled := payroll.Verify(result)
	if !reconciled {
		slog.WarnContext(ctx, "Payroll totals do not reconcile with gross amount",
			"gross_amount", result.GrossAmount,
			"summary", payroll.Summary(result))
	}
	slog.InfoContext(ctx, "Payroll computed",
		"gross_amount", result.GrossAmount,
		"musicians", len(result.Payments),
		"drivers", len(drivers),
		"reconciled", reconciled)

	return &PayrollOutcome{Result: result, Reconciled: reconciled}, nil
}
