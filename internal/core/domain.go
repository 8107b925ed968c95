package core

import (
	"errors"
	"strings"
	"time"
)

// Payment methods as they appear on concert settlements, expense refunds
// and the derived transaction log. A concert payment is either handed over
// in cash or paid as a cachet (by bank transfer); deposits and concert
// revenue additionally distinguish plain bank transfers.
const (
	MethodCash     PaymentMethod = "cash"
	MethodCachet   PaymentMethod = "cachet"
	MethodTransfer PaymentMethod = "transfer"
)

type (
	PaymentMethod string

	// Musician is a roster entry for a payroll run. Identity is by name.
	Musician struct {
		Name           string `json:"name"`
		SeniorityYears int    `json:"seniorityYears"`
	}

	// InstrumentRental is a one-way debt inside a single payroll run: the
	// renter's total decreases by Amount, the owner's increases by it.
	InstrumentRental struct {
		RenterName string  `json:"renterName"`
		OwnerName  string  `json:"ownerName"`
		Amount     float64 `json:"amount"`
		Instrument string  `json:"instrument"`
	}

	// PayrollInput carries everything the allocator needs for one concert.
	// NumberOfCars is always the count of actual drivers; the service layer
	// recomputes it from Drivers before the allocator ever sees it.
	PayrollInput struct {
		GrossAmount            float64            `json:"grossAmount"`
		AdditionalTravelFees   float64            `json:"additionalTravelFees"`
		NumberOfCars           int                `json:"numberOfCars"`
		Drivers                []string           `json:"drivers"`
		FinderName             string             `json:"finderName"`
		PersonalBacklineOwner  string             `json:"personalBacklineOwner,omitempty"`
		PersonalBacklineAmount float64            `json:"personalBacklineAmount"`
		InstrumentRentals      []InstrumentRental `json:"instrumentRentals,omitempty"`
	}

	// MusicianPayment itemises one musician's share of a payroll run.
	MusicianPayment struct {
		Name                    string  `json:"name"`
		EqualShare              float64 `json:"equalShare"`
		SeniorityBonus          float64 `json:"seniorityBonus"`
		FinderCommission        float64 `json:"finderCommission"`
		CarAllowance            float64 `json:"carAllowance"`
		PersonalBackline        float64 `json:"personalBackline"`
		InstrumentRentalIncome  float64 `json:"instrumentRentalIncome"`
		InstrumentRentalExpense float64 `json:"instrumentRentalExpense"`
		Total                   float64 `json:"total"`
	}

	// PayrollResult is the full breakdown for a payroll run: run-level fee
	// aggregates plus one MusicianPayment per roster entry.
	PayrollResult struct {
		GrossAmount          float64           `json:"grossAmount"`
		TotalFees            float64           `json:"totalFees"`
		BacklineFee          float64           `json:"backlineFee"`
		CarFees              float64           `json:"carFees"`
		PersonalBacklineFee  float64           `json:"personalBacklineFee"`
		AdditionalTravelFees float64           `json:"additionalTravelFees"`
		AmountAfterFees      float64           `json:"amountAfterFees"`
		FinderCommission     float64           `json:"finderCommission"`
		TotalSeniorityBonus  float64           `json:"totalSeniorityBonus"`
		AmountToDistribute   float64           `json:"amountToDistribute"`
		EqualSharePerPerson  float64           `json:"equalSharePerPerson"`
		Payments             []MusicianPayment `json:"payments"`
	}

	// ConcertPayment is one musician's settlement entry embedded in a concert.
	ConcertPayment struct {
		MusicianName  string        `json:"musicianName"`
		Amount        float64       `json:"amount"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
		Paid          bool          `json:"paid"`
	}

	// Concert is a stored concert record with its embedded payment list.
	// TotalAmount and TotalDeposit are derived from the channel splits.
	Concert struct {
		ID                 int64            `json:"id"`
		Date               string           `json:"date"` // ISO YYYY-MM-DD
		Location           string           `json:"location"`
		CashAmount         float64          `json:"cashAmount"`
		BankTransferAmount float64          `json:"bankTransferAmount"`
		TotalAmount        float64          `json:"totalAmount"`
		DepositCash        float64          `json:"depositCash"`
		DepositTransfer    float64          `json:"depositTransfer"`
		TotalDeposit       float64          `json:"totalDeposit"`
		Payments           []ConcertPayment `json:"payments"`
		Notes              string           `json:"notes,omitempty"`
		CreatedAt          time.Time        `json:"createdAt"`
	}

	// Expense is money a musician fronted and is owed back.
	Expense struct {
		ID            int64         `json:"id"`
		Date          string        `json:"date"`
		Description   string        `json:"description"`
		Amount        float64       `json:"amount"`
		RefundedTo    string        `json:"refundedTo"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
		Refunded      bool          `json:"refunded"`
		Notes         string        `json:"notes,omitempty"`
		CreatedAt     time.Time     `json:"createdAt"`
	}

	// MusicianInvoice is a musician-submitted invoice amount, compared
	// against what the ledger computed they earned.
	MusicianInvoice struct {
		ID           int64     `json:"id"`
		MusicianName string    `json:"musicianName"`
		Date         string    `json:"date"`
		Description  string    `json:"description"`
		Amount       float64   `json:"amount"`
		Verified     bool      `json:"verified"`
		Notes        string    `json:"notes,omitempty"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// Snapshot bundles the three raw collections a single derived-view read
	// operates on. The storage layer fills it inside one read transaction so
	// a view never observes a torn multi-collection state.
	Snapshot struct {
		Concerts []Concert
		Expenses []Expense
		Invoices []MusicianInvoice
	}
)

var (
	ErrNoMusicians      = errors.New("musician roster is empty")
	ErrNegativeAmount   = errors.New("negative monetary amount")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyLocation    = errors.New("empty location")
	ErrEmptyName        = errors.New("empty musician name")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidMethod    = errors.New("payment method must be cash or cachet")
)

// ValidateISODate checks a YYYY-MM-DD date string. Dates are kept as
// zero-padded ISO strings so lexicographic order matches chronological order.
func ValidateISODate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// TotalAmounts fills the derived totals from the channel splits.
func (c *Concert) TotalAmounts() {
	c.TotalAmount = c.CashAmount + c.BankTransferAmount
	c.TotalDeposit = c.DepositCash + c.DepositTransfer
}

func (c Concert) Validate() error {
	if err := ValidateISODate(c.Date); err != nil {
		return err
	}
	if strings.TrimSpace(c.Location) == "" {
		return ErrEmptyLocation
	}
	if c.CashAmount < 0 || c.BankTransferAmount < 0 || c.DepositCash < 0 || c.DepositTransfer < 0 {
		return ErrNegativeAmount
	}
	for _, p := range c.Payments {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p ConcertPayment) Validate() error {
	if strings.TrimSpace(p.MusicianName) == "" {
		return ErrEmptyName
	}
	if p.Amount < 0 {
		return ErrNegativeAmount
	}
	if p.PaymentMethod != MethodCash && p.PaymentMethod != MethodCachet {
		return ErrInvalidMethod
	}
	return nil
}

func (e Expense) Validate() error {
	if err := ValidateISODate(e.Date); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.Amount < 0 {
		return ErrNegativeAmount
	}
	if strings.TrimSpace(e.RefundedTo) == "" {
		return ErrEmptyName
	}
	return nil
}

func (i MusicianInvoice) Validate() error {
	if err := ValidateISODate(i.Date); err != nil {
		return err
	}
	if strings.TrimSpace(i.MusicianName) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(i.Description) == "" {
		return ErrEmptyDescription
	}
	if i.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Validate rejects the inputs the allocator itself does not guard against.
func (in PayrollInput) Validate() error {
	if in.GrossAmount < 0 || in.AdditionalTravelFees < 0 || in.PersonalBacklineAmount < 0 {
		return ErrNegativeAmount
	}
	for _, r := range in.InstrumentRentals {
		if r.Amount < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}
