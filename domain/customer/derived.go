package customer

// Derived is a Record extended with the computed attributes every
// downstream stage consumes. Derivation is a pure function of the record
// and the derivation rules; applying it twice yields the same value.
type Derived struct {
	Record

	TenureGroup    string `json:"tenure_group"`
	ChargeCategory string `json:"charge_category"`
	FamilySize     int    `json:"family_size"`

	IsNewCustomer     bool `json:"is_new_customer"`
	IsLongTerm        bool `json:"is_long_term"`
	IsMonthlyContract bool `json:"is_monthly_contract"`
	UsesManualPayment bool `json:"uses_manual_payment"`

	// ChargeRatio compares reported revenue against the charge-times-tenure
	// estimate; values near 1 indicate consistent billing history.
	ChargeRatio float64 `json:"charge_ratio"`
	// RevenueEstimate is MonthlyCharge * TenureMonths
	RevenueEstimate float64 `json:"revenue_estimate"`
}

// Rules carries the derivation thresholds. All of them are configuration
// constants, never computed from the dataset.
type Rules struct {
	TenureBuckets Buckets `json:"tenure_buckets"`
	ChargeBuckets Buckets `json:"charge_buckets"`
	// NewCustomerMaxTenure is inclusive: tenure <= max is a new customer
	NewCustomerMaxTenure int `json:"new_customer_max_tenure"`
	// LongTermMinTenure is exclusive: tenure > min is long term
	LongTermMinTenure int `json:"long_term_min_tenure"`
}

// DefaultRules returns the derivation thresholds used across reports
func DefaultRules() Rules {
	return Rules{
		TenureBuckets:        DefaultTenureBuckets(),
		ChargeBuckets:        DefaultChargeBuckets(),
		NewCustomerMaxTenure: 6,
		LongTermMinTenure:    24,
	}
}

// Validate checks every threshold before any row is processed
func (r Rules) Validate() error {
	if err := r.TenureBuckets.Validate(); err != nil {
		return err
	}
	if err := r.ChargeBuckets.Validate(); err != nil {
		return err
	}
	return nil
}

// Derive computes the full derived record. Total function, no error path:
// rule validation happens once at configuration time.
func (r Rules) Derive(rec Record) Derived {
	return Derived{
		Record:            rec,
		TenureGroup:       r.TenureBuckets.Assign(float64(rec.TenureMonths)),
		ChargeCategory:    r.ChargeBuckets.Assign(rec.MonthlyCharge),
		FamilySize:        rec.FamilySize(),
		IsNewCustomer:     rec.TenureMonths <= r.NewCustomerMaxTenure,
		IsLongTerm:        rec.TenureMonths > r.LongTermMinTenure,
		IsMonthlyContract: rec.ContractType == ContractMonthToMonth,
		UsesManualPayment: rec.PaymentMethod.IsManual(),
		ChargeRatio:       rec.TotalRevenue / (rec.MonthlyCharge*float64(rec.TenureMonths) + 1),
		RevenueEstimate:   rec.MonthlyCharge * float64(rec.TenureMonths),
	}
}
