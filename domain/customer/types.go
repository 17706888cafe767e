package customer

import (
	"fmt"
	"strings"

	"churnscope/domain/core"
)

// ContractType enumerates the contract terms offered to customers.
// Canonical forms match the source dataset literals so grouped reports
// read the same as the upstream system.
type ContractType string

const (
	ContractMonthToMonth ContractType = "Month-to-month"
	ContractOneYear      ContractType = "One year"
	ContractTwoYear      ContractType = "Two year"
)

// ContractTypes lists every valid contract in a stable order
func ContractTypes() []ContractType {
	return []ContractType{ContractMonthToMonth, ContractOneYear, ContractTwoYear}
}

// ParseContractType normalizes a raw cell into a ContractType. Both the
// dataset literals ("Month-to-month") and kebab-case tokens
// ("month-to-month") are accepted.
func ParseContractType(s string) (ContractType, error) {
	switch normalizeToken(s) {
	case "month-to-month", "monthly":
		return ContractMonthToMonth, nil
	case "one-year", "1-year":
		return ContractOneYear, nil
	case "two-year", "2-year":
		return ContractTwoYear, nil
	}
	return "", fmt.Errorf("unrecognized contract type %q", s)
}

func (c ContractType) String() string { return string(c) }

// PaymentMethod enumerates how a customer pays
type PaymentMethod string

const (
	PaymentElectronicCheck PaymentMethod = "Electronic check"
	PaymentMailedCheck     PaymentMethod = "Mailed check"
	PaymentBankTransfer    PaymentMethod = "Bank transfer (automatic)"
	PaymentCreditCard      PaymentMethod = "Credit card (automatic)"
)

// PaymentMethods lists every valid payment method in a stable order
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentElectronicCheck,
		PaymentMailedCheck,
		PaymentBankTransfer,
		PaymentCreditCard,
	}
}

// ParsePaymentMethod normalizes a raw cell into a PaymentMethod
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch normalizeToken(s) {
	case "electronic-check":
		return PaymentElectronicCheck, nil
	case "mailed-check":
		return PaymentMailedCheck, nil
	case "bank-transfer-(automatic)", "bank-transfer-auto", "bank-transfer":
		return PaymentBankTransfer, nil
	case "credit-card-(automatic)", "credit-card-auto", "credit-card":
		return PaymentCreditCard, nil
	}
	return "", fmt.Errorf("unrecognized payment method %q", s)
}

func (p PaymentMethod) String() string { return string(p) }

// IsManual reports whether the method requires action from the customer
// each billing cycle. Manual payers churn at a higher rate, so this feeds
// the composite risk score.
func (p PaymentMethod) IsManual() bool {
	return p == PaymentElectronicCheck || p == PaymentMailedCheck
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}

// MaxServices is the number of service columns counted into NumServices
const MaxServices = 8

// Record is the atomic customer entity. Immutable once loaded; one
// instance per unique customer ID.
type Record struct {
	ID            core.CustomerID `json:"customer_id"`
	TenureMonths  int             `json:"tenure_months"`
	MonthlyCharge float64         `json:"monthly_charge"`
	// TotalRevenue is the reported lifetime revenue from the source
	// system. It should approximate MonthlyCharge * TenureMonths; the
	// quality pass measures how far it drifts.
	TotalRevenue     float64       `json:"total_revenue"`
	ContractType     ContractType  `json:"contract_type"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	NumServices      int           `json:"num_services"`
	Churned          bool          `json:"churned"`
	IsSenior         bool          `json:"is_senior"`
	HasPartner       bool          `json:"has_partner"`
	HasDependents    bool          `json:"has_dependents"`
	PaperlessBilling bool          `json:"paperless_billing"`
}

// Validate checks the record against its attribute domains
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID.String()) == "" {
		return fmt.Errorf("customer_id is empty")
	}
	if r.TenureMonths < 0 {
		return fmt.Errorf("tenure_months is negative (%d)", r.TenureMonths)
	}
	if r.MonthlyCharge < 0 {
		return fmt.Errorf("monthly_charge is negative (%.2f)", r.MonthlyCharge)
	}
	if r.TotalRevenue < 0 {
		return fmt.Errorf("total_revenue is negative (%.2f)", r.TotalRevenue)
	}
	if r.NumServices < 0 || r.NumServices > MaxServices {
		return fmt.Errorf("num_services %d outside [0, %d]", r.NumServices, MaxServices)
	}
	if _, err := ParseContractType(string(r.ContractType)); err != nil {
		return err
	}
	if _, err := ParsePaymentMethod(string(r.PaymentMethod)); err != nil {
		return err
	}
	return nil
}

// Digest renders the record as a stable line for snapshot fingerprinting.
// Field order is fixed; changing any attribute changes the digest.
func (r Record) Digest() string {
	return fmt.Sprintf("%s|%d|%.2f|%.2f|%s|%s|%d|%t|%t|%t|%t|%t",
		r.ID, r.TenureMonths, r.MonthlyCharge, r.TotalRevenue,
		r.ContractType, r.PaymentMethod, r.NumServices,
		r.Churned, r.IsSenior, r.HasPartner, r.HasDependents, r.PaperlessBilling)
}

// FamilySize counts partner plus dependents, 0-2
func (r Record) FamilySize() int {
	size := 0
	if r.HasPartner {
		size++
	}
	if r.HasDependents {
		size++
	}
	return size
}

// Snapshot is an immutable collection of records plus its fingerprint.
// Every pipeline run reads exactly one snapshot and never mutates it.
type Snapshot struct {
	ID      core.SnapshotID   `json:"id"`
	Records []Record          `json:"records"`
	Hash    core.SnapshotHash `json:"hash"`
}

// NewSnapshot builds a snapshot and fingerprints its rows. Duplicate
// customer IDs are a schema violation, reported with both positions.
func NewSnapshot(id core.SnapshotID, records []Record) (*Snapshot, error) {
	if len(records) == 0 {
		return nil, core.ErrEmptySnapshot
	}

	keys := make([]string, 0, len(records))
	digests := make(map[string]string, len(records))
	seen := make(map[core.CustomerID]int, len(records))
	for i, rec := range records {
		if prev, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("%w: %s at rows %d and %d", core.ErrDuplicateKey, rec.ID, prev+1, i+1)
		}
		seen[rec.ID] = i
		keys = append(keys, rec.ID.String())
		digests[rec.ID.String()] = rec.Digest()
	}

	return &Snapshot{
		ID:      id,
		Records: records,
		Hash:    core.ComputeSnapshotHash(keys, digests),
	}, nil
}

// Size returns the population count
func (s *Snapshot) Size() int {
	return len(s.Records)
}

// ActiveCount returns how many customers have not churned
func (s *Snapshot) ActiveCount() int {
	n := 0
	for _, rec := range s.Records {
		if !rec.Churned {
			n++
		}
	}
	return n
}

// ChurnedCount returns how many customers have churned
func (s *Snapshot) ChurnedCount() int {
	return len(s.Records) - s.ActiveCount()
}
