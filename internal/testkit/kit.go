package testkit

import (
	"fmt"
	"math/rand"

	"churnscope/domain/core"
	"churnscope/domain/customer"
)

// GeneratorConfig configures the synthetic population generator
type GeneratorConfig struct {
	CustomerCount int   `json:"customer_count"`
	Seed          int64 `json:"seed"`
}

// DefaultGeneratorConfig returns a population large enough for the
// quintile and decile paths to be non-degenerate
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		CustomerCount: 1000,
		Seed:          42,
	}
}

// PopulationGenerator produces deterministic synthetic telco customers.
// The draws are correlated the way the real dataset is: month-to-month
// contracts and short tenures churn more, charges scale with service
// count, and reported revenue drifts slightly from charge times tenure.
type PopulationGenerator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewPopulationGenerator creates a generator with deterministic seeding
func NewPopulationGenerator(config GeneratorConfig) *PopulationGenerator {
	return &PopulationGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRecords produces the full synthetic population. The same seed
// always yields the same records in the same order.
func (g *PopulationGenerator) GenerateRecords() []customer.Record {
	records := make([]customer.Record, 0, g.config.CustomerCount)
	for i := 0; i < g.config.CustomerCount; i++ {
		records = append(records, g.generateCustomer(i))
	}
	return records
}

// GenerateSnapshot wraps the population in a fingerprinted snapshot
func (g *PopulationGenerator) GenerateSnapshot() (*customer.Snapshot, error) {
	return customer.NewSnapshot(core.SnapshotID(core.NewID()), g.GenerateRecords())
}

func (g *PopulationGenerator) generateCustomer(i int) customer.Record {
	contract := g.drawContract()
	tenure := g.drawTenure(contract)
	services := 1 + g.rng.Intn(customer.MaxServices)
	charge := g.drawMonthlyCharge(services)

	// Reported revenue drifts a few percent around charge*tenure, the
	// same kind of rounding residue the source billing system shows.
	expected := charge * float64(tenure)
	revenue := expected * (0.97 + 0.06*g.rng.Float64())
	if tenure == 0 {
		revenue = 0
	}

	return customer.Record{
		ID:               core.CustomerID(fmt.Sprintf("%04d-SYNTH%04d", 1000+i, i+1)),
		TenureMonths:     tenure,
		MonthlyCharge:    round2(charge),
		TotalRevenue:     round2(revenue),
		ContractType:     contract,
		PaymentMethod:    g.drawPayment(),
		NumServices:      services,
		Churned:          g.drawChurn(contract, tenure, charge),
		IsSenior:         g.rng.Float64() < 0.16,
		HasPartner:       g.rng.Float64() < 0.48,
		HasDependents:    g.rng.Float64() < 0.30,
		PaperlessBilling: g.rng.Float64() < 0.59,
	}
}

func (g *PopulationGenerator) drawContract() customer.ContractType {
	r := g.rng.Float64()
	switch {
	case r < 0.55:
		return customer.ContractMonthToMonth
	case r < 0.76:
		return customer.ContractOneYear
	default:
		return customer.ContractTwoYear
	}
}

func (g *PopulationGenerator) drawPayment() customer.PaymentMethod {
	r := g.rng.Float64()
	switch {
	case r < 0.34:
		return customer.PaymentElectronicCheck
	case r < 0.57:
		return customer.PaymentMailedCheck
	case r < 0.79:
		return customer.PaymentBankTransfer
	default:
		return customer.PaymentCreditCard
	}
}

// drawTenure skews month-to-month customers toward short relationships
// and term customers toward long ones
func (g *PopulationGenerator) drawTenure(contract customer.ContractType) int {
	r := g.rng.Float64()
	switch contract {
	case customer.ContractMonthToMonth:
		return int(72 * r * r)
	case customer.ContractOneYear:
		return 6 + int(60*r)
	default:
		return 12 + int(60*(1-r*r))
	}
}

// drawMonthlyCharge scales the base fee with service count plus noise
func (g *PopulationGenerator) drawMonthlyCharge(services int) float64 {
	base := 18.0 + 11.5*float64(services)
	return base + g.rng.Float64()*12 - 6
}

// drawChurn conditions the outcome on contract and tenure so driver
// analysis over synthetic data finds the same signals the real
// population carries
func (g *PopulationGenerator) drawChurn(contract customer.ContractType, tenure int, charge float64) bool {
	p := 0.0
	switch contract {
	case customer.ContractMonthToMonth:
		p = 0.36
	case customer.ContractOneYear:
		p = 0.10
	default:
		p = 0.03
	}
	if tenure < 12 {
		p += 0.12
	}
	if charge > 90 {
		p += 0.06
	}
	if p > 0.95 {
		p = 0.95
	}
	return g.rng.Float64() < p
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
