package config

import (
	"os"
	"strconv"
	"strings"

	"churnscope/domain/customer"
	"churnscope/domain/scoring"
	"churnscope/domain/segment"
	"churnscope/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Pipeline PipelineConfig
	Scoring  ScoringConfig
	Reports  ReportConfig
	Server   ServerConfig
	Paths    PathConfig
}

// DatabaseConfig holds database connection settings. URL may be empty:
// file-based runs never touch a database, and the commands that do need
// one call Require.
type DatabaseConfig struct {
	URL     string
	Host    string
	Port    int
	Name    string
	User    string
	SSLMode string
}

// Require returns the DSN or a config error when none is set
func (d DatabaseConfig) Require() (string, error) {
	if d.URL == "" {
		return "", errors.ConfigInvalid("DATABASE_URL is required for this command")
	}
	return d.URL, nil
}

// PipelineConfig holds the derivation and aggregation thresholds
type PipelineConfig struct {
	TenureEdges  []float64
	TenureLabels []string
	ChargeEdges  []float64
	ChargeLabels []string

	NewCustomerMaxTenure int
	LongTermMinTenure    int

	RecoveryFraction float64

	PriorityCritical float64
	PriorityHigh     float64
	PriorityMedium   float64

	// Revenue identity tolerance: a record passes when the reported
	// revenue is within max(abs, rel*expected) of charge*tenure.
	RevenueAbsTolerance float64
	RevenueRelTolerance float64
	StrictQuality       bool
}

// ScoringConfig holds the risk, RFM, and CLV constants
type ScoringConfig struct {
	Variant string
	// Weights overrides the selected variant's weights positionally when
	// non-empty; the indicator list itself is fixed per variant.
	Weights []float64

	HighChargeRatioMin float64
	LowServicesBelow   int

	TierHighMin   float64
	TierMediumMin float64

	RFMBuckets  int
	TopN        int
	DecileCount int

	CLVStepTenures   []float64
	CLVStepLifetimes []float64
	CLVFinalLifetime int
	CLVChurnProbs    map[customer.ContractType]float64
}

// ReportConfig holds emission settings
type ReportConfig struct {
	ExportDir     string
	WriteWorkbook bool
	WriteSummary  bool
}

// ServerConfig holds web server settings
type ServerConfig struct {
	APIPort       string
	DashboardPort string
	GinMode       string
}

// PathConfig holds file system paths
type PathConfig struct {
	InputFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Pipeline: loadPipelineConfig(),
		Scoring:  loadScoringConfig(),
		Reports:  loadReportConfig(),
		Server:   loadServerConfig(),
		Paths:    loadPathConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		Host:    getEnvOrDefault("DB_HOST", "localhost"),
		Port:    getEnvIntOrDefault("DB_PORT", 5432),
		Name:    getEnvOrDefault("DB_NAME", "churnscope"),
		User:    getEnvOrDefault("DB_USER", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadPipelineConfig() PipelineConfig {
	tenureDefaults := customer.DefaultTenureBuckets()
	chargeDefaults := customer.DefaultChargeBuckets()

	return PipelineConfig{
		TenureEdges:  getEnvFloatsOrDefault("CHURNSCOPE_TENURE_EDGES", tenureDefaults.Edges),
		TenureLabels: getEnvStringsOrDefault("CHURNSCOPE_TENURE_LABELS", tenureDefaults.Labels),
		ChargeEdges:  getEnvFloatsOrDefault("CHURNSCOPE_CHARGE_EDGES", chargeDefaults.Edges),
		ChargeLabels: getEnvStringsOrDefault("CHURNSCOPE_CHARGE_LABELS", chargeDefaults.Labels),

		NewCustomerMaxTenure: getEnvIntOrDefault("CHURNSCOPE_NEW_CUSTOMER_MAX_TENURE", 6),
		LongTermMinTenure:    getEnvIntOrDefault("CHURNSCOPE_LONG_TERM_MIN_TENURE", 24),

		RecoveryFraction: getEnvFloatOrDefault("CHURNSCOPE_RECOVERY_FRACTION", 0.30),

		PriorityCritical: getEnvFloatOrDefault("CHURNSCOPE_PRIORITY_CRITICAL", 50),
		PriorityHigh:     getEnvFloatOrDefault("CHURNSCOPE_PRIORITY_HIGH", 20),
		PriorityMedium:   getEnvFloatOrDefault("CHURNSCOPE_PRIORITY_MEDIUM", 5),

		RevenueAbsTolerance: getEnvFloatOrDefault("CHURNSCOPE_REVENUE_ABS_TOLERANCE", 5.0),
		RevenueRelTolerance: getEnvFloatOrDefault("CHURNSCOPE_REVENUE_REL_TOLERANCE", 0.10),
		StrictQuality:       getEnvBoolOrDefault("CHURNSCOPE_STRICT_QUALITY", false),
	}
}

func loadScoringConfig() ScoringConfig {
	defaultPolicy := scoring.DefaultCLVPolicy()

	stepTenures := make([]float64, 0, len(defaultPolicy.Steps))
	stepLifetimes := make([]float64, 0, len(defaultPolicy.Steps))
	for _, step := range defaultPolicy.Steps {
		stepTenures = append(stepTenures, float64(step.MaxTenureMonths))
		stepLifetimes = append(stepLifetimes, float64(step.LifetimeMonths))
	}

	return ScoringConfig{
		Variant: getEnvOrDefault("CHURNSCOPE_SCORING_VARIANT", string(scoring.VariantComposite)),
		Weights: getEnvFloatsOrDefault("CHURNSCOPE_WEIGHTS", nil),

		HighChargeRatioMin: getEnvFloatOrDefault("CHURNSCOPE_HIGH_CHARGE_RATIO_MIN", 1.0),
		LowServicesBelow:   getEnvIntOrDefault("CHURNSCOPE_LOW_SERVICES_BELOW", 3),

		TierHighMin:   getEnvFloatOrDefault("CHURNSCOPE_TIER_HIGH_MIN", 0.7),
		TierMediumMin: getEnvFloatOrDefault("CHURNSCOPE_TIER_MEDIUM_MIN", 0.4),

		RFMBuckets:  getEnvIntOrDefault("CHURNSCOPE_RFM_BUCKETS", 5),
		TopN:        getEnvIntOrDefault("CHURNSCOPE_TOP_N", 500),
		DecileCount: getEnvIntOrDefault("CHURNSCOPE_DECILE_COUNT", 10),

		CLVStepTenures:   getEnvFloatsOrDefault("CHURNSCOPE_CLV_STEP_TENURES", stepTenures),
		CLVStepLifetimes: getEnvFloatsOrDefault("CHURNSCOPE_CLV_STEP_LIFETIMES", stepLifetimes),
		CLVFinalLifetime: getEnvIntOrDefault("CHURNSCOPE_CLV_FINAL_LIFETIME", defaultPolicy.FinalLifetime),
		CLVChurnProbs: map[customer.ContractType]float64{
			customer.ContractMonthToMonth: getEnvFloatOrDefault("CHURNSCOPE_CLV_CHURN_PROB_MONTHLY", 0.43),
			customer.ContractOneYear:      getEnvFloatOrDefault("CHURNSCOPE_CLV_CHURN_PROB_ONE_YEAR", 0.11),
			customer.ContractTwoYear:      getEnvFloatOrDefault("CHURNSCOPE_CLV_CHURN_PROB_TWO_YEAR", 0.03),
		},
	}
}

func loadReportConfig() ReportConfig {
	return ReportConfig{
		ExportDir:     getEnvOrDefault("CHURNSCOPE_EXPORT_DIR", "./exports"),
		WriteWorkbook: getEnvBoolOrDefault("CHURNSCOPE_WRITE_WORKBOOK", true),
		WriteSummary:  getEnvBoolOrDefault("CHURNSCOPE_WRITE_SUMMARY", true),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		APIPort:       getEnvOrDefault("PORT", "8080"),
		DashboardPort: getEnvOrDefault("DASHBOARD_PORT", "8090"),
		GinMode:       getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadPathConfig() PathConfig {
	return PathConfig{
		InputFile: getEnvOrDefault("CHURNSCOPE_INPUT_FILE", ""),
	}
}

// Validate builds every policy object and rejects the configuration
// before any row is processed. Domain-level validation failures are
// normalized to CONFIG_INVALID so callers see one code for every
// configuration rejection.
func (c *Config) Validate() error {
	err := c.validate()
	if err == nil {
		return nil
	}
	if errors.IsAppError(err) {
		return err
	}
	return errors.WithCode(errors.CodeConfigInvalid, err)
}

func (c *Config) validate() error {
	if err := c.Rules().Validate(); err != nil {
		return err
	}
	weights, err := c.WeightSet()
	if err != nil {
		return err
	}
	if err := weights.Validate(); err != nil {
		return err
	}
	if err := c.TierPolicy().Validate(); err != nil {
		return err
	}
	if err := c.PriorityPolicy().Validate(); err != nil {
		return err
	}
	if err := c.CLVPolicy().Validate(); err != nil {
		return err
	}
	if c.Pipeline.RecoveryFraction < 0 || c.Pipeline.RecoveryFraction > 1 {
		return errors.ConfigInvalid("recovery fraction must lie inside [0, 1]")
	}
	if c.Scoring.RFMBuckets < 2 || c.Scoring.RFMBuckets > 9 {
		return errors.ConfigInvalid("RFM bucket count must lie inside [2, 9]")
	}
	if c.Scoring.TopN <= 0 {
		return errors.ConfigInvalid("top-N size must be positive")
	}
	if c.Scoring.DecileCount <= 0 {
		return errors.ConfigInvalid("decile count must be positive")
	}
	if c.Scoring.LowServicesBelow < 0 || c.Scoring.LowServicesBelow > customer.MaxServices {
		return errors.ConfigInvalid("low-services cutoff outside the service count range")
	}
	if c.Pipeline.RevenueAbsTolerance < 0 || c.Pipeline.RevenueRelTolerance < 0 {
		return errors.ConfigInvalid("revenue tolerances cannot be negative")
	}
	if len(c.Scoring.CLVStepTenures) != len(c.Scoring.CLVStepLifetimes) {
		return errors.ConfigInvalid("CLV step tenures and lifetimes must pair up")
	}
	return nil
}

// Rules builds the derivation rules from configuration
func (c *Config) Rules() customer.Rules {
	return customer.Rules{
		TenureBuckets: customer.Buckets{
			Name:   "tenure_group",
			Edges:  c.Pipeline.TenureEdges,
			Labels: c.Pipeline.TenureLabels,
		},
		ChargeBuckets: customer.Buckets{
			Name:   "charge_category",
			Edges:  c.Pipeline.ChargeEdges,
			Labels: c.Pipeline.ChargeLabels,
		},
		NewCustomerMaxTenure: c.Pipeline.NewCustomerMaxTenure,
		LongTermMinTenure:    c.Pipeline.LongTermMinTenure,
	}
}

// WeightSet resolves the selected scoring variant, applying positional
// weight overrides when configured.
func (c *Config) WeightSet() (scoring.WeightSet, error) {
	variant, err := scoring.ParseVariant(c.Scoring.Variant)
	if err != nil {
		return scoring.WeightSet{}, err
	}
	set, err := scoring.WeightsFor(variant)
	if err != nil {
		return scoring.WeightSet{}, err
	}
	if len(c.Scoring.Weights) > 0 {
		if len(c.Scoring.Weights) != len(set.Indicators) {
			return scoring.WeightSet{}, errors.ConfigInvalid(
				"weight override count does not match the variant's indicator count")
		}
		for i := range set.Indicators {
			set.Indicators[i].Weight = c.Scoring.Weights[i]
		}
	}
	return set, nil
}

// TierPolicy builds the risk tier cutoffs
func (c *Config) TierPolicy() scoring.TierPolicy {
	return scoring.TierPolicy{HighMin: c.Scoring.TierHighMin, MediumMin: c.Scoring.TierMediumMin}
}

// PriorityPolicy builds the segment priority cutoffs
func (c *Config) PriorityPolicy() segment.PriorityPolicy {
	return segment.PriorityPolicy{
		CriticalMin: c.Pipeline.PriorityCritical,
		HighMin:     c.Pipeline.PriorityHigh,
		MediumMin:   c.Pipeline.PriorityMedium,
	}
}

// CLVPolicy builds the lifetime-value constants
func (c *Config) CLVPolicy() scoring.CLVPolicy {
	steps := make([]scoring.LifetimeStep, 0, len(c.Scoring.CLVStepTenures))
	for i := range c.Scoring.CLVStepTenures {
		lifetime := 0
		if i < len(c.Scoring.CLVStepLifetimes) {
			lifetime = int(c.Scoring.CLVStepLifetimes[i])
		}
		steps = append(steps, scoring.LifetimeStep{
			MaxTenureMonths: int(c.Scoring.CLVStepTenures[i]),
			LifetimeMonths:  lifetime,
		})
	}
	return scoring.CLVPolicy{
		Steps:              steps,
		FinalLifetime:      c.Scoring.CLVFinalLifetime,
		ChurnProbabilities: c.Scoring.CLVChurnProbs,
	}
}

// Settings flattens every output-affecting knob for config fingerprinting
func (c *Config) Settings() map[string]interface{} {
	settings := map[string]interface{}{
		"tenure_edges":            c.Pipeline.TenureEdges,
		"tenure_labels":           c.Pipeline.TenureLabels,
		"charge_edges":            c.Pipeline.ChargeEdges,
		"charge_labels":           c.Pipeline.ChargeLabels,
		"new_customer_max_tenure": c.Pipeline.NewCustomerMaxTenure,
		"long_term_min_tenure":    c.Pipeline.LongTermMinTenure,
		"recovery_fraction":       c.Pipeline.RecoveryFraction,
		"priority_critical":       c.Pipeline.PriorityCritical,
		"priority_high":           c.Pipeline.PriorityHigh,
		"priority_medium":         c.Pipeline.PriorityMedium,
		"revenue_abs_tolerance":   c.Pipeline.RevenueAbsTolerance,
		"revenue_rel_tolerance":   c.Pipeline.RevenueRelTolerance,
		"strict_quality":          c.Pipeline.StrictQuality,
		"variant":                 c.Scoring.Variant,
		"weights":                 c.Scoring.Weights,
		"high_charge_ratio_min":   c.Scoring.HighChargeRatioMin,
		"low_services_below":      c.Scoring.LowServicesBelow,
		"tier_high_min":           c.Scoring.TierHighMin,
		"tier_medium_min":         c.Scoring.TierMediumMin,
		"rfm_buckets":             c.Scoring.RFMBuckets,
		"top_n":                   c.Scoring.TopN,
		"decile_count":            c.Scoring.DecileCount,
		"clv_step_tenures":        c.Scoring.CLVStepTenures,
		"clv_step_lifetimes":      c.Scoring.CLVStepLifetimes,
		"clv_final_lifetime":      c.Scoring.CLVFinalLifetime,
	}
	for contract, prob := range c.Scoring.CLVChurnProbs {
		settings["clv_churn_prob_"+string(contract)] = prob
	}
	return settings
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloatsOrDefault(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	floats := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return defaultValue
		}
		floats = append(floats, f)
	}
	return floats
}

func getEnvStringsOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}
