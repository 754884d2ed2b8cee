package domain

// KPI keys for the six equity/efficiency indicators.
const (
	KPIEquityLearningGap    = "EALG"
	KPIRuralUrbanDivergence = "RUCDI"
	KPIMinorityResilience   = "ERR"
	KPIGenderPremium        = "GNCTP"
	KPIMunicipalEfficiency  = "MEF"
	KPIVolatilityStabilizer = "SVS"
)

// Comparison is the operator a KPI value is judged against its target with.
type Comparison string

const (
	CompareGreater     Comparison = ">"
	CompareLess        Comparison = "<"
	CompareApproximate Comparison = "≈"
)

// KPIStatus is the traffic-light classification of an available KPI value.
type KPIStatus string

const (
	StatusGreen       KPIStatus = "green"
	StatusYellow      KPIStatus = "yellow"
	StatusRed         KPIStatus = "red"
	StatusUnavailable KPIStatus = "unavailable"
)

// KPIResult is one named indicator computed from a filtered record set.
// Unavailable results carry a Reason and no Value; status classification is
// only performed for available results.
type KPIResult struct {
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	Value       float64    `json:"value"`
	Target      float64    `json:"target"`
	Comparison  Comparison `json:"comparison"`
	Status      KPIStatus  `json:"status"`
	Unit        string     `json:"unit,omitempty"`
	Description string     `json:"description"`
	Formula     string     `json:"formula"`
	Available   bool       `json:"available"`
	Reason      string     `json:"reason,omitempty"`
}
