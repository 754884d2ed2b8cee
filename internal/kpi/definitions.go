package kpi

import (
	"math"

	"sabercli/pkg/contracts/domain"
)

// definition is the static part of an indicator: identity, target and how a
// computed value is judged against it.
type definition struct {
	key         string
	name        string
	target      float64
	comparison  domain.Comparison
	unit        string
	description string
	formula     string
	// band is the half-width of the green zone for approximate targets,
	// in the indicator's own unit. Unused for directional targets.
	band float64
}

var definitions = map[string]definition{
	domain.KPIEquityLearningGap: {
		key:         domain.KPIEquityLearningGap,
		name:        "Equity-adjusted learning gap",
		target:      0.85,
		comparison:  domain.CompareGreater,
		description: "Share of score variation not explained by socioeconomic stratum and area",
		formula:     "1 - R²(score ~ stratum + area)",
	},
	domain.KPIRuralUrbanDivergence: {
		key:         domain.KPIRuralUrbanDivergence,
		name:        "Rural-urban cognitive divergence",
		target:      0.30,
		comparison:  domain.CompareLess,
		description: "Standardized mean score difference between urban and rural students",
		formula:     "|mean(urban) - mean(rural)| / pooled std",
	},
	domain.KPIMinorityResilience: {
		key:         domain.KPIMinorityResilience,
		name:        "Ethnic resilience ratio",
		target:      0.95,
		comparison:  domain.CompareGreater,
		description: "Mean score of the ethnic-minority subgroup relative to the complement",
		formula:     "mean(minority) / mean(non-minority)",
	},
	domain.KPIGenderPremium: {
		key:         domain.KPIGenderPremium,
		name:        "Gender-neutral cognitive transfer premium",
		target:      0,
		comparison:  domain.CompareApproximate,
		unit:        "points",
		description: "Gender coefficient when predicting one subject from another",
		formula:     "β(gender) in target ~ control + gender",
		band:        1.0,
	},
	domain.KPIMunicipalEfficiency: {
		key:         domain.KPIMunicipalEfficiency,
		name:        "Municipal efficiency frontier",
		target:      15,
		comparison:  domain.CompareGreater,
		unit:        "%",
		description: "Share of municipalities scoring above the 90th percentile of municipal means",
		formula:     "100 * |{m : mean(m) > P90}| / |municipalities|",
	},
	domain.KPIVolatilityStabilizer: {
		key:         domain.KPIVolatilityStabilizer,
		name:        "Score volatility stabilizer",
		target:      0.80,
		comparison:  domain.CompareGreater,
		description: "One minus the median cross-subject coefficient of variation per school",
		formula:     "1 - median(cv(subject means per school))",
	},
}

// order fixes the emission order of the six indicators.
var order = []string{
	domain.KPIEquityLearningGap,
	domain.KPIRuralUrbanDivergence,
	domain.KPIMinorityResilience,
	domain.KPIGenderPremium,
	domain.KPIMunicipalEfficiency,
	domain.KPIVolatilityStabilizer,
}

// classify assigns the traffic-light status for an available value. The
// yellow band is 10% of the target on directional indicators and twice the
// green band on approximate ones.
func classify(def definition, value float64) domain.KPIStatus {
	switch def.comparison {
	case domain.CompareLess:
		switch {
		case value <= def.target:
			return domain.StatusGreen
		case value <= def.target*1.1:
			return domain.StatusYellow
		default:
			return domain.StatusRed
		}
	case domain.CompareApproximate:
		delta := math.Abs(value - def.target)
		switch {
		case delta <= def.band:
			return domain.StatusGreen
		case delta <= 2*def.band:
			return domain.StatusYellow
		default:
			return domain.StatusRed
		}
	default:
		switch {
		case value >= def.target:
			return domain.StatusGreen
		case value >= def.target*0.9:
			return domain.StatusYellow
		default:
			return domain.StatusRed
		}
	}
}

func available(def definition, value float64) domain.KPIResult {
	return domain.KPIResult{
		Key:         def.key,
		Name:        def.name,
		Value:       value,
		Target:      def.target,
		Comparison:  def.comparison,
		Status:      classify(def, value),
		Unit:        def.unit,
		Description: def.description,
		Formula:     def.formula,
		Available:   true,
	}
}

func unavailable(def definition, reason string) domain.KPIResult {
	return domain.KPIResult{
		Key:         def.key,
		Name:        def.name,
		Target:      def.target,
		Comparison:  def.comparison,
		Unit:        def.unit,
		Description: def.description,
		Formula:     def.formula,
		Status:      domain.StatusUnavailable,
		Available:   false,
		Reason:      reason,
	}
}
