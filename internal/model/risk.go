package model

import "strings"

// RiskLevel classifies the failure risk of a structure.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// riskWeights is the ordinal used to sort and compare risk levels.
var riskWeights = map[RiskLevel]float64{
	RiskLow:      0.25,
	RiskMedium:   0.5,
	RiskHigh:     0.75,
	RiskCritical: 1.0,
}

// Weight returns the sort weight of a risk level; unknown levels weigh 0.
func (r RiskLevel) Weight() float64 {
	return riskWeights[r]
}

// ParseRiskLevel normalizes a free-form risk label. Unrecognized input
// defaults to LOW, never an error (noisy upstream data).
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	case RiskCritical:
		return RiskCritical
	default:
		return RiskLow
	}
}

// Severity classifies a single anomalous reading.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityOrder = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// MoreSevere reports whether s outranks other.
func (s Severity) MoreSevere(other Severity) bool {
	return severityOrder[s] > severityOrder[other]
}
