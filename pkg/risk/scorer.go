// Package risk maps extracted image features to a risk classification using
// a fixed, ordered rule table.
package risk

import (
	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

// MaxScore is the sum of the highest tier of every rule
const MaxScore = 7

// Level boundaries, inclusive on the lower bound
const (
	highLevelMinScore     = 5
	moderateLevelMinScore = 3
)

// Tier is one point-bearing band of a rule. A feature enters the tier when
// its value is strictly greater than Threshold.
type Tier struct {
	Threshold float64
	Points    int
	Factor    string
}

// Rule scores a single feature. Tiers are ordered from the highest threshold
// down and the first matching tier wins.
type Rule struct {
	Value func(models.ImageFeatures) float64
	Tiers []Tier
}

// Evaluate returns the tier the value falls into, if any
func (r Rule) Evaluate(features models.ImageFeatures) (Tier, bool) {
	v := r.Value(features)
	for _, tier := range r.Tiers {
		if v > tier.Threshold {
			return tier, true
		}
	}
	return Tier{}, false
}

// DefaultRules returns the rule table in evaluation order: asymmetry, color,
// border.
func DefaultRules() []Rule {
	return []Rule{
		{
			Value: func(f models.ImageFeatures) float64 { return f.AsymmetryScore },
			Tiers: []Tier{
				{Threshold: 50, Points: 3, Factor: "High asymmetry detected"},
				{Threshold: 30, Points: 1, Factor: "Moderate asymmetry"},
			},
		},
		{
			Value: func(f models.ImageFeatures) float64 { return f.ColorVariation },
			Tiers: []Tier{
				{Threshold: 40, Points: 2, Factor: "Significant color variation"},
				{Threshold: 25, Points: 1, Factor: "Some color variation"},
			},
		},
		{
			Value: func(f models.ImageFeatures) float64 { return f.BorderIrregularity },
			Tiers: []Tier{
				{Threshold: 30, Points: 2, Factor: "Irregular borders detected"},
				{Threshold: 20, Points: 1, Factor: "Some border irregularity"},
			},
		},
	}
}

var recommendations = map[models.RiskLevel]string{
	models.RiskLevelHigh:     "Strongly recommend immediate dermatologist consultation",
	models.RiskLevelModerate: "Consider scheduling dermatologist appointment",
	models.RiskLevelLow:      "Continue regular self-examinations",
}

var severityClasses = map[models.RiskLevel]string{
	models.RiskLevelHigh:     "danger",
	models.RiskLevelModerate: "warning",
	models.RiskLevelLow:      "success",
}

// Scorer turns ImageFeatures into a RiskAssessment
type Scorer struct {
	rules []Rule
}

// NewScorer creates a scorer with the default rule table
func NewScorer() *Scorer {
	return &Scorer{rules: DefaultRules()}
}

// Score evaluates every rule once, in table order. It never fails.
func (s *Scorer) Score(features models.ImageFeatures) models.RiskAssessment {
	score := 0
	factors := make([]string, 0, len(s.rules))
	for _, rule := range s.rules {
		if tier, ok := rule.Evaluate(features); ok {
			score += tier.Points
			factors = append(factors, tier.Factor)
		}
	}

	level := LevelForScore(score)
	return models.RiskAssessment{
		Score:          score,
		MaxScore:       MaxScore,
		Level:          level,
		Factors:        factors,
		Recommendation: Recommendation(level),
		SeverityClass:  SeverityClass(level),
	}
}

// LevelForScore classifies a summed score
func LevelForScore(score int) models.RiskLevel {
	switch {
	case score >= highLevelMinScore:
		return models.RiskLevelHigh
	case score >= moderateLevelMinScore:
		return models.RiskLevelModerate
	default:
		return models.RiskLevelLow
	}
}

// Recommendation returns the fixed advice text for a level
func Recommendation(level models.RiskLevel) string {
	return recommendations[level]
}

// SeverityClass returns the presentation label for a level
func SeverityClass(level models.RiskLevel) string {
	return severityClasses[level]
}
