package itemset

import (
	"fmt"
	"math"
	"sort"
)

// Metric names accepted by MetricByName.
const (
	MetricSupport    = "support"
	MetricConfidence = "confidence"
	MetricLift       = "lift"
	MetricLeverage   = "leverage"
	MetricConviction = "conviction"
)

// Confidence is the share of body transactions that also hold the
// head.
func (r *AssociationRule) Confidence() float64 {
	if r.Body.Support == 0 {
		return 0
	}
	return r.Support / r.Body.Support
}

// Lift compares observed confidence against the head base rate. Above
// 1 body and head attract, below 1 they repel.
func (r *AssociationRule) Lift() float64 {
	if r.Head.Support == 0 {
		return 0
	}
	return r.Confidence() / r.Head.Support
}

// Leverage is the gap between observed joint support and what
// independent body and head would produce.
func (r *AssociationRule) Leverage() float64 {
	return r.Support - r.Body.Support*r.Head.Support
}

// Conviction grows as the rule approaches being exception free and is
// +Inf for an exact rule.
func (r *AssociationRule) Conviction() float64 {
	confidence := r.Confidence()
	if confidence >= 1 {
		return math.Inf(1)
	}
	return (1 - r.Head.Support) / (1 - confidence)
}

// RuleMetric scores a rule from its stored supports.
type RuleMetric func(r *AssociationRule) float64

func MetricByName(name string) (RuleMetric, error) {
	switch name {
	case MetricSupport:
		return func(r *AssociationRule) float64 { return r.Support }, nil
	case MetricConfidence:
		return func(r *AssociationRule) float64 { return r.Confidence() }, nil
	case MetricLift:
		return func(r *AssociationRule) float64 { return r.Lift() }, nil
	case MetricLeverage:
		return func(r *AssociationRule) float64 { return r.Leverage() }, nil
	case MetricConviction:
		return func(r *AssociationRule) float64 { return r.Conviction() }, nil
	}
	return nil, fmt.Errorf("unknown rule metric %s", name)
}

// WeightedMetric blends named metrics with a weighted average.
// Weights must be non negative with a positive total.
func WeightedMetric(weights map[string]float64) (RuleMetric, error) {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	metrics := make([]RuleMetric, 0, len(names))
	metricWeights := make([]float64, 0, len(names))
	totalWeight := 0.0
	for _, name := range names {
		metric, err := MetricByName(name)
		if err != nil {
			return nil, err
		}
		weight := weights[name]
		if weight < 0 {
			return nil, &DomainError{Param: "weight_" + name, Value: weight}
		}
		// Zero weight drops the component. Keeping it would turn an
		// infinite conviction into 0 * Inf = NaN.
		if weight == 0 {
			continue
		}
		metrics = append(metrics, metric)
		metricWeights = append(metricWeights, weight)
		totalWeight += weight
	}
	if totalWeight <= 0 {
		return nil, &DomainError{Param: "total_weight", Value: totalWeight}
	}

	return func(r *AssociationRule) float64 {
		score := 0.0
		for i, metric := range metrics {
			score += metricWeights[i] * metric(r)
		}
		return score / totalWeight
	}, nil
}

// HarmonicMetric scores rules with the harmonic mean of the named
// metrics. Any non positive component drives the score to 0.
func HarmonicMetric(names ...string) (RuleMetric, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no metrics to combine")
	}
	metrics := make([]RuleMetric, 0, len(names))
	for _, name := range names {
		metric, err := MetricByName(name)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, metric)
	}
	return func(r *AssociationRule) float64 {
		inverseSum := 0.0
		for _, metric := range metrics {
			value := metric(r)
			if value <= 0 {
				return 0
			}
			inverseSum += 1 / value
		}
		return float64(len(metrics)) / inverseSum
	}, nil
}
