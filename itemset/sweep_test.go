package itemset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSweepOptions(t *testing.T) {
	opts, err := NewSweepOptions(0.8, 0.2, 0.1, 25)
	assert.Nil(t, err)
	assert.Equal(t, SweepOptions{Max: 0.8, Floor: 0.2, Delta: 0.1, Target: 25}, opts)
}

func TestNewSweepOptionsValidation(t *testing.T) {
	var domainErr *DomainError

	_, err := NewSweepOptions(1.5, 0.1, 0.1, 10)
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "max", domainErr.Param)

	_, err = NewSweepOptions(0.5, 0.8, 0.1, 10)
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "floor", domainErr.Param)

	_, err = NewSweepOptions(0.5, 0.1, 0, 10)
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "delta", domainErr.Param)

	_, err = NewSweepOptions(0.5, 0.1, 0.1, 0)
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "target", domainErr.Param)
}

func TestSweepItemsetsTargetHit(t *testing.T) {
	src := &memSource{trnss: basketTransactions()}
	opts, err := NewSweepOptions(1.0, 0, 0.25, 6)
	assert.Nil(t, err)

	obs := &recordingObserver{}
	frequent, err := SweepItemsets(src, opts, obs)
	assert.Nil(t, err)

	assert.Equal(t, 9, len(frequent))
	assert.Equal(t, []float64{1.0, 0.75, 0.5}, obs.thresholds)
	assert.Equal(t, []int{0, 4, 9}, obs.sizes)
}

func TestSweepItemsetsKeepsBest(t *testing.T) {
	src := &memSource{trnss: basketTransactions()}
	opts, err := NewSweepOptions(1.0, 0.5, 0.25, 100)
	assert.Nil(t, err)

	frequent, err := SweepItemsets(src, opts, nil)
	assert.Nil(t, err)

	// Target is never reached; the floor stops the search and the
	// largest result wins.
	assert.Equal(t, 9, len(frequent))
}

func TestSweepItemsetsTerminatesAtZeroFloor(t *testing.T) {
	src := &memSource{trnss: [][]string{{"a"}}}
	opts, err := NewSweepOptions(1.0, 0, 0.1, 50)
	assert.Nil(t, err)

	obs := &recordingObserver{}
	frequent, err := SweepItemsets(src, opts, obs)
	assert.Nil(t, err)

	assert.Equal(t, 1, len(frequent))
	// Repeated subtraction leaves one tiny positive threshold above
	// zero before going negative.
	assert.Equal(t, 11, len(obs.thresholds))
}

func TestSweepItemsetsPropagatesSourceError(t *testing.T) {
	opts, err := NewSweepOptions(1.0, 0, 0.25, 10)
	assert.Nil(t, err)

	_, err = SweepItemsets(&failingSource{}, opts, nil)
	assert.NotNil(t, err)
}

func TestSweepItemsetsInvalidOptions(t *testing.T) {
	src := &memSource{trnss: basketTransactions()}

	var domainErr *DomainError
	_, err := SweepItemsets(src, SweepOptions{Max: 0.5, Floor: 0, Delta: -0.1, Target: 5}, nil)
	assert.True(t, errors.As(err, &domainErr))
}

func TestSweepRulesTargetHit(t *testing.T) {
	frequent := basketFrequent(t)
	opts, err := NewSweepOptions(1.0, 0.5, 0.5, 10)
	assert.Nil(t, err)

	obs := &recordingObserver{}
	rules, err := SweepRules(frequent, opts, obs)
	assert.Nil(t, err)

	assert.Equal(t, 14, len(rules))
	assert.Equal(t, []float64{1.0, 0.5}, obs.thresholds)
	assert.Equal(t, []int{5, 14}, obs.sizes)
}

func TestSweepRulesKeepsBest(t *testing.T) {
	frequent := basketFrequent(t)
	opts, err := NewSweepOptions(1.0, 0.7, 0.15, 100)
	assert.Nil(t, err)

	rules, err := SweepRules(frequent, opts, nil)
	assert.Nil(t, err)

	// Thresholds visited are 1.0, 0.85 and 0.7, all of which keep
	// only the five exact rules.
	assert.Equal(t, 5, len(rules))
}

func TestSweepRulesPropagatesMissing(t *testing.T) {
	corrupt := ItemsetMap{}
	pair := &Itemset{Items: []string{"a", "b"}, Support: 0.5}
	corrupt[pair.Key()] = pair

	opts, err := NewSweepOptions(1.0, 0, 0.5, 10)
	assert.Nil(t, err)

	_, err = SweepRules(corrupt, opts, nil)
	var missingErr *MissingItemsetError
	assert.True(t, errors.As(err, &missingErr))
}
