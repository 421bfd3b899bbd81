package itemset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func basketFrequent(t *testing.T) ItemsetMap {
	frequent, err := MineFrequentItemsets(&memSource{trnss: basketTransactions()}, 0.5, nil)
	assert.Nil(t, err)
	return frequent
}

func TestGenerateRulesExact(t *testing.T) {
	frequent := basketFrequent(t)
	rules, err := GenerateRules(frequent, 1.0, nil)
	assert.Nil(t, err)

	expectedSupports := map[string]float64{
		"bread => sugar":        0.5,
		"coffee => milk":        0.75,
		"milk => coffee":        0.75,
		"milk,sugar => coffee":  0.5,
		"coffee,sugar => milk":  0.5,
	}
	assert.Equal(t, len(expectedSupports), len(rules))
	for _, rule := range rules {
		expected, ok := expectedSupports[rule.String()]
		assert.True(t, ok, rule.String())
		assert.Equal(t, expected, rule.Support, rule.String())
		assert.Equal(t, 1.0, rule.Confidence(), rule.String())
	}
}

func TestGenerateRulesRefined(t *testing.T) {
	frequent := basketFrequent(t)
	rules, err := GenerateRules(frequent, 0.6, nil)
	assert.Nil(t, err)

	expected := map[string]bool{
		"bread => sugar":        true,
		"sugar => bread":        true,
		"coffee => milk":        true,
		"milk => coffee":        true,
		"coffee => sugar":       true,
		"sugar => coffee":       true,
		"milk => sugar":         true,
		"sugar => milk":         true,
		"milk,sugar => coffee":  true,
		"coffee,sugar => milk":  true,
		"coffee,milk => sugar":  true,
		"milk => coffee,sugar":  true,
		"coffee => milk,sugar":  true,
		"sugar => coffee,milk":  true,
	}
	assert.Equal(t, len(expected), len(rules))
	for _, rule := range rules {
		assert.True(t, expected[rule.String()], rule.String())
		assert.True(t, rule.Confidence() >= 0.6, rule.String())
	}
}

func TestGenerateRulesBodyAndHeadSupports(t *testing.T) {
	frequent := basketFrequent(t)
	rules, err := GenerateRules(frequent, 0.6, nil)
	assert.Nil(t, err)

	for _, rule := range rules {
		if rule.String() != "sugar => bread" {
			continue
		}
		assert.Equal(t, 0.5, rule.Support)
		assert.Equal(t, 0.75, rule.Body.Support)
		assert.Equal(t, 0.5, rule.Head.Support)
		assert.InEpsilon(t, 2.0/3.0, rule.Confidence(), 1e-9)
		return
	}
	t.Fatal("rule sugar => bread not generated")
}

func TestGenerateRulesSingletonsOnly(t *testing.T) {
	frequent := ItemsetMap{}
	a := &Itemset{Items: []string{"a"}, Support: 1.0}
	frequent[a.Key()] = a

	rules, err := GenerateRules(frequent, 0.5, nil)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(rules))
}

func TestGenerateRulesMissingSubset(t *testing.T) {
	frequent := ItemsetMap{}
	pair := &Itemset{Items: []string{"a", "b"}, Support: 0.5}
	frequent[pair.Key()] = pair

	_, err := GenerateRules(frequent, 0.5, nil)
	var missingErr *MissingItemsetError
	assert.True(t, errors.As(err, &missingErr))
	assert.Equal(t, ItemsKey([]string{"b"}), missingErr.Key)
}

func TestGenerateRulesConfidenceOutOfDomain(t *testing.T) {
	frequent := basketFrequent(t)

	_, err := GenerateRules(frequent, -0.5, nil)
	var domainErr *DomainError
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "min_confidence", domainErr.Param)

	_, err = GenerateRules(frequent, 1.5, nil)
	assert.True(t, errors.As(err, &domainErr))
}

func TestGenerateRulesDeterministic(t *testing.T) {
	frequent := basketFrequent(t)

	first, err := GenerateRules(frequent, 0.6, nil)
	assert.Nil(t, err)
	second, err := GenerateRules(frequent, 0.6, nil)
	assert.Nil(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateRulesObserver(t *testing.T) {
	frequent := basketFrequent(t)
	obs := &recordingObserver{}
	rules, err := GenerateRules(frequent, 1.0, obs)
	assert.Nil(t, err)
	assert.Equal(t, len(rules), len(obs.rules))
}

func TestGenerateRulesLeavesInputIntact(t *testing.T) {
	frequent := basketFrequent(t)
	before := frequent.List()

	rules, err := GenerateRules(frequent, 0.6, nil)
	assert.Nil(t, err)
	assert.True(t, len(rules) > 0)

	// Emitted rules carry copies, so mutating them must not reach the
	// frequent itemset map.
	rules[0].Body.Support = -1
	rules[0].Head.Add("zzz")
	assert.Equal(t, before, frequent.List())
}
