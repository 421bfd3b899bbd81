package source

import (
	"testing"

	I "apriori/itemset"

	"github.com/stretchr/testify/assert"
)

func basketTransactions() [][]string {
	return [][]string{
		{"bread", "butter", "sugar"},
		{"coffee", "milk", "sugar"},
		{"bread", "coffee", "milk", "sugar"},
		{"coffee", "milk"},
	}
}

func TestMemorySourceMine(t *testing.T) {
	src := NewMemorySource(basketTransactions())

	frequent, err := I.MineFrequentItemsets(src, 0.5, nil)
	assert.Nil(t, err)
	assert.Equal(t, 9, len(frequent))

	support, ok := frequent.SupportOf([]string{"coffee", "milk"})
	assert.True(t, ok)
	assert.Equal(t, 0.75, support)
}

func TestMemorySourceRescan(t *testing.T) {
	src := NewMemorySource([][]string{{"a"}, {"b"}})

	// Every Scan is an independent pass.
	for i := 0; i < 2; i++ {
		scanner, err := src.Scan()
		assert.Nil(t, err)

		count := 0
		for scanner.Next() {
			count++
		}
		assert.Nil(t, scanner.Err())
		assert.Equal(t, 2, count)
	}
}

func TestMemorySourceEmpty(t *testing.T) {
	src := NewMemorySource([][]string{})

	scanner, err := src.Scan()
	assert.Nil(t, err)
	assert.False(t, scanner.Next())
	assert.Nil(t, scanner.Err())
}
