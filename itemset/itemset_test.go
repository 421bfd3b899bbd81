package itemset

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewItemset(t *testing.T) {
	is, err := NewItemset([]string{"milk", "bread", "coffee"})
	assert.Nil(t, err)
	assert.Equal(t, []string{"bread", "coffee", "milk"}, is.Items)
	assert.Equal(t, 0.0, is.Support)

	_, err = NewItemset([]string{})
	assert.NotNil(t, err)

	_, err = NewItemset([]string{"milk", "milk"})
	assert.NotNil(t, err)
}

func TestNewItemsetWithSupport(t *testing.T) {
	is, err := NewItemsetWithSupport([]string{"sugar", "bread"}, 0.5)
	assert.Nil(t, err)
	assert.Equal(t, []string{"bread", "sugar"}, is.Items)
	assert.Equal(t, 0.5, is.Support)

	var domainErr *DomainError
	_, err = NewItemsetWithSupport([]string{"bread"}, 1.5)
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "support", domainErr.Param)

	_, err = NewItemsetWithSupport([]string{"bread"}, -0.5)
	assert.True(t, errors.As(err, &domainErr))

	_, err = NewItemsetWithSupport([]string{}, 0.5)
	assert.NotNil(t, err)
}

func TestItemsetAddAndContains(t *testing.T) {
	is, err := NewItemset([]string{"coffee"})
	assert.Nil(t, err)

	is.Add("bread")
	is.Add("sugar")
	is.Add("bread")
	assert.Equal(t, []string{"bread", "coffee", "sugar"}, is.Items)
	assert.Equal(t, 3, is.Len())

	assert.True(t, is.Contains("coffee"))
	assert.True(t, is.Contains("sugar"))
	assert.False(t, is.Contains("milk"))
}

func TestItemsetCopy(t *testing.T) {
	is := &Itemset{Items: []string{"bread", "sugar"}, Support: 0.5}
	cp := is.Copy()
	cp.Add("milk")
	cp.Support = 0.25

	assert.Equal(t, []string{"bread", "sugar"}, is.Items)
	assert.Equal(t, 0.5, is.Support)
	assert.Equal(t, []string{"bread", "milk", "sugar"}, cp.Items)
}

func TestItemsKeyQuoting(t *testing.T) {
	// A single item containing the separator must not collide with a
	// pair of items.
	joined := ItemsKey([]string{"a,b"})
	pair := ItemsKey([]string{"a", "b"})
	assert.NotEqual(t, joined, pair)

	// Display form is the plain join.
	is := &Itemset{Items: []string{"a", "b"}}
	assert.Equal(t, "a,b", is.String())
}

func TestPrefixMatches(t *testing.T) {
	ab := &Itemset{Items: []string{"a", "b"}}
	ac := &Itemset{Items: []string{"a", "c"}}
	bc := &Itemset{Items: []string{"b", "c"}}

	assert.True(t, ab.PrefixMatches(ac, 1))
	assert.False(t, ab.PrefixMatches(bc, 1))
	assert.True(t, ab.PrefixMatches(bc, 0))
	assert.False(t, ab.PrefixMatches(ac, 3))
}

func TestItemsetMapGet(t *testing.T) {
	im := make(ItemsetMap)
	is := &Itemset{Items: []string{"bread", "sugar"}, Support: 0.5}
	im[is.Key()] = is

	got, ok := im.Get([]string{"bread", "sugar"})
	assert.True(t, ok)
	assert.Equal(t, is, got)

	support, ok := im.SupportOf([]string{"bread", "sugar"})
	assert.True(t, ok)
	assert.Equal(t, 0.5, support)

	_, ok = im.Get([]string{"bread"})
	assert.False(t, ok)
}

func TestItemsetJSONRoundTrip(t *testing.T) {
	is := &Itemset{Items: []string{"coffee", "milk"}, Support: 0.75}
	data, err := json.Marshal(is)
	assert.Nil(t, err)
	assert.Equal(t, `{"its":["coffee","milk"],"s":0.75}`, string(data))

	var back Itemset
	err = json.Unmarshal(data, &back)
	assert.Nil(t, err)
	assert.Equal(t, is.Key(), back.Key())
	assert.Equal(t, is.Support, back.Support)
}
