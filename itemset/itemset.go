package itemset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const ItemSeparator = ","

// Upper bound on a single serialized line, transaction, itemset or
// rule, when stored one record per line.
const MAX_LINE_BYTES = 10 * 1024 * 1024

// Itemset is a sorted set of distinct item names together with the
// fraction of transactions containing all of them. Support is filled
// in by the miner once counted; after that the value is read only.
type Itemset struct {
	Items   []string `json:"its"`
	Support float64  `json:"s"`
}

func NewItemset(items []string) (*Itemset, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no items in itemset")
	}
	if !isItemsUnique(items) {
		return nil, fmt.Errorf("duplicate items in itemset")
	}
	sortedItems := make([]string, len(items))
	copy(sortedItems, items)
	sort.Strings(sortedItems)
	return &Itemset{Items: sortedItems}, nil
}

// NewItemsetWithSupport builds an itemset whose support is already
// known, as when reading mined results back from a run file.
func NewItemsetWithSupport(items []string, support float64) (*Itemset, error) {
	is, err := NewItemset(items)
	if err != nil {
		return nil, err
	}
	if support < 0 || support > 1 {
		return nil, &DomainError{Param: "support", Value: support}
	}
	is.Support = support
	return is, nil
}

func isItemsUnique(items []string) bool {
	itemsMap := make(map[string]bool)
	for _, item := range items {
		if _, ok := itemsMap[item]; ok {
			return false
		}
		itemsMap[item] = true
	}
	return true
}

func (is *Itemset) String() string {
	return ItemArrayToString(is.Items)
}

func ItemArrayToString(items []string) string {
	return strings.Join(items, ItemSeparator)
}

// ItemsKey builds the canonical lookup key of an item list. Items are
// quoted before joining so a name containing the separator cannot
// collide with a genuine multi item key.
func ItemsKey(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, strconv.Quote(item))
	}
	return strings.Join(quoted, ItemSeparator)
}

func (is *Itemset) Key() string {
	return ItemsKey(is.Items)
}

func (is *Itemset) Len() int {
	return len(is.Items)
}

func (is *Itemset) Contains(item string) bool {
	i := sort.SearchStrings(is.Items, item)
	return i < len(is.Items) && strings.Compare(is.Items[i], item) == 0
}

// Add inserts item at its sorted position. Items already present are
// left alone.
func (is *Itemset) Add(item string) {
	i := sort.SearchStrings(is.Items, item)
	if i < len(is.Items) && is.Items[i] == item {
		return
	}
	is.Items = append(is.Items, "")
	copy(is.Items[i+1:], is.Items[i:])
	is.Items[i] = item
}

func (is *Itemset) Copy() *Itemset {
	items := make([]string, len(is.Items))
	copy(items, is.Items)
	return &Itemset{Items: items, Support: is.Support}
}

// PrefixMatches reports whether both itemsets agree on their first n
// items.
func (is *Itemset) PrefixMatches(other *Itemset, n int) bool {
	if len(is.Items) < n || len(other.Items) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if strings.Compare(is.Items[i], other.Items[i]) != 0 {
			return false
		}
	}
	return true
}

// ItemsetMap indexes itemsets by canonical key.
type ItemsetMap map[string]*Itemset

func (im ItemsetMap) Get(items []string) (*Itemset, bool) {
	is, ok := im[ItemsKey(items)]
	return is, ok
}

func (im ItemsetMap) SupportOf(items []string) (float64, bool) {
	is, ok := im.Get(items)
	if !ok {
		return 0, false
	}
	return is.Support, true
}

func (im ItemsetMap) sortedKeys() []string {
	keys := make([]string, 0, len(im))
	for key := range im {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// List returns the itemsets ordered by canonical key.
func (im ItemsetMap) List() ItemsetList {
	list := make(ItemsetList, 0, len(im))
	for _, key := range im.sortedKeys() {
		list = append(list, im[key])
	}
	return list
}
