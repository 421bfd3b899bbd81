package itemset

import (
	"sort"

	U "apriori/util"
)

// levelEntry pairs a frequent itemset with the ascending indices of
// the transactions holding it. Support of a joined candidate is
// counted by intersecting parent index lists, so the collection is
// read exactly once per mine.
type levelEntry struct {
	set  *Itemset
	txns []int
}

// MineFrequentItemsets runs a level wise mine over src and returns
// every itemset whose support is at least minSupport, keyed by
// canonical key. Output is identical across runs on the same
// collection. A nil obs disables progress reporting.
func MineFrequentItemsets(src TransactionSource, minSupport float64, obs Observer) (ItemsetMap, error) {
	if minSupport < 0 || minSupport > 1 {
		return nil, &DomainError{Param: "min_support", Value: minSupport}
	}
	obs = obsOrNop(obs)

	scanner, err := src.Scan()
	if err != nil {
		return nil, err
	}

	numTxns := 0
	itemTxns := make(map[string][]int)
	for scanner.Next() {
		for _, item := range U.MakeUniqueTrans(scanner.Items()) {
			itemTxns[item] = append(itemTxns[item], numTxns)
		}
		numTxns++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	frequent := make(ItemsetMap)
	if numTxns == 0 {
		return frequent, nil
	}

	items := make([]string, 0, len(itemTxns))
	for item := range itemTxns {
		items = append(items, item)
	}
	sort.Strings(items)

	level := make([]*levelEntry, 0, len(items))
	for _, item := range items {
		txns := itemTxns[item]
		support := float64(len(txns)) / float64(numTxns)
		if support < minSupport {
			continue
		}
		set := &Itemset{Items: []string{item}, Support: support}
		frequent[set.Key()] = set
		level = append(level, &levelEntry{set: set, txns: txns})
	}
	obs.LevelDone(1, len(items), len(level))

	for size := 2; len(level) > 1; size++ {
		numCandidates := 0
		next := make([]*levelEntry, 0)
		for i := 0; i < len(level); i++ {
			for j := i + 1; j < len(level); j++ {
				// Entries are in item order, so everything able to
				// extend level[i] sits directly after it.
				if !level[i].set.PrefixMatches(level[j].set, size-2) {
					break
				}
				numCandidates++
				txns := intersectSorted(level[i].txns, level[j].txns)
				support := float64(len(txns)) / float64(numTxns)
				if support < minSupport {
					continue
				}
				set := level[i].set.Copy()
				set.Add(level[j].set.Items[size-2])
				set.Support = support
				frequent[set.Key()] = set
				next = append(next, &levelEntry{set: set, txns: txns})
			}
		}
		obs.LevelDone(size, numCandidates, len(next))
		level = next
	}
	return frequent, nil
}

// intersectSorted merges two ascending index lists into the indices
// present in both.
func intersectSorted(a, b []int) []int {
	out := make([]int, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
