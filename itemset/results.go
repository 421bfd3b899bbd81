package itemset

import "sort"

// ItemsetList is an ordered view over itemsets.
type ItemsetList []*Itemset

// SortBySupport orders by support descending with canonical key
// breaking ties, so equal runs always serialize the same way.
func (l ItemsetList) SortBySupport() {
	sort.Slice(l, func(i, j int) bool {
		if l[i].Support != l[j].Support {
			return l[i].Support > l[j].Support
		}
		return l[i].Key() < l[j].Key()
	})
}

func (l ItemsetList) TopK(k int) ItemsetList {
	if k < 0 {
		k = 0
	}
	if k > len(l) {
		k = len(l)
	}
	return l[:k]
}

func (l ItemsetList) FilterBySize(minSize int) ItemsetList {
	out := make(ItemsetList, 0)
	for _, is := range l {
		if is.Len() >= minSize {
			out = append(out, is)
		}
	}
	return out
}

func (l ItemsetList) FilterByItem(item string) ItemsetList {
	out := make(ItemsetList, 0)
	for _, is := range l {
		if is.Contains(item) {
			out = append(out, is)
		}
	}
	return out
}

// RuleList is an ordered view over association rules.
type RuleList []*AssociationRule

// SortByMetric orders by the given metric descending with rule key
// breaking ties.
func (l RuleList) SortByMetric(metric RuleMetric) {
	sort.Slice(l, func(i, j int) bool {
		mi, mj := metric(l[i]), metric(l[j])
		if mi != mj {
			return mi > mj
		}
		return l[i].Key() < l[j].Key()
	})
}

func (l RuleList) TopK(k int) RuleList {
	if k < 0 {
		k = 0
	}
	if k > len(l) {
		k = len(l)
	}
	return l[:k]
}

func (l RuleList) FilterByItem(item string) RuleList {
	out := make(RuleList, 0)
	for _, r := range l {
		if r.Body.Contains(item) || r.Head.Contains(item) {
			out = append(out, r)
		}
	}
	return out
}

func (l RuleList) FilterByMetric(metric RuleMetric, minValue float64) RuleList {
	out := make(RuleList, 0)
	for _, r := range l {
		if metric(r) >= minValue {
			out = append(out, r)
		}
	}
	return out
}
