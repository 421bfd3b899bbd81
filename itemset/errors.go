package itemset

import "fmt"

// DomainError marks a tunable that was handed a value outside its
// legal range. The operation returning one has done no work on its
// inputs.
type DomainError struct {
	Param string
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s %v out of domain", e.Param, e.Value)
}

// MissingItemsetError marks a frequent itemset map that does not hold
// a subset of one of its own members. Such a map cannot have come from
// the miner, so rule generation refuses to work with it.
type MissingItemsetError struct {
	Key string
}

func (e *MissingItemsetError) Error() string {
	return fmt.Sprintf("itemset %s not found in frequent itemsets", e.Key)
}
