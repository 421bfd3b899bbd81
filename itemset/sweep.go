package itemset

// SweepOptions drives a descending threshold search. Max is the
// starting threshold, Delta the step, Floor the lowest threshold still
// worth trying and Target the result count that stops the search.
type SweepOptions struct {
	Max    float64
	Floor  float64
	Delta  float64
	Target int
}

// NewSweepOptions validates the tunables up front so a sweep never
// hands an out of domain threshold to the stage underneath it.
func NewSweepOptions(max, floor, delta float64, target int) (SweepOptions, error) {
	opts := SweepOptions{Max: max, Floor: floor, Delta: delta, Target: target}
	if err := opts.validate(); err != nil {
		return SweepOptions{}, err
	}
	return opts, nil
}

func (o SweepOptions) validate() error {
	if o.Max < 0 || o.Max > 1 {
		return &DomainError{Param: "max", Value: o.Max}
	}
	if o.Floor < 0 || o.Floor > o.Max {
		return &DomainError{Param: "floor", Value: o.Floor}
	}
	if o.Delta <= 0 {
		return &DomainError{Param: "delta", Value: o.Delta}
	}
	if o.Target < 1 {
		return &DomainError{Param: "target", Value: float64(o.Target)}
	}
	return nil
}

// SweepItemsets lowers min support from Max in Delta steps until at
// least Target itemsets are frequent or the floor is crossed. The
// largest result seen is returned either way, so a sweep that never
// reaches Target still yields its best effort.
func SweepItemsets(src TransactionSource, opts SweepOptions, obs Observer) (ItemsetMap, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	obs = obsOrNop(obs)

	best := make(ItemsetMap)
	for threshold := opts.Max; threshold >= opts.Floor; threshold -= opts.Delta {
		frequent, err := MineFrequentItemsets(src, threshold, obs)
		if err != nil {
			return nil, err
		}
		obs.SweepStep(threshold, len(frequent))
		if len(frequent) >= opts.Target {
			return frequent, nil
		}
		if len(frequent) > len(best) {
			best = frequent
		}
	}
	return best, nil
}

// SweepRules lowers min confidence from Max in Delta steps until at
// least Target rules come out of freq or the floor is crossed,
// returning the largest rule set seen.
func SweepRules(freq ItemsetMap, opts SweepOptions, obs Observer) (RuleList, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	obs = obsOrNop(obs)

	best := make(RuleList, 0)
	for threshold := opts.Max; threshold >= opts.Floor; threshold -= opts.Delta {
		rules, err := GenerateRules(freq, threshold, obs)
		if err != nil {
			return nil, err
		}
		obs.SweepStep(threshold, len(rules))
		if len(rules) >= opts.Target {
			return rules, nil
		}
		if len(rules) > len(best) {
			best = rules
		}
	}
	return best, nil
}
