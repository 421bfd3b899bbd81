package itemset

import (
	"sort"
)

const ruleSeparator = "=>"

// AssociationRule is a directed implication between two disjoint
// itemsets, carrying the support of their union. Body and Head keep
// their own supports, so every metric on a rule derives from stored
// numbers alone.
type AssociationRule struct {
	Body    *Itemset `json:"b"`
	Head    *Itemset `json:"h"`
	Support float64  `json:"s"`
}

func (r *AssociationRule) Key() string {
	return r.Body.Key() + ruleSeparator + r.Head.Key()
}

func (r *AssociationRule) String() string {
	return r.Body.String() + " " + ruleSeparator + " " + r.Head.String()
}

// ruleFrame is one pending split of an itemset into rule body and
// head. Frames go on an explicit stack so deep refinement cannot blow
// the call stack, and every frame owns its slices outright.
type ruleFrame struct {
	body []string
	head []string
}

// GenerateRules derives every rule body => head whose two sides
// partition a single frequent itemset and whose confidence is at least
// minConfidence. freq must contain every subset of its own members,
// the shape MineFrequentItemsets produces; a hole in it surfaces as
// MissingItemsetError. Output order is identical across runs.
func GenerateRules(freq ItemsetMap, minConfidence float64, obs Observer) (RuleList, error) {
	if minConfidence < 0 || minConfidence > 1 {
		return nil, &DomainError{Param: "min_confidence", Value: minConfidence}
	}
	obs = obsOrNop(obs)

	rules := make(RuleList, 0)
	emitted := make(map[string]bool)

	for _, key := range freq.sortedKeys() {
		parent := freq[key]
		if parent.Len() < 2 {
			continue
		}

		stack := []ruleFrame{{body: copyItems(parent.Items), head: nil}}
		for len(stack) > 0 {
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			for i := 0; i < len(frame.body); i++ {
				body := removeItemAt(frame.body, i)
				head := insertItem(frame.head, frame.body[i])

				bodySet, ok := freq.Get(body)
				if !ok {
					return nil, &MissingItemsetError{Key: ItemsKey(body)}
				}
				headSet, ok := freq.Get(head)
				if !ok {
					return nil, &MissingItemsetError{Key: ItemsKey(head)}
				}

				confidence := 0.0
				if bodySet.Support > 0 {
					confidence = parent.Support / bodySet.Support
				}
				// Moving more items to the head can only lower
				// confidence, so a miss here ends this branch.
				if confidence < minConfidence {
					continue
				}

				rule := &AssociationRule{
					Body:    bodySet.Copy(),
					Head:    headSet.Copy(),
					Support: parent.Support,
				}
				if emitted[rule.Key()] {
					continue
				}
				emitted[rule.Key()] = true
				rules = append(rules, rule)
				obs.RuleEmitted(rule)

				if len(body) > 1 {
					stack = append(stack, ruleFrame{body: body, head: head})
				}
			}
		}
	}
	return rules, nil
}

func copyItems(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func removeItemAt(items []string, i int) []string {
	out := make([]string, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	return out
}

func insertItem(items []string, item string) []string {
	i := sort.SearchStrings(items, item)
	out := make([]string, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, item)
	out = append(out, items[i:]...)
	return out
}
