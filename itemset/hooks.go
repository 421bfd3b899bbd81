package itemset

import (
	log "github.com/sirupsen/logrus"
)

// Observer receives progress callbacks from the miner, the rule
// generator and the sweeps. Callbacks run inline on the mining
// goroutine, so implementations should return quickly and must not
// mutate what they are handed.
type Observer interface {
	LevelDone(size, candidates, frequent int)
	RuleEmitted(rule *AssociationRule)
	SweepStep(threshold float64, resultSize int)
}

// NopObserver drops every callback.
type NopObserver struct{}

func (NopObserver) LevelDone(size, candidates, frequent int)    {}
func (NopObserver) RuleEmitted(rule *AssociationRule)           {}
func (NopObserver) SweepStep(threshold float64, resultSize int) {}

var _ Observer = NopObserver{}

// LogObserver reports progress on a logrus entry at debug level.
type LogObserver struct {
	entry *log.Entry
}

func NewLogObserver(entry *log.Entry) *LogObserver {
	return &LogObserver{entry: entry}
}

func (lo *LogObserver) LevelDone(size, candidates, frequent int) {
	lo.entry.WithFields(log.Fields{
		"size":       size,
		"candidates": candidates,
		"frequent":   frequent,
	}).Debug("Finished itemset level.")
}

func (lo *LogObserver) RuleEmitted(rule *AssociationRule) {
	lo.entry.WithFields(log.Fields{
		"rule":       rule.String(),
		"confidence": rule.Confidence(),
	}).Debug("Emitted rule.")
}

func (lo *LogObserver) SweepStep(threshold float64, resultSize int) {
	lo.entry.WithFields(log.Fields{
		"threshold": threshold,
		"results":   resultSize,
	}).Debug("Finished sweep step.")
}

var _ Observer = (*LogObserver)(nil)

func obsOrNop(obs Observer) Observer {
	if obs == nil {
		return NopObserver{}
	}
	return obs
}
