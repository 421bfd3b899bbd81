package source

import (
	I "apriori/itemset"
)

var _ I.TransactionSource = (*MemorySource)(nil)

// MemorySource serves transactions held in memory. Used by tests and
// small ad hoc datasets.
type MemorySource struct {
	transactions [][]string
}

func NewMemorySource(transactions [][]string) *MemorySource {
	return &MemorySource{transactions: transactions}
}

func (ms *MemorySource) Scan() (I.TransactionScanner, error) {
	return &memoryScanner{transactions: ms.transactions, pos: -1}, nil
}

type memoryScanner struct {
	transactions [][]string
	pos          int
}

func (msc *memoryScanner) Next() bool {
	msc.pos++
	return msc.pos < len(msc.transactions)
}

func (msc *memoryScanner) Items() []string {
	return msc.transactions[msc.pos]
}

func (msc *memoryScanner) Err() error {
	return nil
}
