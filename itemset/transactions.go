package itemset

// TransactionScanner is one pass over a transaction collection, shaped
// like bufio.Scanner: Next advances to the next transaction, Items
// returns its items and Err reports the first failure hit while
// reading. The slice returned by Items is only valid until the next
// call to Next.
type TransactionScanner interface {
	Next() bool
	Items() []string
	Err() error
}

// TransactionSource hands out scanners over a transaction collection.
// Every Scan starts a fresh pass, so callers may traverse the
// collection any number of times.
type TransactionSource interface {
	Scan() (TransactionScanner, error)
}
