package source

import (
	"database/sql"

	I "apriori/itemset"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

const transactionItemsTable = "transaction_items"

var _ I.TransactionSource = (*SQLSource)(nil)

// SQLSource streams transactions out of a relational table holding one
// row per transaction item. Rows are pulled ordered by transaction id,
// so each transaction arrives as one contiguous run and grouping needs
// a single row of lookahead.
type SQLSource struct {
	db        *gorm.DB
	datasetId uint64
}

func NewSQLSource(db *gorm.DB, datasetId uint64) *SQLSource {
	return &SQLSource{db: db, datasetId: datasetId}
}

func (ss *SQLSource) Scan() (I.TransactionScanner, error) {
	rows, err := ss.db.Table(transactionItemsTable).
		Select("transaction_id, item_name").
		Where("dataset_id = ?", ss.datasetId).
		Order("transaction_id, item_name").
		Rows()
	if err != nil {
		log.WithField("dataset_id", ss.datasetId).WithError(err).Error(
			"Failed to query transaction rows.")
		return nil, err
	}
	return &sqlScanner{rows: rows}, nil
}

type sqlScanner struct {
	rows *sql.Rows

	// One row of lookahead, read off rows but not yet grouped.
	nextTid  string
	nextItem string
	hasNext  bool

	items []string
	err   error
	done  bool
}

func (ssc *sqlScanner) Next() bool {
	if ssc.done {
		return false
	}
	if !ssc.hasNext && !ssc.advance() {
		ssc.finish()
		return false
	}

	tid := ssc.nextTid
	ssc.items = ssc.items[:0]
	for ssc.hasNext && ssc.nextTid == tid {
		ssc.items = append(ssc.items, ssc.nextItem)
		ssc.hasNext = false
		ssc.advance()
	}
	if ssc.err != nil {
		ssc.finish()
		return false
	}
	if !ssc.hasNext {
		// Rows are exhausted but the grouped transaction still has to
		// be surfaced.
		ssc.finish()
	}
	return true
}

func (ssc *sqlScanner) Items() []string {
	return ssc.items
}

func (ssc *sqlScanner) Err() error {
	return ssc.err
}

func (ssc *sqlScanner) advance() bool {
	if !ssc.rows.Next() {
		if err := ssc.rows.Err(); err != nil {
			ssc.err = err
		}
		return false
	}
	if err := ssc.rows.Scan(&ssc.nextTid, &ssc.nextItem); err != nil {
		ssc.err = err
		return false
	}
	ssc.hasNext = true
	return true
}

func (ssc *sqlScanner) finish() {
	if ssc.done {
		return
	}
	ssc.done = true
	if err := ssc.rows.Close(); err != nil && ssc.err == nil {
		ssc.err = err
	}
}
