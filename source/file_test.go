package source

import (
	"strconv"
	"strings"
	"testing"

	I "apriori/itemset"
	"apriori/services/disk"

	"github.com/stretchr/testify/assert"
)

const testDatasetId = uint64(42)

func writeTestDataset(t *testing.T, diskDriver *disk.DiskDriver, transactions [][]string) {
	records := make([]TransactionRecord, 0, len(transactions))
	for i, items := range transactions {
		records = append(records, TransactionRecord{
			TransactionId: "t" + strconv.Itoa(i+1),
			Items:         items,
		})
	}
	reader, err := CreateReaderFromTransactions(records)
	assert.Nil(t, err)

	path, name := diskDriver.GetDatasetTransactionsFilePathAndName(testDatasetId)
	err = diskDriver.Create(path, name, reader)
	assert.Nil(t, err)
}

func TestFileSourceMine(t *testing.T) {
	diskDriver := disk.New(t.TempDir())
	writeTestDataset(t, diskDriver, basketTransactions())

	src := NewFileSource(diskDriver, testDatasetId)
	frequent, err := I.MineFrequentItemsets(src, 0.5, nil)
	assert.Nil(t, err)
	assert.Equal(t, 9, len(frequent))

	support, ok := frequent.SupportOf([]string{"bread", "sugar"})
	assert.True(t, ok)
	assert.Equal(t, 0.5, support)
}

func TestFileSourceSkipsBlankLines(t *testing.T) {
	diskDriver := disk.New(t.TempDir())
	path, name := diskDriver.GetDatasetTransactionsFilePathAndName(testDatasetId)

	content := `{"tid":"t1","its":["a","b"]}

{"tid":"t2","its":["b","c"]}
`
	err := diskDriver.Create(path, name, strings.NewReader(content))
	assert.Nil(t, err)

	src := NewFileSource(diskDriver, testDatasetId)
	scanner, err := src.Scan()
	assert.Nil(t, err)

	var transactions [][]string
	for scanner.Next() {
		items := make([]string, len(scanner.Items()))
		copy(items, scanner.Items())
		transactions = append(transactions, items)
	}
	assert.Nil(t, scanner.Err())
	assert.Equal(t, [][]string{{"a", "b"}, {"b", "c"}}, transactions)
}

func TestFileSourceBadLine(t *testing.T) {
	diskDriver := disk.New(t.TempDir())
	path, name := diskDriver.GetDatasetTransactionsFilePathAndName(testDatasetId)

	content := `{"tid":"t1","its":["a","b"]}
not json
`
	err := diskDriver.Create(path, name, strings.NewReader(content))
	assert.Nil(t, err)

	src := NewFileSource(diskDriver, testDatasetId)
	scanner, err := src.Scan()
	assert.Nil(t, err)

	assert.True(t, scanner.Next())
	assert.False(t, scanner.Next())
	assert.NotNil(t, scanner.Err())
}

func TestFileSourceMissingFile(t *testing.T) {
	diskDriver := disk.New(t.TempDir())

	src := NewFileSource(diskDriver, testDatasetId)
	_, err := src.Scan()
	assert.NotNil(t, err)
}
