package store

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"apriori/filestore"
	I "apriori/itemset"
	serviceDisk "apriori/services/disk"
	"apriori/source"
	"apriori/task"

	"github.com/stretchr/testify/assert"
)

const (
	testDatasetId = uint64(42)
	testRunId     = "run-1"
)

func basketTransactions() [][]string {
	return [][]string{
		{"bread", "butter", "sugar"},
		{"coffee", "milk", "sugar"},
		{"bread", "coffee", "milk", "sugar"},
		{"coffee", "milk"},
	}
}

func minedArtifacts(t *testing.T) (I.ItemsetMap, I.RuleList) {
	frequent, err := I.MineFrequentItemsets(source.NewMemorySource(basketTransactions()), 0.5, nil)
	assert.Nil(t, err)
	rules, err := I.GenerateRules(frequent, 0.6, nil)
	assert.Nil(t, err)
	return frequent, rules
}

func seedRun(t *testing.T, fm filestore.FileManager, itemsets I.ItemsetMap, chunks []I.RuleList) task.RunSummary {
	numRules := 0
	for _, chunk := range chunks {
		numRules += len(chunk)
	}
	summary := task.RunSummary{
		RunId:         testRunId,
		DatasetId:     testDatasetId,
		NumItemsets:   len(itemsets),
		NumRules:      numRules,
		NumChunks:     len(chunks),
		MinSupport:    0.5,
		MinConfidence: 0.6,
		SortMetric:    I.MetricSupport,
		TimeTakenMs:   7,
	}

	assert.Nil(t, putRunSummaryToFileManager(fm, testDatasetId, testRunId, summary))
	assert.Nil(t, putItemsetsToFileManager(fm, testDatasetId, testRunId, itemsets))
	for i, chunk := range chunks {
		assert.Nil(t, putRuleChunkToFileManager(fm, testDatasetId, testRunId, strconv.Itoa(i+1), chunk))
	}
	return summary
}

func TestRunAndChunkKeys(t *testing.T) {
	assert.Equal(t, "42:run-1", GetRunKey(42, "run-1"))
	assert.Equal(t, "42:run-1:3", GetChunkKey(42, "run-1", "3"))
}

func TestGetRunSummaryFromCloudWritesBack(t *testing.T) {
	diskManager := serviceDisk.New(t.TempDir())
	cloudManager := serviceDisk.New(t.TempDir())
	itemsets, rules := minedArtifacts(t)
	summary := seedRun(t, cloudManager, itemsets, []I.RuleList{rules})

	store, err := New(2, 2, diskManager, cloudManager)
	assert.Nil(t, err)

	got, err := store.GetRunSummary(testDatasetId, testRunId)
	assert.Nil(t, err)
	assert.Equal(t, summary, got)

	// The miss was written back to local disk.
	path, fName := diskManager.GetRunSummaryFilePathAndName(testDatasetId, testRunId)
	_, err = os.Stat(path + fName)
	assert.Nil(t, err)
}

func TestGetRunSummaryServedFromCache(t *testing.T) {
	diskDir := t.TempDir()
	cloudDir := t.TempDir()
	diskManager := serviceDisk.New(diskDir)
	cloudManager := serviceDisk.New(cloudDir)
	itemsets, rules := minedArtifacts(t)
	summary := seedRun(t, cloudManager, itemsets, []I.RuleList{rules})

	store, err := New(2, 2, diskManager, cloudManager)
	assert.Nil(t, err)

	_, err = store.GetRunSummary(testDatasetId, testRunId)
	assert.Nil(t, err)

	// Remove the backing files. The cached copy still serves.
	assert.Nil(t, os.RemoveAll(diskDir))
	assert.Nil(t, os.RemoveAll(cloudDir))

	got, err := store.GetRunSummary(testDatasetId, testRunId)
	assert.Nil(t, err)
	assert.Equal(t, summary, got)
}

func TestGetRunSummaryMissing(t *testing.T) {
	store, err := New(2, 2, serviceDisk.New(t.TempDir()), serviceDisk.New(t.TempDir()))
	assert.Nil(t, err)

	_, err = store.GetRunSummary(testDatasetId, "no-such-run")
	assert.NotNil(t, err)
}

func TestGetItemsets(t *testing.T) {
	diskManager := serviceDisk.New(t.TempDir())
	cloudManager := serviceDisk.New(t.TempDir())
	itemsets, rules := minedArtifacts(t)
	seedRun(t, cloudManager, itemsets, []I.RuleList{rules})

	store, err := New(2, 2, diskManager, cloudManager)
	assert.Nil(t, err)

	got, err := store.GetItemsets(testDatasetId, testRunId)
	assert.Nil(t, err)
	assert.Equal(t, itemsets, got)

	support, found := got.SupportOf([]string{"coffee", "milk"})
	assert.True(t, found)
	assert.Equal(t, 0.75, support)
}

func TestCreateItemsetsFromScannerRejectsBadSupport(t *testing.T) {
	in := strings.NewReader(`{"its":["bread"],"s":1.5}` + "\n")

	_, err := CreateItemsetsFromScanner(CreateScannerFromReader(in))
	var domainErr *I.DomainError
	assert.True(t, errors.As(err, &domainErr))
}

func TestGetRulesAcrossChunks(t *testing.T) {
	diskManager := serviceDisk.New(t.TempDir())
	cloudManager := serviceDisk.New(t.TempDir())
	itemsets, rules := minedArtifacts(t)
	chunks := []I.RuleList{rules[:5], rules[5:]}
	seedRun(t, cloudManager, itemsets, chunks)

	store, err := New(4, 2, diskManager, cloudManager)
	assert.Nil(t, err)

	got, err := store.GetRules(testDatasetId, testRunId)
	assert.Nil(t, err)
	assert.Equal(t, rules, got)
}

func TestGetRuleChunkMissing(t *testing.T) {
	diskManager := serviceDisk.New(t.TempDir())
	cloudManager := serviceDisk.New(t.TempDir())
	itemsets, rules := minedArtifacts(t)
	seedRun(t, cloudManager, itemsets, []I.RuleList{rules})

	store, err := New(2, 2, diskManager, cloudManager)
	assert.Nil(t, err)

	_, err = store.GetRuleChunk(testDatasetId, testRunId, "2")
	assert.NotNil(t, err)
}
