package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"apriori/filestore"
	I "apriori/itemset"
	"apriori/metrics"
	"apriori/source"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

// Rules are published to the store in fixed size chunks so the rule
// server can page them in one file at a time.
const max_RULES_PER_CHUNK = 10000

var mineLog = taskLog.WithField("prefix", "Task#DatasetMine")

const (
	SourceTypeFile = "file"
	SourceTypeSQL  = "sql"
)

type MineParams struct {
	DatasetId     uint64  `json:"did"`
	SourceType    string  `json:"st"`
	MinSupport    float64 `json:"ms"`
	MinConfidence float64 `json:"mc"`

	// When SweepTarget is positive both thresholds are swept downward
	// from their configured values until the target result count is
	// reached.
	SweepTarget int     `json:"swt"`
	SweepFloor  float64 `json:"swf"`
	SweepDelta  float64 `json:"swd"`

	SortMetric string `json:"sm"`
	TopKRules  int    `json:"k"`
}

// RunSummary is written next to the run artifacts once a mine
// finishes. MinSupport and MinConfidence hold the thresholds actually
// applied, which in sweep mode are the last ones visited.
type RunSummary struct {
	RunId         string  `json:"rid"`
	DatasetId     uint64  `json:"did"`
	NumItemsets   int     `json:"ni"`
	NumRules      int     `json:"nr"`
	NumChunks     int     `json:"nc"`
	MinSupport    float64 `json:"ms"`
	MinConfidence float64 `json:"mc"`
	SortMetric    string  `json:"sm"`
	TimeTakenMs   int64   `json:"ttm"`
}

// mineObserver forwards progress to the task log and keeps track of
// the sweep so the summary can report what was actually mined.
type mineObserver struct {
	*I.LogObserver
	lastThreshold float64
	sweepSteps    int
}

func newMineObserver(entry *log.Entry) *mineObserver {
	return &mineObserver{LogObserver: I.NewLogObserver(entry)}
}

func (mo *mineObserver) SweepStep(threshold float64, resultSize int) {
	mo.LogObserver.SweepStep(threshold, resultSize)
	mo.lastThreshold = threshold
	mo.sweepSteps++
}

func transactionSource(db *gorm.DB, fileManager filestore.FileManager, params MineParams) (I.TransactionSource, error) {
	switch params.SourceType {
	case SourceTypeFile, "":
		return source.NewFileSource(fileManager, params.DatasetId), nil
	case SourceTypeSQL:
		if db == nil {
			return nil, fmt.Errorf("sql source needs a database connection")
		}
		return source.NewSQLSource(db, params.DatasetId), nil
	}
	return nil, fmt.Errorf("unknown source type %s", params.SourceType)
}

func mineItemsets(src I.TransactionSource, params MineParams, obs *mineObserver) (I.ItemsetMap, float64, error) {
	if params.SweepTarget <= 0 {
		frequent, err := I.MineFrequentItemsets(src, params.MinSupport, obs)
		return frequent, params.MinSupport, err
	}

	opts, err := I.NewSweepOptions(params.MinSupport, params.SweepFloor, params.SweepDelta, params.SweepTarget)
	if err != nil {
		return nil, 0, err
	}
	frequent, err := I.SweepItemsets(src, opts, obs)
	if err != nil {
		return nil, 0, err
	}
	return frequent, obs.lastThreshold, nil
}

func deriveRules(frequent I.ItemsetMap, params MineParams, obs *mineObserver) (I.RuleList, float64, error) {
	if params.SweepTarget <= 0 {
		rules, err := I.GenerateRules(frequent, params.MinConfidence, obs)
		return rules, params.MinConfidence, err
	}

	opts, err := I.NewSweepOptions(params.MinConfidence, params.SweepFloor, params.SweepDelta, params.SweepTarget)
	if err != nil {
		return nil, 0, err
	}
	rules, err := I.SweepRules(frequent, opts, obs)
	if err != nil {
		return nil, 0, err
	}
	return rules, obs.lastThreshold, nil
}

// MineDataset runs one full mine of a dataset. Frequent itemsets, the
// rule chunks and a run summary are written to the file manager under
// a fresh run id.
func MineDataset(db *gorm.DB, fileManager filestore.FileManager, params MineParams) (*RunSummary, error) {
	startTime := time.Now()
	runId := uuid.New().String()
	logCtx := mineLog.WithFields(log.Fields{
		"dataset_id": params.DatasetId,
		"run_id":     runId,
	})
	metrics.Increment(metrics.IncrMineDatasetCount)

	src, err := transactionSource(db, fileManager, params)
	if err != nil {
		logCtx.WithError(err).Error("Failed to build transaction source.")
		metrics.Increment(metrics.IncrMineDatasetFailures)
		return nil, err
	}

	obs := newMineObserver(logCtx)

	frequent, minSupport, err := mineItemsets(src, params, obs)
	if err != nil {
		logCtx.WithError(err).Error("Failed to mine frequent itemsets.")
		metrics.Increment(metrics.IncrMineDatasetFailures)
		return nil, err
	}

	rules, minConfidence, err := deriveRules(frequent, params, obs)
	if err != nil {
		logCtx.WithError(err).Error("Failed to derive rules.")
		metrics.Increment(metrics.IncrMineDatasetFailures)
		return nil, err
	}

	sortMetricName := params.SortMetric
	if sortMetricName == "" {
		sortMetricName = I.MetricSupport
	}
	sortMetric, err := I.MetricByName(sortMetricName)
	if err != nil {
		logCtx.WithError(err).Error("Failed to resolve sort metric.")
		metrics.Increment(metrics.IncrMineDatasetFailures)
		return nil, err
	}
	rules.SortByMetric(sortMetric)
	if params.TopKRules > 0 {
		rules = rules.TopK(params.TopKRules)
	}

	if err := writeItemsets(fileManager, params.DatasetId, runId, frequent); err != nil {
		logCtx.WithError(err).Error("Failed to write itemsets file.")
		metrics.Increment(metrics.IncrMineDatasetFailures)
		return nil, err
	}

	numChunks, err := writeRuleChunks(fileManager, params.DatasetId, runId, rules)
	if err != nil {
		logCtx.WithError(err).Error("Failed to write rule chunks.")
		metrics.Increment(metrics.IncrMineDatasetFailures)
		return nil, err
	}

	summary := &RunSummary{
		RunId:         runId,
		DatasetId:     params.DatasetId,
		NumItemsets:   len(frequent),
		NumRules:      len(rules),
		NumChunks:     numChunks,
		MinSupport:    minSupport,
		MinConfidence: minConfidence,
		SortMetric:    sortMetricName,
		TimeTakenMs:   time.Since(startTime).Milliseconds(),
	}
	if err := writeRunSummary(fileManager, summary); err != nil {
		logCtx.WithError(err).Error("Failed to write run summary.")
		metrics.Increment(metrics.IncrMineDatasetFailures)
		return nil, err
	}

	metrics.CountInt(metrics.CountFrequentItemsets, int64(summary.NumItemsets))
	metrics.CountInt(metrics.CountRulesGenerated, int64(summary.NumRules))
	metrics.CountInt(metrics.CountSweepSteps, int64(obs.sweepSteps))
	metrics.RecordLatency(metrics.LatencyMineDataset, float64(summary.TimeTakenMs))

	logCtx.WithFields(log.Fields{
		"num_itemsets": summary.NumItemsets,
		"num_rules":    summary.NumRules,
		"num_chunks":   summary.NumChunks,
		"time_ms":      summary.TimeTakenMs,
	}).Info("Finished mining dataset.")
	return summary, nil
}

func writeItemsets(fileManager filestore.FileManager, datasetId uint64, runId string, frequent I.ItemsetMap) error {
	buf := new(bytes.Buffer)
	for _, is := range frequent.List() {
		isBytes, err := json.Marshal(is)
		if err != nil {
			return err
		}
		if _, err := buf.WriteString(fmt.Sprintf("%s\n", string(isBytes))); err != nil {
			return err
		}
	}

	path, name := fileManager.GetRunItemsetsFilePathAndName(datasetId, runId)
	return fileManager.Create(path, name, bytes.NewReader(buf.Bytes()))
}

func writeRuleChunks(fileManager filestore.FileManager, datasetId uint64, runId string, rules I.RuleList) (int, error) {
	numChunks := int(math.Ceil(float64(len(rules)) / float64(max_RULES_PER_CHUNK)))
	for c := 0; c < numChunks; c++ {
		low := c * max_RULES_PER_CHUNK
		high := int(math.Min(float64(low+max_RULES_PER_CHUNK), float64(len(rules))))

		buf := new(bytes.Buffer)
		for _, rule := range rules[low:high] {
			ruleBytes, err := json.Marshal(rule)
			if err != nil {
				return 0, err
			}
			if _, err := buf.WriteString(fmt.Sprintf("%s\n", string(ruleBytes))); err != nil {
				return 0, err
			}
		}

		chunkId := strconv.Itoa(c + 1)
		path, name := fileManager.GetRuleChunkFilePathAndName(datasetId, runId, chunkId)
		metrics.RecordBytesSize(metrics.BytesRuleChunkSize, float64(buf.Len()))
		if err := fileManager.Create(path, name, bytes.NewReader(buf.Bytes())); err != nil {
			return 0, err
		}
	}
	return numChunks, nil
}

func writeRunSummary(fileManager filestore.FileManager, summary *RunSummary) error {
	summaryBytes, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	path, name := fileManager.GetRunSummaryFilePathAndName(summary.DatasetId, summary.RunId)
	return fileManager.Create(path, name, bytes.NewReader(summaryBytes))
}

// MineAll mines jobs over numRoutines workers in contiguous batches.
// The returned slice lines up with jobs, with a nil summary marking a
// failed job.
func MineAll(db *gorm.DB, fileManager filestore.FileManager, jobs []MineParams, numRoutines int) []*RunSummary {
	if numRoutines < 1 {
		numRoutines = 1
	}

	summaries := make([]*RunSummary, len(jobs))
	var wg sync.WaitGroup
	batchSize := int(math.Ceil(float64(len(jobs)) / float64(numRoutines)))
	for i := 0; i < numRoutines; i++ {
		low := i * batchSize
		high := int(math.Min(float64(low+batchSize), float64(len(jobs))))
		if low >= high {
			continue
		}
		wg.Add(1)
		go mineBatch(db, fileManager, jobs, summaries, low, high, &wg)
	}
	wg.Wait()
	return summaries
}

func mineBatch(db *gorm.DB, fileManager filestore.FileManager, jobs []MineParams,
	summaries []*RunSummary, low, high int, wg *sync.WaitGroup) {
	defer wg.Done()
	for i := low; i < high; i++ {
		summary, err := MineDataset(db, fileManager, jobs[i])
		if err != nil {
			mineLog.WithFields(log.Fields{
				"dataset_id": jobs[i].DatasetId,
			}).WithError(err).Error("Failed to mine dataset.")
			continue
		}
		summaries[i] = summary
	}
}
