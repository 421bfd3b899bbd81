package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"apriori/filestore"
	I "apriori/itemset"
	"apriori/metrics"
	"apriori/task"

	cache "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
)

const (
	IdSeparator = ":"
)

// RuleStore serves run artifacts to the rule server. Reads go through
// an LRU cache, then local disk, then the cloud store, with misses
// written back to the faster layers.
type RuleStore struct {
	cloudFileManager filestore.FileManager
	diskFileManager  filestore.FileManager

	ruleChunkCache *cache.Cache
	runMetaCache   *cache.Cache
}

func New(chunkCacheSize, metaCacheSize int, diskManager, cloudManager filestore.FileManager) (*RuleStore, error) {
	ruleChunkCache, err := cache.New(chunkCacheSize)
	if err != nil {
		return nil, err
	}

	runMetaCache, err := cache.New(metaCacheSize)
	if err != nil {
		return nil, err
	}

	return &RuleStore{
		ruleChunkCache:   ruleChunkCache,
		runMetaCache:     runMetaCache,
		diskFileManager:  diskManager,
		cloudFileManager: cloudManager,
	}, nil
}

func GetRunKey(datasetId uint64, runId string) string {
	return fmt.Sprintf("%d%s%s", datasetId, IdSeparator, runId)
}

func GetChunkKey(datasetId uint64, runId string, chunkId string) string {
	return fmt.Sprintf("%s%s%s", GetRunKey(datasetId, runId), IdSeparator, chunkId)
}

func getRunSummaryCacheKey(datasetId uint64, runId string) string {
	return fmt.Sprintf("%s%s%s", "summary", IdSeparator, GetRunKey(datasetId, runId))
}

func getItemsetsCacheKey(datasetId uint64, runId string) string {
	return fmt.Sprintf("%s%s%s", "itemsets", IdSeparator, GetRunKey(datasetId, runId))
}

func getRuleChunkCacheKey(datasetId uint64, runId string, chunkId string) string {
	return fmt.Sprintf("%s%s%s", "chunk", IdSeparator, GetChunkKey(datasetId, runId, chunkId))
}

func (rs *RuleStore) putRunSummaryInCache(datasetId uint64, runId string, summary task.RunSummary) {
	// Summaries are a few hundred bytes. No forced GC on eviction.
	rs.runMetaCache.Add(getRunSummaryCacheKey(datasetId, runId), summary)
}

func (rs *RuleStore) getRunSummaryFromCache(datasetId uint64, runId string) (task.RunSummary, bool) {
	summaryIface, ok := rs.runMetaCache.Get(getRunSummaryCacheKey(datasetId, runId))
	if !ok {
		return task.RunSummary{}, false
	}
	summary, ok := summaryIface.(task.RunSummary)
	return summary, ok
}

func putRunSummaryToFileManager(fm filestore.FileManager, datasetId uint64, runId string, summary task.RunSummary) error {
	path, fName := fm.GetRunSummaryFilePathAndName(datasetId, runId)

	reader, err := CreateReaderFromRunSummary(summary)
	if err != nil {
		return err
	}
	return fm.Create(path, fName, reader)
}

func (rs *RuleStore) PutRunSummaryInDisk(datasetId uint64, runId string, summary task.RunSummary) error {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	}).Debugln("[RuleStore] putRunSummaryInDisk")

	return putRunSummaryToFileManager(rs.diskFileManager, datasetId, runId, summary)
}

func getRunSummaryFromFileManager(fm filestore.FileManager, datasetId uint64, runId string) (task.RunSummary, error) {
	path, fName := fm.GetRunSummaryFilePathAndName(datasetId, runId)
	summaryFile, err := fm.Get(path, fName)
	if err != nil {
		return task.RunSummary{}, err
	}
	defer summaryFile.Close()

	scanner := CreateScannerFromReader(summaryFile)
	return CreateRunSummaryFromScanner(scanner)
}

func (rs *RuleStore) getRunSummaryFromDisk(datasetId uint64, runId string) (task.RunSummary, error) {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	}).Debugln("[RuleStore] getRunSummaryFromDisk")

	return getRunSummaryFromFileManager(rs.diskFileManager, datasetId, runId)
}

func (rs *RuleStore) getRunSummaryFromCloud(datasetId uint64, runId string) (task.RunSummary, error) {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	}).Debugln("[RuleStore] getRunSummaryFromCloud")

	return getRunSummaryFromFileManager(rs.cloudFileManager, datasetId, runId)
}

func (rs *RuleStore) GetRunSummary(datasetId uint64, runId string) (task.RunSummary, error) {
	logCtx := log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	})

	logCtx.Debugln("[RuleStore] GetRunSummary")

	summary, foundInCache := rs.getRunSummaryFromCache(datasetId, runId)
	if foundInCache {
		return summary, nil
	}

	writeToCache := !foundInCache
	writeToDisk := false

	summary, err := rs.getRunSummaryFromDisk(datasetId, runId)
	if err != nil {
		if os.IsNotExist(err) {
			writeToDisk = true
			summary, err = rs.getRunSummaryFromCloud(datasetId, runId)
			if err != nil {
				return task.RunSummary{}, err
			}
		} else {
			return task.RunSummary{}, err
		}
	}

	if writeToCache {
		rs.putRunSummaryInCache(datasetId, runId, summary)
	}

	if writeToDisk {
		err = rs.PutRunSummaryInDisk(datasetId, runId, summary)
		if err != nil {
			logCtx.WithError(err).Error("Failed to write run summary to disk")
		}
	}

	return summary, nil
}

func (rs *RuleStore) putItemsetsInCache(datasetId uint64, runId string, itemsets I.ItemsetMap) {
	logCtx := log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	})
	logCtx.Debugln("[RuleStore] putItemsetsInCache")

	itemsetsKey := getItemsetsCacheKey(datasetId, runId)
	evict := rs.runMetaCache.Add(itemsetsKey, itemsets)
	if evict {
		start := time.Now()
		runtime.GC()
		// Releasing memory back to the OS
		// https://stackoverflow.com/questions/37382600/cannot-free-memory-once-occupied-by-bytes-buffer
		debug.FreeOSMemory()
		logCtx.WithFields(log.Fields{
			"Duration (nanoseconds)": time.Since(start).Nanoseconds(),
		}).Info("GC Finished [RuleStore] putItemsetsInCache")
	}
}

func (rs *RuleStore) getItemsetsFromCache(datasetId uint64, runId string) (I.ItemsetMap, bool) {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	}).Debugln("[RuleStore] getItemsetsFromCache")

	itemsetsIface, ok := rs.runMetaCache.Get(getItemsetsCacheKey(datasetId, runId))
	if !ok {
		return nil, false
	}
	itemsets, ok := itemsetsIface.(I.ItemsetMap)
	return itemsets, ok
}

func putItemsetsToFileManager(fm filestore.FileManager, datasetId uint64, runId string, itemsets I.ItemsetMap) error {
	path, fName := fm.GetRunItemsetsFilePathAndName(datasetId, runId)

	reader, err := CreateReaderFromItemsets(itemsets)
	if err != nil {
		return err
	}
	return fm.Create(path, fName, reader)
}

func (rs *RuleStore) PutItemsetsInDisk(datasetId uint64, runId string, itemsets I.ItemsetMap) error {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	}).Debugln("[RuleStore] putItemsetsInDisk")

	return putItemsetsToFileManager(rs.diskFileManager, datasetId, runId, itemsets)
}

func getItemsetsFromFileManager(fm filestore.FileManager, datasetId uint64, runId string) (I.ItemsetMap, error) {
	path, fName := fm.GetRunItemsetsFilePathAndName(datasetId, runId)
	itemsetsFile, err := fm.Get(path, fName)
	if err != nil {
		return nil, err
	}
	defer itemsetsFile.Close()

	scanner := CreateScannerFromReader(itemsetsFile)
	return CreateItemsetsFromScanner(scanner)
}

func (rs *RuleStore) getItemsetsFromDisk(datasetId uint64, runId string) (I.ItemsetMap, error) {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	}).Debugln("[RuleStore] getItemsetsFromDisk")

	return getItemsetsFromFileManager(rs.diskFileManager, datasetId, runId)
}

func (rs *RuleStore) getItemsetsFromCloud(datasetId uint64, runId string) (I.ItemsetMap, error) {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	}).Debugln("[RuleStore] getItemsetsFromCloud")

	return getItemsetsFromFileManager(rs.cloudFileManager, datasetId, runId)
}

func (rs *RuleStore) GetItemsets(datasetId uint64, runId string) (I.ItemsetMap, error) {
	logCtx := log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
	})

	logCtx.Debugln("[RuleStore] GetItemsets")

	itemsets, foundInCache := rs.getItemsetsFromCache(datasetId, runId)
	if foundInCache {
		return itemsets, nil
	}

	writeToCache := !foundInCache
	writeToDisk := false

	itemsets, err := rs.getItemsetsFromDisk(datasetId, runId)
	if err != nil {
		if os.IsNotExist(err) {
			writeToDisk = true
			itemsets, err = rs.getItemsetsFromCloud(datasetId, runId)
			if err != nil {
				return I.ItemsetMap{}, err
			}
		} else {
			return I.ItemsetMap{}, err
		}
	}

	if writeToCache {
		rs.putItemsetsInCache(datasetId, runId, itemsets)
	}

	if writeToDisk {
		err = rs.PutItemsetsInDisk(datasetId, runId, itemsets)
		if err != nil {
			logCtx.WithError(err).Error("Failed to write itemsets to disk")
		}
	}

	return itemsets, nil
}

func (rs *RuleStore) putRuleChunkInCache(datasetId uint64, runId string, chunkId string, rules I.RuleList) {
	logCtx := log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
		"cid": chunkId,
	})
	logCtx.Debugln("[RuleStore] putRuleChunkInCache")

	chunkKey := getRuleChunkCacheKey(datasetId, runId, chunkId)
	evict := rs.ruleChunkCache.Add(chunkKey, rules)
	if evict {
		start := time.Now()
		runtime.GC()
		// Releasing memory back to the OS
		// https://stackoverflow.com/questions/37382600/cannot-free-memory-once-occupied-by-bytes-buffer
		debug.FreeOSMemory()
		logCtx.WithFields(log.Fields{
			"Duration (nanoseconds)": time.Since(start).Nanoseconds(),
		}).Info("GC Finished [RuleStore] putRuleChunkInCache")
	}
}

func (rs *RuleStore) getRuleChunkFromCache(datasetId uint64, runId string, chunkId string) (I.RuleList, bool) {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
		"cid": chunkId,
	}).Debugln("[RuleStore] getRuleChunkFromCache")

	rulesIface, ok := rs.ruleChunkCache.Get(getRuleChunkCacheKey(datasetId, runId, chunkId))
	if !ok {
		return nil, false
	}
	rules, ok := rulesIface.(I.RuleList)
	return rules, ok
}

func putRuleChunkToFileManager(fm filestore.FileManager, datasetId uint64, runId string, chunkId string, rules I.RuleList) error {
	path, fName := fm.GetRuleChunkFilePathAndName(datasetId, runId, chunkId)

	reader, err := CreateReaderFromRules(rules)
	if err != nil {
		return err
	}
	return fm.Create(path, fName, reader)
}

func (rs *RuleStore) PutRuleChunkInDisk(datasetId uint64, runId string, chunkId string, rules I.RuleList) error {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
		"cid": chunkId,
	}).Debugln("[RuleStore] putRuleChunkInDisk")

	return putRuleChunkToFileManager(rs.diskFileManager, datasetId, runId, chunkId, rules)
}

func getRuleChunkFromFileManager(fm filestore.FileManager, datasetId uint64, runId string, chunkId string) (I.RuleList, error) {
	path, fName := fm.GetRuleChunkFilePathAndName(datasetId, runId, chunkId)
	rulesFile, err := fm.Get(path, fName)
	if err != nil {
		return nil, err
	}
	defer rulesFile.Close()

	scanner := CreateScannerFromReader(rulesFile)
	return CreateRulesFromScanner(scanner)
}

func (rs *RuleStore) getRuleChunkFromDisk(datasetId uint64, runId string, chunkId string) (I.RuleList, error) {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
		"cid": chunkId,
	}).Debugln("[RuleStore] getRuleChunkFromDisk")

	return getRuleChunkFromFileManager(rs.diskFileManager, datasetId, runId, chunkId)
}

func (rs *RuleStore) getRuleChunkFromCloud(datasetId uint64, runId string, chunkId string) (I.RuleList, error) {
	log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
		"cid": chunkId,
	}).Debugln("[RuleStore] getRuleChunkFromCloud")

	return getRuleChunkFromFileManager(rs.cloudFileManager, datasetId, runId, chunkId)
}

func (rs *RuleStore) GetRuleChunk(datasetId uint64, runId string, chunkId string) (I.RuleList, error) {
	logCtx := log.WithFields(log.Fields{
		"did": datasetId,
		"rid": runId,
		"cid": chunkId,
	})

	logCtx.Debugln("[RuleStore] GetRuleChunk")

	rules, foundInCache := rs.getRuleChunkFromCache(datasetId, runId, chunkId)
	if foundInCache {
		metrics.Increment(metrics.IncrRuleServerCacheHit)
		return rules, nil
	}
	metrics.Increment(metrics.IncrRuleServerCacheMiss)

	writeToCache := !foundInCache
	writeToDisk := false

	rules, err := rs.getRuleChunkFromDisk(datasetId, runId, chunkId)
	if err != nil {
		if os.IsNotExist(err) {
			writeToDisk = true
			rules, err = rs.getRuleChunkFromCloud(datasetId, runId, chunkId)
			if err != nil {
				return I.RuleList{}, err
			}
		} else {
			return I.RuleList{}, err
		}
	}

	if writeToCache {
		rs.putRuleChunkInCache(datasetId, runId, chunkId, rules)
	}

	if writeToDisk {
		err = rs.PutRuleChunkInDisk(datasetId, runId, chunkId, rules)
		if err != nil {
			logCtx.WithError(err).Error("Failed to write rule chunk to disk")
		}
	}

	return rules, nil
}

// GetRules loads every chunk of the run, in chunk order.
func (rs *RuleStore) GetRules(datasetId uint64, runId string) (I.RuleList, error) {
	summary, err := rs.GetRunSummary(datasetId, runId)
	if err != nil {
		return nil, err
	}

	rules := make(I.RuleList, 0, summary.NumRules)
	for c := 1; c <= summary.NumChunks; c++ {
		chunk, err := rs.GetRuleChunk(datasetId, runId, strconv.Itoa(c))
		if err != nil {
			return nil, err
		}
		rules = append(rules, chunk...)
	}
	return rules, nil
}

func CreateScannerFromReader(reader io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, I.MAX_LINE_BYTES)
	scanner.Buffer(buf, I.MAX_LINE_BYTES)
	return scanner
}

func CreateReaderFromRunSummary(summary task.RunSummary) (*bytes.Reader, error) {
	summaryBytes, err := json.Marshal(summary)
	if err != nil {
		log.WithFields(log.Fields{"err": err}).Error("Failed to marshal run summary.")
		return nil, err
	}
	return bytes.NewReader(summaryBytes), nil
}

func CreateRunSummaryFromScanner(scanner *bufio.Scanner) (task.RunSummary, error) {
	summary := task.RunSummary{}
	for scanner.Scan() {
		line := scanner.Bytes()
		if err := json.Unmarshal(line, &summary); err != nil {
			log.WithFields(log.Fields{"line": string(line), "err": err}).Error("Unable to unmarshal run summary.")
			return task.RunSummary{}, err
		}
	}
	if err := scanner.Err(); err != nil {
		return task.RunSummary{}, err
	}
	return summary, nil
}

func CreateReaderFromItemsets(itemsets I.ItemsetMap) (*bytes.Reader, error) {
	var buf bytes.Buffer
	for _, itemset := range itemsets.List() {
		itemsetBytes, err := json.Marshal(itemset)
		if err != nil {
			log.WithFields(log.Fields{"err": err}).Error("Failed to marshal itemset.")
			return nil, err
		}
		buf.WriteString(fmt.Sprintf("%s\n", itemsetBytes))
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func CreateItemsetsFromScanner(scanner *bufio.Scanner) (I.ItemsetMap, error) {
	itemsets := make(I.ItemsetMap)
	for scanner.Scan() {
		line := scanner.Bytes()
		var parsed I.Itemset
		if err := json.Unmarshal(line, &parsed); err != nil {
			log.WithFields(log.Fields{"line": string(line), "err": err}).Error("Unable to unmarshal itemset.")
			return nil, err
		}
		itemset, err := I.NewItemsetWithSupport(parsed.Items, parsed.Support)
		if err != nil {
			log.WithFields(log.Fields{"line": string(line), "err": err}).Error("Invalid itemset in run file.")
			return nil, err
		}
		itemsets[itemset.Key()] = itemset
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return itemsets, nil
}

func CreateReaderFromRules(rules I.RuleList) (*bytes.Reader, error) {
	var buf bytes.Buffer
	for _, rule := range rules {
		ruleBytes, err := json.Marshal(rule)
		if err != nil {
			log.WithFields(log.Fields{"err": err}).Error("Failed to marshal rule.")
			return nil, err
		}
		buf.WriteString(fmt.Sprintf("%s\n", ruleBytes))
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func CreateRulesFromScanner(scanner *bufio.Scanner) (I.RuleList, error) {
	rules := make(I.RuleList, 0)
	for scanner.Scan() {
		line := scanner.Bytes()
		var rule I.AssociationRule
		if err := json.Unmarshal(line, &rule); err != nil {
			log.WithFields(log.Fields{"line": string(line), "err": err}).Error("Unable to unmarshal rule.")
			return nil, err
		}
		rules = append(rules, &rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}
