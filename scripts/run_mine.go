package main

import (
	"flag"
	"strconv"
	"strings"

	C "apriori/config"
	"apriori/metrics"
	"apriori/task"

	log "github.com/sirupsen/logrus"
)

// Mines one or more datasets and publishes the runs to the configured
// object store.
//
// go run run_mine.go --config_filepath=../config/config.json --dataset_ids=1,2,6 --min_support=0.1 --min_conf=0.3 --num_routines=3
func main() {

	datasetIdsFlag := flag.String("dataset_ids", "", "Comma separated list of dataset ids. ex: 1,2,6,9")
	sourceType := flag.String("source_type", task.SourceTypeFile, "Where transactions are read from. file or sql")
	minSupport := flag.Float64("min_support", 0.1, "Smallest share of transactions an itemset may appear in")
	minConfidence := flag.Float64("min_conf", 0.3, "Smallest confidence a rule may have")
	sweepTarget := flag.Int("sweep_target", 0, "Optional: sweep thresholds down until this many results")
	sweepFloor := flag.Float64("sweep_floor", 0, "Lowest threshold a sweep may reach")
	sweepDelta := flag.Float64("sweep_delta", 0.05, "Threshold step per sweep stage")
	sortMetric := flag.String("sort_metric", "", "Optional: metric ordering the stored rules")
	topK := flag.Int("top_k", 0, "Optional: keep only the best k rules")
	numRoutinesFlag := flag.Int("num_routines", 3, "No of routines")

	flag.Parse()

	err := C.Init()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize config")
	}

	conf := C.GetConfig()
	exporter := metrics.InitMetrics(conf.Env, "mine_job", conf.GCPProjectID, conf.GCPProjectLocation)
	if exporter != nil {
		defer exporter.StopMetricsExporter()
	}

	log.WithFields(log.Fields{
		"DatasetIds":  *datasetIdsFlag,
		"SourceType":  *sourceType,
		"MinSupport":  *minSupport,
		"MinConf":     *minConfidence,
		"NumRoutines": *numRoutinesFlag,
	}).Infoln("Initialising")

	if *numRoutinesFlag < 1 {
		log.Fatal("num_routines is less than one.")
	}

	jobs := make([]task.MineParams, 0)
	for _, idStr := range strings.Split(*datasetIdsFlag, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		datasetId, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			log.WithError(err).WithField("dataset_id", idStr).Fatal("Bad dataset id")
		}
		jobs = append(jobs, task.MineParams{
			DatasetId:     datasetId,
			SourceType:    *sourceType,
			MinSupport:    *minSupport,
			MinConfidence: *minConfidence,
			SweepTarget:   *sweepTarget,
			SweepFloor:    *sweepFloor,
			SweepDelta:    *sweepDelta,
			SortMetric:    *sortMetric,
			TopKRules:     *topK,
		})
	}
	if len(jobs) == 0 {
		log.Fatal("No dataset ids given.")
	}

	services := C.GetServices()
	summaries := task.MineAll(services.Db, services.FileManager, jobs, *numRoutinesFlag)

	failed := 0
	for i, summary := range summaries {
		logCtx := log.WithField("dataset_id", jobs[i].DatasetId)
		if summary == nil {
			failed++
			logCtx.Error("Mine failed.")
			continue
		}
		logCtx.WithFields(log.Fields{
			"run_id":       summary.RunId,
			"num_itemsets": summary.NumItemsets,
			"num_rules":    summary.NumRules,
			"num_chunks":   summary.NumChunks,
			"time_ms":      summary.TimeTakenMs,
		}).Info("Mine finished.")
	}
	if failed > 0 {
		log.WithField("failed", failed).Fatal("Some datasets failed to mine.")
	}
}
