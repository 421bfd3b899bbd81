package ruleserver

import (
	"errors"
	"math"
	"net/http"
	"time"

	I "apriori/itemset"
	"apriori/metrics"
	"apriori/task"
)

const (
	RPCServiceName = "rs"
	RPCEndpoint    = "/rpc"

	OperationNameGetRunSummary = "GetRunSummary"
	OperationNameGetItemsets   = "GetItemsets"
	OperationNameGetRules      = "GetRules"

	Separator = "."
)

type GenericRPCResp struct {
	DatasetId uint64 `json:"did"`
	RunId     string `json:"rid"`
	Error     error  `json:"error"`
}

type GetRunSummaryRequest struct {
	DatasetId uint64 `json:"did"`
	RunId     string `json:"rid"`
}

type GetRunSummaryResponse struct {
	GenericRPCResp
	Summary task.RunSummary `json:"summary"`
}

type GetItemsetsRequest struct {
	DatasetId uint64 `json:"did"`
	RunId     string `json:"rid"`
	MinSize   int    `json:"min_size"`
	Item      string `json:"item"`
	TopK      int    `json:"k"`
}

type GetItemsetsResponse struct {
	GenericRPCResp
	Itemsets I.ItemsetList `json:"itemsets"`
}

// GetRulesRequest selects and orders the rules of a run. SortWeights
// and HarmonicOf build a combined score, otherwise SortMetric names a
// single one.
type GetRulesRequest struct {
	DatasetId     uint64             `json:"did"`
	RunId         string             `json:"rid"`
	SortMetric    string             `json:"sm"`
	SortWeights   map[string]float64 `json:"sw"`
	HarmonicOf    []string           `json:"hm"`
	Item          string             `json:"item"`
	MinConfidence float64            `json:"mc"`
	TopK          int                `json:"k"`
}

type RuleWithMetrics struct {
	Rule       I.AssociationRule `json:"rule"`
	Confidence float64           `json:"confidence"`
	Lift       float64           `json:"lift"`
	Leverage   float64           `json:"leverage"`
	Conviction float64           `json:"conviction"`
	Score      float64           `json:"score"`
}

type GetRulesResponse struct {
	GenericRPCResp
	Rules []RuleWithMetrics `json:"rules"`
}

func (rs *RuleServer) GetRunSummary(r *http.Request, args *GetRunSummaryRequest, result *GetRunSummaryResponse) error {
	if args == nil || args.DatasetId == 0 || args.RunId == "" {
		err := errors.New("MissingParams")
		result.Error = err
		return err
	}
	metrics.Increment(metrics.IncrRuleServerRequests)

	summary, err := rs.store.GetRunSummary(args.DatasetId, args.RunId)
	if err != nil {
		result.Error = err
		return err
	}

	result.DatasetId = args.DatasetId
	result.RunId = args.RunId
	result.Summary = summary
	return nil
}

func (rs *RuleServer) GetItemsets(r *http.Request, args *GetItemsetsRequest, result *GetItemsetsResponse) error {
	if args == nil || args.DatasetId == 0 || args.RunId == "" {
		err := errors.New("MissingParams")
		result.Error = err
		return err
	}
	metrics.Increment(metrics.IncrRuleServerRequests)

	itemsetMap, err := rs.store.GetItemsets(args.DatasetId, args.RunId)
	if err != nil {
		result.Error = err
		return err
	}

	itemsets := itemsetMap.List()
	if args.MinSize > 0 {
		itemsets = itemsets.FilterBySize(args.MinSize)
	}
	if args.Item != "" {
		itemsets = itemsets.FilterByItem(args.Item)
	}
	itemsets.SortBySupport()
	if args.TopK > 0 {
		itemsets = itemsets.TopK(args.TopK)
	}

	result.DatasetId = args.DatasetId
	result.RunId = args.RunId
	result.Itemsets = itemsets
	return nil
}

func (rs *RuleServer) GetRules(r *http.Request, args *GetRulesRequest, result *GetRulesResponse) error {
	startTime := time.Now()
	if args == nil || args.DatasetId == 0 || args.RunId == "" {
		err := errors.New("MissingParams")
		result.Error = err
		return err
	}
	metrics.Increment(metrics.IncrRuleServerRequests)

	scoreMetric, err := resolveRuleMetric(args)
	if err != nil {
		result.Error = err
		return err
	}

	rules, err := rs.store.GetRules(args.DatasetId, args.RunId)
	if err != nil {
		result.Error = err
		return err
	}

	if args.Item != "" {
		rules = rules.FilterByItem(args.Item)
	}
	if args.MinConfidence > 0 {
		confidence, _ := I.MetricByName(I.MetricConfidence)
		rules = rules.FilterByMetric(confidence, args.MinConfidence)
	}
	rules.SortByMetric(scoreMetric)
	if args.TopK > 0 {
		rules = rules.TopK(args.TopK)
	}

	result.DatasetId = args.DatasetId
	result.RunId = args.RunId
	result.Rules = rulesWithMetrics(rules, scoreMetric)

	rs.countServed(len(result.Rules))
	metrics.RecordLatency(metrics.LatencyRuleServerGetRules,
		float64(time.Since(startTime).Nanoseconds())/float64(1000000))
	return nil
}

func resolveRuleMetric(args *GetRulesRequest) (I.RuleMetric, error) {
	if len(args.SortWeights) > 0 {
		return I.WeightedMetric(args.SortWeights)
	}
	if len(args.HarmonicOf) > 0 {
		return I.HarmonicMetric(args.HarmonicOf...)
	}
	sortMetric := args.SortMetric
	if sortMetric == "" {
		sortMetric = I.MetricSupport
	}
	return I.MetricByName(sortMetric)
}

// jsonSafe keeps values encodable. JSON has no representation for
// infinities and conviction of an exception free rule is +Inf.
func jsonSafe(value float64) float64 {
	if math.IsInf(value, 1) {
		return math.MaxFloat64
	}
	if math.IsNaN(value) {
		return 0
	}
	return value
}

func rulesWithMetrics(rules I.RuleList, score I.RuleMetric) []RuleWithMetrics {
	withMetrics := make([]RuleWithMetrics, 0, len(rules))
	for _, rule := range rules {
		withMetrics = append(withMetrics, RuleWithMetrics{
			Rule:       *rule,
			Confidence: rule.Confidence(),
			Lift:       rule.Lift(),
			Leverage:   rule.Leverage(),
			Conviction: jsonSafe(rule.Conviction()),
			Score:      jsonSafe(score(rule)),
		})
	}
	return withMetrics
}
