package ruleserver

import (
	"bytes"
	"errors"
	"fmt"

	"net/http"
	"sync"

	C "apriori/config"
	I "apriori/itemset"
	"apriori/task"

	"github.com/gorilla/rpc/json"
	log "github.com/sirupsen/logrus"
)

// Client side of the rule server RPC. Requests fan out to every
// configured server and the first good answer wins, any replica can
// serve any run.

func GetRunSummary(datasetId uint64, runId string) (task.RunSummary, error) {
	params := GetRunSummaryRequest{
		DatasetId: datasetId,
		RunId:     runId,
	}
	paramBytes, err := json.EncodeClientRequest(RPCServiceName+Separator+OperationNameGetRunSummary, params)
	if err != nil {
		return task.RunSummary{}, err
	}

	gatherResp := gatherFromServers(paramBytes)

	var firstErr error
	for r := range gatherResp {
		if r.err != nil {
			log.WithError(r.err).Error("Error Ignoring GetRunSummaryResponse")
			firstErr = keepFirstErr(firstErr, r.err)
			continue
		}

		var result GetRunSummaryResponse
		err = json.DecodeClientResponse(r.resp.Body, &result)
		r.resp.Body.Close()
		if err != nil {
			log.WithError(err).Error("Error Ignoring GetRunSummaryResponse")
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		return result.Summary, nil
	}

	return task.RunSummary{}, noServerAnswered(firstErr)
}

func GetItemsets(datasetId uint64, runId string) (I.ItemsetList, error) {
	params := GetItemsetsRequest{
		DatasetId: datasetId,
		RunId:     runId,
	}
	paramBytes, err := json.EncodeClientRequest(RPCServiceName+Separator+OperationNameGetItemsets, params)
	if err != nil {
		return I.ItemsetList{}, err
	}

	gatherResp := gatherFromServers(paramBytes)

	var firstErr error
	for r := range gatherResp {
		if r.err != nil {
			log.WithError(r.err).Error("Error Ignoring GetItemsetsResponse")
			firstErr = keepFirstErr(firstErr, r.err)
			continue
		}

		var result GetItemsetsResponse
		err = json.DecodeClientResponse(r.resp.Body, &result)
		r.resp.Body.Close()
		if err != nil {
			log.WithError(err).Error("Error Ignoring GetItemsetsResponse")
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		return result.Itemsets, nil
	}

	return I.ItemsetList{}, noServerAnswered(firstErr)
}

func GetRules(params GetRulesRequest) ([]RuleWithMetrics, error) {
	paramBytes, err := json.EncodeClientRequest(RPCServiceName+Separator+OperationNameGetRules, params)
	if err != nil {
		return []RuleWithMetrics{}, err
	}

	gatherResp := gatherFromServers(paramBytes)

	var firstErr error
	for r := range gatherResp {
		if r.err != nil {
			log.WithError(r.err).Error("Error Ignoring GetRulesResponse")
			firstErr = keepFirstErr(firstErr, r.err)
			continue
		}

		var result GetRulesResponse
		err = json.DecodeClientResponse(r.resp.Body, &result)
		r.resp.Body.Close()
		if err != nil {
			log.WithError(err).Error("Error Ignoring GetRulesResponse")
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		return result.Rules, nil
	}

	return []RuleWithMetrics{}, noServerAnswered(firstErr)
}

func gatherFromServers(paramBytes []byte) chan httpResp {
	serverAddrs := C.GetServices().GetRuleServerAddresses()

	gatherResp := make(chan httpResp, len(serverAddrs))
	headers := map[string]string{
		"content-type": "application/json",
	}

	urls := make([]string, 0, 0)
	for _, serverAddr := range serverAddrs {
		url := fmt.Sprintf("http://%s%s", serverAddr, RPCEndpoint)
		urls = append(urls, url)
	}

	httpDo(http.MethodPost, urls, paramBytes, headers, gatherResp)
	return gatherResp
}

func keepFirstErr(firstErr, err error) error {
	if firstErr == nil {
		return err
	}
	return firstErr
}

func noServerAnswered(firstErr error) error {
	if firstErr == nil {
		return errors.New("no rule servers configured")
	}
	return firstErr
}

type httpResp struct {
	resp *http.Response
	err  error
}

func httpDo(method string, urls []string, paramBytes []byte, headers map[string]string, gatherResp chan httpResp) {
	var wg sync.WaitGroup
	wg.Add(len(urls))
	for _, url := range urls {
		go func(u string) {
			defer func() {
				wg.Done()
			}()
			resp := httpResp{}
			req, err := http.NewRequest(method, u, bytes.NewBuffer(paramBytes))
			if err != nil {
				resp.err = err
				gatherResp <- resp
				return
			}
			for k, v := range headers {
				req.Header.Add(k, v)
			}
			client := new(http.Client)
			r, err := client.Do(req)
			resp.err = err
			resp.resp = r
			gatherResp <- resp
			return
		}(url)
	}
	wg.Wait()
	close(gatherResp)
}
