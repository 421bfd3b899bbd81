package ruleserver

import (
	"net/http"
	"sync"

	"apriori/filestore"
	store "apriori/ruleserver/store"

	"github.com/gin-gonic/gin"
	E "github.com/pkg/errors"
)

type state struct {
	requestsServed uint64
	rulesServed    uint64
}

func (s *state) getRequestsServed() uint64 {
	return s.requestsServed
}

func (s *state) getRulesServed() uint64 {
	return s.rulesServed
}

// RuleServer answers rule and itemset queries over JSON RPC from runs
// published to the object store.
type RuleServer struct {
	ip       string
	rpcPort  string
	httpPort string

	stateLock sync.RWMutex
	state     *state

	store *store.RuleStore
}

func New(ip, rpcPort, httpPort string, diskFileManager, cloudFileManager filestore.FileManager, chunkCacheSize, metaCacheSize int) (*RuleServer, error) {

	store, err := store.New(chunkCacheSize, metaCacheSize, diskFileManager, cloudFileManager)
	if err != nil {
		return &RuleServer{}, E.Wrap(err, "Failed To Create Rule Store")
	}

	rs := &RuleServer{
		ip:       ip,
		rpcPort:  rpcPort,
		httpPort: httpPort,
		state:    &state{},
		store:    store,
	}

	return rs, nil
}

func (rs *RuleServer) GetState() *state {
	rs.stateLock.RLock()
	defer rs.stateLock.RUnlock()

	return rs.state
}

// countServed swaps in a fresh state so readers always observe a
// consistent pair of counters.
func (rs *RuleServer) countServed(numRules int) {
	rs.stateLock.Lock()
	defer rs.stateLock.Unlock()

	rs.state = &state{
		requestsServed: rs.state.requestsServed + 1,
		rulesServed:    rs.state.rulesServed + uint64(numRules),
	}
}

func (rs *RuleServer) GetRequestsServed() uint64 {
	return rs.GetState().getRequestsServed()
}

func (rs *RuleServer) GetRulesServed() uint64 {
	return rs.GetState().getRulesServed()
}

func (rs *RuleServer) GetIp() string {
	return rs.ip
}

func (rs *RuleServer) GetRPCPort() string {
	return rs.rpcPort
}

func (rs *RuleServer) GetHTTPPort() string {
	return rs.httpPort
}

func (rs *RuleServer) DebugState(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"ip":              rs.GetIp(),
			"rpc_port":        rs.GetRPCPort(),
			"http_port":       rs.GetHTTPPort(),
			"requests_served": rs.GetRequestsServed(),
			"rules_served":    rs.GetRulesServed(),
		},
	})
}
