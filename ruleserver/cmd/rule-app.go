package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	C "apriori/config"
	"apriori/filestore"
	"apriori/metrics"
	"apriori/ruleserver"
	serviceDisk "apriori/services/disk"
	serviceGCS "apriori/services/gcstorage"
	serviceS3 "apriori/services/s3"
	U "apriori/util"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc"
	rpcjson "github.com/gorilla/rpc/json"
	log "github.com/sirupsen/logrus"
)

const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

type config struct {
	Environment string
	IP          string
	RPCPort     string
	HTTPPort    string
	StoreDriver string
	DiskBaseDir string
	BucketName  string
	AWSRegion   string
}

func isValidEnv(env string) bool {
	return env == Development || env == Staging || env == Production
}

func NewConfig(env, ip, rpcPort, httpPort, storeDriver, diskBaseDir, bucketName, awsRegion string) (*config, error) {
	if !isValidEnv(env) {
		return nil, errors.New("Invalid Environment")
	}
	if ip == "" {
		return nil, errors.New("Invalid IP")
	}
	if rpcPort == "" {
		return nil, errors.New("Invalid RPCPort")
	}

	if httpPort == "" {
		return nil, errors.New("Invalid HTTPPort")
	}

	if !U.In(storeDriver, []string{C.StoreDriverDisk, C.StoreDriverGCS, C.StoreDriverS3}) {
		return nil, errors.New("Invalid StoreDriver")
	}

	if diskBaseDir == "" {
		return nil, errors.New("Invalid DiskBaseDir")
	}

	if bucketName == "" {
		return nil, errors.New("Invalid BucketName")
	}

	if storeDriver == C.StoreDriverS3 && awsRegion == "" {
		return nil, errors.New("Invalid AWSRegion")
	}

	c := config{
		Environment: env,
		IP:          ip,
		RPCPort:     rpcPort,
		HTTPPort:    httpPort,
		StoreDriver: storeDriver,
		DiskBaseDir: diskBaseDir,
		BucketName:  bucketName,
		AWSRegion:   awsRegion,
	}

	return &c, nil
}

func (c *config) GetEnvironment() string {
	return c.Environment
}

func (c *config) IsDevelopment() bool {
	return c.Environment == Development
}

func (c *config) GetIP() string {
	return c.IP
}

func (c *config) GetRPCPort() string {
	return c.RPCPort
}

func (c *config) GetHTTPPort() string {
	return c.HTTPPort
}

func (c *config) GetStoreDriver() string {
	return c.StoreDriver
}

func (c *config) GetBaseDiskDir() string {
	return c.DiskBaseDir
}

func (c *config) GetBucketName() string {
	return c.BucketName
}

func (c *config) GetAWSRegion() string {
	return c.AWSRegion
}

// ./rule-app --env=development --ip=127.0.0.1 --rs_rpc_port=8300 --rs_http_port=8301 --store_driver=disk --disk_dir=/usr/local/var/apriori/local_disk --bucket_name=/usr/local/var/apriori/cloud_storage --chunk_cache_size=5 --meta_cache_size=10
func main() {

	env := flag.String("env", Development, "")
	ip := flag.String("ip", "127.0.0.1", "")
	rpc_port := flag.String("rs_rpc_port", "8300", "")
	http_port := flag.String("rs_http_port", "8301", "")

	storeDriver := flag.String("store_driver", C.StoreDriverDisk, "Object store holding run artifacts. disk, gcs or s3")
	diskBaseDir := flag.String("disk_dir", "/usr/local/var/apriori/local_disk", "")
	bucketName := flag.String("bucket_name", "/usr/local/var/apriori/cloud_storage", "")
	awsRegion := flag.String("aws_region", "us-east-1", "")

	chunkCacheSize := flag.Int("chunk_cache_size", 5, "")
	metaCacheSize := flag.Int("meta_cache_size", 10, "")

	gcpProjectID := flag.String("gcp_project_id", "", "")
	gcpProjectLocation := flag.String("gcp_project_location", "", "")

	flag.Parse()

	config, err := NewConfig(*env, *ip, *rpc_port, *http_port, *storeDriver, *diskBaseDir, *bucketName, *awsRegion)
	if err != nil {
		panic(err)
	}

	log.SetReportCaller(true)
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	log.WithFields(log.Fields{
		"IP":          config.GetIP(),
		"Port":        config.GetRPCPort(),
		"Env":         config.GetEnvironment(),
		"StoreDriver": config.GetStoreDriver(),
		"DiskBaseDir": config.GetBaseDiskDir(),
		"BucketName":  config.GetBucketName(),
	}).Infoln("Initialising with config")

	if config.IsDevelopment() {
		log.SetLevel(log.DebugLevel)
	}

	logCtx := log.WithFields(log.Fields{
		"IP":   config.GetIP(),
		"Port": config.GetRPCPort(),
	})

	exporter := metrics.InitMetrics(config.GetEnvironment(), "rule_server", *gcpProjectID, *gcpProjectLocation)
	if exporter != nil {
		defer exporter.StopMetricsExporter()
	}

	cloudManager, err := newCloudManager(config)
	if err != nil {
		logCtx.WithError(err).Errorln("Failed to init cloud file manager")
		panic(err)
	}

	diskManager := serviceDisk.New(config.GetBaseDiskDir())

	rs, err := ruleserver.New(config.GetIP(), config.GetRPCPort(), config.GetHTTPPort(), diskManager, cloudManager, *chunkCacheSize, *metaCacheSize)
	if err != nil {
		logCtx.WithError(err).Errorln("Failed to init New RuleServer")
		panic(err)
	}

	go runHttpStatus(rs.GetIp(), rs.GetHTTPPort(), rs, config.IsDevelopment())

	addr := rs.GetIp() + ":" + rs.GetRPCPort()
	logCtx.Printf("Starting rpc rule server at %s", addr)
	r := initRpcServer(rs)
	err = http.ListenAndServe(addr, r)
	if err != nil {
		panic(err)
	}
}

func newCloudManager(config *config) (filestore.FileManager, error) {
	if config.IsDevelopment() {
		// A second disk dir stands in for the bucket during development.
		return serviceDisk.New(config.GetBucketName()), nil
	}

	switch config.GetStoreDriver() {
	case C.StoreDriverGCS:
		return serviceGCS.New(config.GetBucketName())
	case C.StoreDriverS3:
		return serviceS3.New(config.GetBucketName(), config.GetAWSRegion()), nil
	}
	return serviceDisk.New(config.GetBucketName()), nil
}

func runHttpStatus(ip, port string, rs *ruleserver.RuleServer, isDev bool) {
	r := initHttpStatusServer(isDev, rs)
	addr := ip + ":" + port
	r.Run(addr)
}

func initRpcServer(rs *ruleserver.RuleServer) *mux.Router {
	s := rpc.NewServer()
	s.RegisterCodec(rpcjson.NewCodec(), "application/json")
	s.RegisterCodec(rpcjson.NewCodec(), "application/json;charset=UTF-8")
	s.RegisterService(rs, ruleserver.RPCServiceName)
	s.RegisterBeforeFunc(func(i *rpc.RequestInfo) {
		reqId := ""
		if len(i.Request.Header["X-Req-Id"]) > 0 {
			reqId = i.Request.Header["X-Req-Id"][0]
		}

		method := i.Method
		startedAt := time.Now().UnixNano()

		i.Request.Header["Started-At"] = []string{fmt.Sprintf("%v", startedAt)}

		log.WithFields(log.Fields{
			"reqId":  reqId,
			"method": method,
		}).Info("Seen Request")
	})
	s.RegisterAfterFunc(func(i *rpc.RequestInfo) {
		reqId := ""
		if len(i.Request.Header["X-Req-Id"]) > 0 {
			reqId = i.Request.Header["X-Req-Id"][0]
		}

		method := i.Method
		err := i.Error
		statusCode := i.StatusCode

		startedAt := time.Now().UnixNano()
		if len(i.Request.Header["Started-At"]) > 0 {
			startedAt, _ = strconv.ParseInt(i.Request.Header["Started-At"][0], 10, 64)
		}

		endedAt := time.Now().UnixNano()

		latency := endedAt - startedAt

		logCtx := log.WithFields(log.Fields{
			"reqId":       reqId,
			"method":      method,
			"latency(ms)": int(math.Ceil(float64(latency) / 1000000.0)),
			"statusCode":  statusCode,
		})

		if err != nil {
			logCtx.WithError(err).Error("Error Processing Request")
		} else {
			logCtx.Info("Processed Request")
		}
	})
	r := mux.NewRouter()
	r.Handle(ruleserver.RPCEndpoint, s)
	return r
}

func initHttpStatusServer(isDev bool, rs *ruleserver.RuleServer) *gin.Engine {

	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.GET("/state", rs.DebugState)
	r.GET("/status", func(c *gin.Context) {
		resp := map[string]string{
			"status": "success",
		}
		c.JSON(http.StatusOK, resp)
		return
	})
	return r
}
