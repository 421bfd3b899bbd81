package config

import (
	json "encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"apriori/filestore"
	"apriori/services/disk"
	"apriori/services/gcstorage"
	"apriori/services/s3"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	log "github.com/sirupsen/logrus"
)

var configFilePath = flag.String("config_filepath", "../config/config.json", "")
var initiated bool = false

const DEVELOPMENT = "development"

const (
	StoreDriverDisk = "disk"
	StoreDriverGCS  = "gcs"
	StoreDriverS3   = "s3"
)

type DBConf struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type StoreConf struct {
	Driver  string `json:"driver"`
	BaseDir string `json:"base_dir"`
	Bucket  string `json:"bucket"`
	Region  string `json:"region"`
}

type Configuration struct {
	Env                 string    `json:"env"`
	DBInfo              DBConf    `json:"db"`
	Store               StoreConf `json:"store"`
	RuleServerAddresses []string  `json:"rule_server_addrs"`
	GCPProjectID        string    `json:"gcp_project_id"`
	GCPProjectLocation  string    `json:"gcp_project_location"`
}

type Services struct {
	Db          *gorm.DB
	FileManager filestore.FileManager
}

// The rule server fleet is static, read from the config file.
func (services *Services) GetRuleServerAddresses() []string {
	addrs := make([]string, 0, len(configuration.RuleServerAddresses))
	addrs = append(addrs, configuration.RuleServerAddresses...)
	return addrs
}

var configuration *Configuration = nil
var services *Services = nil

func initFlags() {
	flag.Parse()
}

func initLogging() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	if IsDevelopment() {
		log.SetLevel(log.DebugLevel)
	}
}

func initConfigFromFile() error {

	configFileAbsPath, _ := filepath.Abs(*configFilePath)

	logCtx := log.WithFields(log.Fields{
		"file": configFileAbsPath,
	})

	raw, err := ioutil.ReadFile(configFileAbsPath)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load config")
		return err
	}

	if err := json.Unmarshal(raw, &configuration); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal json")
		return err
	}
	logCtx.WithFields(log.Fields{"config": configuration}).Info("Config File Loaded")
	return nil
}

func initFileManager() (filestore.FileManager, error) {
	store := configuration.Store
	switch store.Driver {
	case StoreDriverDisk:
		return disk.New(store.BaseDir), nil
	case StoreDriverGCS:
		return gcstorage.New(store.Bucket)
	case StoreDriverS3:
		return s3.New(store.Bucket, store.Region), nil
	}
	return nil, fmt.Errorf("unknown store driver %s", store.Driver)
}

func initServices() error {
	fileManager, err := initFileManager()
	if err != nil {
		log.WithFields(log.Fields{"err": err}).Error("Failed FileManager Initialization")
		return err
	}
	log.WithField("driver", configuration.Store.Driver).Info("FileManager Service initialized")

	services = &Services{FileManager: fileManager}

	// The database is only needed when datasets are mined out of
	// relational tables.
	if configuration.DBInfo.Host == "" {
		return nil
	}

	db, err := gorm.Open("postgres", fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=disable",
		configuration.DBInfo.Host,
		configuration.DBInfo.Port,
		configuration.DBInfo.User,
		configuration.DBInfo.Name,
		configuration.DBInfo.Password))
	if err != nil {
		log.WithFields(log.Fields{"err": err}).Error("Failed Db Initialization")
		return err
	}

	// Connection Pooling and Logging.
	db.DB().SetMaxIdleConns(10)
	db.DB().SetMaxOpenConns(100)
	db.LogMode(true)
	log.Info("Db Service initialized")

	services.Db = db
	return nil
}

func Init() error {
	if initiated {
		return fmt.Errorf("Config already initialized")
	}
	initFlags()
	err := initConfigFromFile()
	if err != nil {
		return err
	}
	initLogging()

	err = initServices()
	if err != nil {
		return err
	}

	initiated = true
	return nil
}

func GetConfig() *Configuration {
	return configuration
}

func GetServices() *Services {
	return services
}

func IsDevelopment() bool {
	return (strings.Compare(configuration.Env, DEVELOPMENT) == 0)
}
