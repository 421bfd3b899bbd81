package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.json")
	err := ioutil.WriteFile(path, []byte(content), 0644)
	assert.Nil(t, err)
	return path
}

func TestInitConfigFromFile(t *testing.T) {
	*configFilePath = writeConfigFile(t, `{
		"env": "development",
		"db": {"host": "localhost", "port": 5432, "user": "apriori", "name": "apriori", "password": "secret"},
		"store": {"driver": "disk", "base_dir": "/tmp/apriori-dev"}
	}`)

	err := initConfigFromFile()
	assert.Nil(t, err)

	conf := GetConfig()
	assert.Equal(t, "development", conf.Env)
	assert.Equal(t, "localhost", conf.DBInfo.Host)
	assert.Equal(t, 5432, conf.DBInfo.Port)
	assert.Equal(t, StoreDriverDisk, conf.Store.Driver)
	assert.Equal(t, "/tmp/apriori-dev", conf.Store.BaseDir)
	assert.True(t, IsDevelopment())
}

func TestInitConfigFromFileMissing(t *testing.T) {
	*configFilePath = filepath.Join(t.TempDir(), "missing.json")
	err := initConfigFromFile()
	assert.NotNil(t, err)
}

func TestInitFileManagerDisk(t *testing.T) {
	configuration = &Configuration{
		Env:   DEVELOPMENT,
		Store: StoreConf{Driver: StoreDriverDisk, BaseDir: t.TempDir()},
	}

	fileManager, err := initFileManager()
	assert.Nil(t, err)
	assert.NotNil(t, fileManager)
}

func TestInitFileManagerUnknownDriver(t *testing.T) {
	configuration = &Configuration{Store: StoreConf{Driver: "ftp"}}

	_, err := initFileManager()
	assert.NotNil(t, err)
}
