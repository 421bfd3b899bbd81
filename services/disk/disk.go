package disk

import (
	"fmt"
	"io"
	"os"
	"strings"

	"apriori/filestore"

	log "github.com/sirupsen/logrus"
)

var _ filestore.FileManager = (*DiskDriver)(nil)

// DiskDriver keeps all files under a single base directory, which
// plays the role a bucket name does on the cloud drivers.
type DiskDriver struct {
	baseDir string
}

func New(baseDir string) *DiskDriver {
	return &DiskDriver{baseDir: baseDir}
}

func MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (dd *DiskDriver) Create(path, fileName string, reader io.Reader) error {
	err := MkdirAll(path)
	if err != nil {
		log.WithError(err).Errorln("Failed to create dir")
		return err
	}

	if !strings.HasSuffix(path, "/") {
		path = path + "/"
	}
	file, err := os.Create(path + fileName)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, reader)
	return err
}

// Get opens a file in read only mode.
// Caller should take care of closing the returned io.ReadCloser.
func (dd *DiskDriver) Get(path, fileName string) (io.ReadCloser, error) {
	log.WithFields(log.Fields{
		"Path":     path,
		"FileName": fileName,
	}).Debug("DiskDriver Opening file")

	if !strings.HasSuffix(path, "/") {
		path = path + "/"
	}
	file, err := os.OpenFile(path+fileName, os.O_RDONLY, 0444)
	return file, err
}

func (dd *DiskDriver) GetBucketName() string {
	return dd.baseDir
}

func (dd *DiskDriver) GetDatasetDir(datasetId uint64) string {
	return fmt.Sprintf("%s/datasets/%d/", dd.baseDir, datasetId)
}

func (dd *DiskDriver) GetDatasetTransactionsFilePathAndName(datasetId uint64) (string, string) {
	return dd.GetDatasetDir(datasetId), "transactions.txt"
}

func (dd *DiskDriver) GetDatasetRunDir(datasetId uint64, runId string) string {
	return fmt.Sprintf("%sruns/%s/", dd.GetDatasetDir(datasetId), runId)
}

func (dd *DiskDriver) GetRunItemsetsFilePathAndName(datasetId uint64, runId string) (string, string) {
	return dd.GetDatasetRunDir(datasetId, runId), "itemsets.txt"
}

func (dd *DiskDriver) GetRuleChunksDir(datasetId uint64, runId string) string {
	return fmt.Sprintf("%schunks/", dd.GetDatasetRunDir(datasetId, runId))
}

func (dd *DiskDriver) GetRuleChunkFilePathAndName(datasetId uint64, runId string, chunkId string) (string, string) {
	return dd.GetRuleChunksDir(datasetId, runId), fmt.Sprintf("chunk_%s.txt", chunkId)
}

func (dd *DiskDriver) GetRunSummaryFilePathAndName(datasetId uint64, runId string) (string, string) {
	return dd.GetDatasetRunDir(datasetId, runId), "summary.txt"
}
