package filestore

import (
	"io"
)

// FileManager abstracts the object store holding dataset inputs and
// mined outputs. Paths are built through the Get*PathAndName methods so
// that disk and cloud layouts stay identical.
type FileManager interface {
	Create(path, fileName string, reader io.Reader) error
	Get(path, fileName string) (io.ReadCloser, error)
	GetBucketName() string
	GetDatasetDir(datasetId uint64) string
	GetDatasetTransactionsFilePathAndName(datasetId uint64) (string, string)
	GetDatasetRunDir(datasetId uint64, runId string) string
	GetRunItemsetsFilePathAndName(datasetId uint64, runId string) (string, string)
	GetRuleChunksDir(datasetId uint64, runId string) string
	GetRuleChunkFilePathAndName(datasetId uint64, runId string, chunkId string) (string, string)
	GetRunSummaryFilePathAndName(datasetId uint64, runId string) (string, string)
}
