package gcstorage

import (
	"context"
	"fmt"
	"io"

	"apriori/filestore"

	"cloud.google.com/go/storage"
)

var _ filestore.FileManager = (*GCSDriver)(nil)

type GCSDriver struct {
	client     *storage.Client
	BucketName string
}

func New(bucketName string) (*GCSDriver, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	d := &GCSDriver{
		BucketName: bucketName,
		client:     client,
	}
	return d, nil
}

func (gcsd *GCSDriver) Create(dir, fileName string, reader io.Reader) error {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(dir + fileName)
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, reader); err != nil {
		return err
	}
	err := w.Close()
	return err
}

func (gcsd *GCSDriver) Get(dir, fileName string) (io.ReadCloser, error) {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(dir + fileName)
	rc, err := obj.NewReader(ctx)
	return rc, err
}

func (gcsd *GCSDriver) GetBucketName() string {
	return gcsd.BucketName
}

// Object names are relative to the bucket, so unlike the disk driver
// there is no base directory prefix.
func (gcsd *GCSDriver) GetDatasetDir(datasetId uint64) string {
	return fmt.Sprintf("datasets/%d/", datasetId)
}

func (gcsd *GCSDriver) GetDatasetTransactionsFilePathAndName(datasetId uint64) (string, string) {
	return gcsd.GetDatasetDir(datasetId), "transactions.txt"
}

func (gcsd *GCSDriver) GetDatasetRunDir(datasetId uint64, runId string) string {
	return fmt.Sprintf("%sruns/%s/", gcsd.GetDatasetDir(datasetId), runId)
}

func (gcsd *GCSDriver) GetRunItemsetsFilePathAndName(datasetId uint64, runId string) (string, string) {
	return gcsd.GetDatasetRunDir(datasetId, runId), "itemsets.txt"
}

func (gcsd *GCSDriver) GetRuleChunksDir(datasetId uint64, runId string) string {
	return fmt.Sprintf("%schunks/", gcsd.GetDatasetRunDir(datasetId, runId))
}

func (gcsd *GCSDriver) GetRuleChunkFilePathAndName(datasetId uint64, runId string, chunkId string) (string, string) {
	return gcsd.GetRuleChunksDir(datasetId, runId), fmt.Sprintf("chunk_%s.txt", chunkId)
}

func (gcsd *GCSDriver) GetRunSummaryFilePathAndName(datasetId uint64, runId string) (string, string) {
	return gcsd.GetDatasetRunDir(datasetId, runId), "summary.txt"
}
