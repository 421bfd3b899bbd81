package s3

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"

	"apriori/filestore"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

var _ filestore.FileManager = (*S3Driver)(nil)

type S3Driver struct {
	s3         *s3.S3
	BucketName string
	Region     string
}

func New(bucketName, region string) *S3Driver {
	session := session.New()
	s3 := s3.New(session, aws.NewConfig().WithRegion(region))
	return &S3Driver{s3: s3, BucketName: bucketName, Region: region}
}

func (sd *S3Driver) Create(dir, fileName string, reader io.Reader) error {
	// PutObject needs a seekable body.
	body, err := ioutil.ReadAll(reader)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(sd.BucketName),
		Body:   bytes.NewReader(body),
		Key:    aws.String(dir + fileName),
	}
	_, err = sd.s3.PutObject(input)
	return err
}

func (sd *S3Driver) Get(dir, fileName string) (io.ReadCloser, error) {
	input := s3.GetObjectInput{
		Bucket: aws.String(sd.BucketName),
		Key:    aws.String(dir + fileName),
	}
	op, err := sd.s3.GetObject(&input)
	if err != nil {
		return nil, err
	}
	return op.Body, nil
}

func (sd *S3Driver) GetBucketName() string {
	return sd.BucketName
}

func (sd *S3Driver) GetDatasetDir(datasetId uint64) string {
	return fmt.Sprintf("datasets/%d/", datasetId)
}

func (sd *S3Driver) GetDatasetTransactionsFilePathAndName(datasetId uint64) (string, string) {
	return sd.GetDatasetDir(datasetId), "transactions.txt"
}

func (sd *S3Driver) GetDatasetRunDir(datasetId uint64, runId string) string {
	return fmt.Sprintf("%sruns/%s/", sd.GetDatasetDir(datasetId), runId)
}

func (sd *S3Driver) GetRunItemsetsFilePathAndName(datasetId uint64, runId string) (string, string) {
	return sd.GetDatasetRunDir(datasetId, runId), "itemsets.txt"
}

func (sd *S3Driver) GetRuleChunksDir(datasetId uint64, runId string) string {
	return fmt.Sprintf("%schunks/", sd.GetDatasetRunDir(datasetId, runId))
}

func (sd *S3Driver) GetRuleChunkFilePathAndName(datasetId uint64, runId string, chunkId string) (string, string) {
	return sd.GetRuleChunksDir(datasetId, runId), fmt.Sprintf("chunk_%s.txt", chunkId)
}

func (sd *S3Driver) GetRunSummaryFilePathAndName(datasetId uint64, runId string) (string, string) {
	return sd.GetDatasetRunDir(datasetId, runId), "summary.txt"
}
