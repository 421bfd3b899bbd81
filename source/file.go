package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"apriori/filestore"
	I "apriori/itemset"

	log "github.com/sirupsen/logrus"
)

// TransactionRecord is one line of a dataset transactions file.
type TransactionRecord struct {
	TransactionId string   `json:"tid"`
	Items         []string `json:"its"`
}

var _ I.TransactionSource = (*FileSource)(nil)

// FileSource reads transactions from the dataset file kept by a file
// manager, one JSON record per line.
type FileSource struct {
	fileManager filestore.FileManager
	datasetId   uint64
}

func NewFileSource(fileManager filestore.FileManager, datasetId uint64) *FileSource {
	return &FileSource{fileManager: fileManager, datasetId: datasetId}
}

func (fs *FileSource) Scan() (I.TransactionScanner, error) {
	path, name := fs.fileManager.GetDatasetTransactionsFilePathAndName(fs.datasetId)
	rc, err := fs.fileManager.Get(path, name)
	if err != nil {
		log.WithFields(log.Fields{
			"path":     path,
			"fileName": name,
		}).WithError(err).Error("Failed to open transactions file.")
		return nil, err
	}

	scanner := bufio.NewScanner(rc)
	buf := make([]byte, I.MAX_LINE_BYTES)
	scanner.Buffer(buf, I.MAX_LINE_BYTES)
	return &fileScanner{rc: rc, scanner: scanner}, nil
}

// fileScanner closes the underlying file once the pass ends, whether
// it ends on EOF or on the first bad line.
type fileScanner struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	record  TransactionRecord
	err     error
	closed  bool
}

func (fsc *fileScanner) Next() bool {
	if fsc.closed {
		return false
	}
	for fsc.scanner.Scan() {
		line := fsc.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var record TransactionRecord
		if err := json.Unmarshal(line, &record); err != nil {
			fsc.err = fmt.Errorf("bad transaction line: %v", err)
			fsc.close()
			return false
		}
		fsc.record = record
		return true
	}
	fsc.err = fsc.scanner.Err()
	fsc.close()
	return false
}

func (fsc *fileScanner) Items() []string {
	return fsc.record.Items
}

func (fsc *fileScanner) Err() error {
	return fsc.err
}

func (fsc *fileScanner) close() {
	if fsc.closed {
		return
	}
	fsc.closed = true
	if err := fsc.rc.Close(); err != nil && fsc.err == nil {
		fsc.err = err
	}
}

// CreateReaderFromTransactions serializes records the way FileSource
// expects them back.
func CreateReaderFromTransactions(records []TransactionRecord) (*bytes.Reader, error) {
	buf := new(bytes.Buffer)
	for _, record := range records {
		recordBytes, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}

		str := string(recordBytes)
		_, err = buf.WriteString(fmt.Sprintf("%s\n", str))
		if err != nil {
			return nil, err
		}
	}
	return bytes.NewReader(buf.Bytes()), nil
}
