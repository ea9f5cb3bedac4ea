package archiver

import (
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// newLocalParquetWriter opens a snappy-compressed parquet writer on a
// local temp file. The returned close func flushes and closes both the
// parquet writer and the file; the file itself is the caller's to
// upload and remove.
func newLocalParquetWriter(path string, parallel int64) (*writer.ParquetWriter, func() error, error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, nil, err
	}
	pw, err := writer.NewParquetWriter(fw, new(Record), parallel)
	if err != nil {
		_ = fw.Close()
		return nil, nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	closeFn := func() error {
		if err := pw.WriteStop(); err != nil {
			_ = fw.Close()
			return err
		}
		return fw.Close()
	}
	return pw, closeFn, nil
}
