package archiver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Batcher buffers archive records and flushes them as one parquet
// object. Full reports whether the caller should flush (record count or
// age threshold reached).
type Batcher struct {
	MaxRecords  int
	MaxInterval time.Duration

	uploader Uploader
	basePath string

	buf       []Record
	resetTime time.Time
}

func NewBatcher(maxRecords int, maxInterval time.Duration, up Uploader, basePath string) *Batcher {
	return &Batcher{
		MaxRecords:  maxRecords,
		MaxInterval: maxInterval,
		uploader:    up,
		basePath:    basePath,
		buf:         make([]Record, 0, maxRecords),
		resetTime:   time.Now().UTC(),
	}
}

func (b *Batcher) Add(r Record) { b.buf = append(b.buf, r) }

func (b *Batcher) Len() int { return len(b.buf) }

func (b *Batcher) Full() bool {
	if len(b.buf) == 0 {
		return false
	}
	return len(b.buf) >= b.MaxRecords || time.Since(b.resetTime) >= b.MaxInterval
}

// Flush writes the buffer to a local parquet file, uploads it and only
// then clears the buffer; on any failure the buffer is kept so the
// caller can retry without losing records.
func (b *Batcher) Flush(ctx context.Context) (int, error) {
	n := len(b.buf)
	if n == 0 {
		return 0, nil
	}

	ts := time.Now().UTC()
	name := fmt.Sprintf("part-%s-%s.parquet", ts.Format("2006-01-02T15-04-05Z"), uuid.NewString())
	tmp := filepath.Join(os.TempDir(), name)

	pw, closeFn, err := newLocalParquetWriter(tmp, 4)
	if err != nil {
		return 0, fmt.Errorf("open parquet writer: %w", err)
	}
	for i := range b.buf {
		if err := pw.Write(b.buf[i]); err != nil {
			_ = closeFn()
			_ = os.Remove(tmp)
			return 0, fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := closeFn(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("close parquet file: %w", err)
	}

	f, err := os.Open(tmp)
	if err != nil {
		return 0, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := b.uploader.Upload(ctx, objectPath(b.basePath, ts, name), f, fi.Size()); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("upload archive object: %w", err)
	}
	_ = f.Close()
	_ = os.Remove(tmp)

	b.buf = b.buf[:0]
	b.resetTime = time.Now().UTC()
	return n, nil
}
