// Package archiver drains the event topic under its own consumer group
// and lands envelopes in cold storage as day-partitioned parquet
// objects. Offsets are committed only after an upload succeeds, so the
// archive is at-least-once like everything downstream of the topic.
package archiver

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/consumer"
	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

type Runner struct {
	src     consumer.Source
	batcher *Batcher
	log     *log.Logger

	pending []broker.Message
}

func NewRunner(src consumer.Source, b *Batcher, logger *log.Logger) *Runner {
	return &Runner{src: src, batcher: b, log: logger}
}

// Run fetches until ctx is cancelled, flushing whenever the batcher
// fills or a fetch idles past the batch interval. A final flush runs on
// shutdown; whatever cannot be uploaded is simply redelivered to the
// group next start.
func (r *Runner) Run(ctx context.Context) {
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, r.batcher.MaxInterval)
		m, err := r.src.Fetch(fetchCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				r.flush(context.Background())
				r.log.Printf("[archiver] stopping: %v", ctx.Err())
				return
			}
			if r.batcher.Full() {
				r.flush(ctx)
			}
			continue
		}

		var env model.Envelope
		if jerr := json.Unmarshal(m.Value, &env); jerr != nil {
			r.log.Printf("[archiver] skipping undecodable message at offset %d: %v", m.Offset, jerr)
			if r.batcher.Len() == 0 {
				// Nothing waiting on an upload, so the offset can move
				// past the garbage now instead of parking in pending.
				if err := r.src.Commit(ctx, m); err != nil {
					r.log.Printf("[archiver] commit failed at offset %d: %v", m.Offset, err)
				}
			} else {
				r.pending = append(r.pending, m)
			}
		} else {
			r.batcher.Add(ToRecord(env))
			r.pending = append(r.pending, m)
		}

		if r.batcher.Full() {
			r.flush(ctx)
		}
	}
}

func (r *Runner) flush(ctx context.Context) {
	start := time.Now()
	n, err := r.batcher.Flush(ctx)
	if err != nil {
		r.log.Printf("[archiver] flush failed, keeping batch for retry: %v", err)
		return
	}
	if n == 0 && len(r.pending) == 0 {
		return
	}
	if err := r.src.Commit(ctx, r.pending...); err != nil {
		// Upload landed but offsets did not; the group will re-archive
		// this batch, which dedup on the object path cannot prevent.
		// Duplicate archive rows are acceptable.
		r.log.Printf("[archiver] commit failed after upload: %v", err)
	}
	r.pending = r.pending[:0]
	r.log.Printf("[archiver] archived %d records in %s", n, time.Since(start).Round(time.Millisecond))
}
