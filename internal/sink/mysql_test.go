package sink

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/broker"
)

// refusingDriver fails every connection attempt the way an unreachable
// database would, counting how often it was dialed.
type refusingDriver struct {
	dials *int
}

func (d refusingDriver) Open(name string) (driver.Conn, error) {
	*d.dials++
	return nil, errors.New("dial tcp: connect: connection refused")
}

var refusingDials int

func init() {
	sql.Register("refusing", refusingDriver{dials: &refusingDials})
}

func TestConnectRetriesUntilAttemptCeiling(t *testing.T) {
	refusingDials = 0
	db, err := sql.Open("refusing", "ignored")
	if err != nil {
		t.Fatal(err)
	}
	store := &MySQLStore{
		db:      db,
		log:     log.New(io.Discard, "", 0),
		now:     time.Now,
		timeout: time.Second,
	}

	policy := broker.RetryPolicy{MaxAttempts: 5, Delay: broker.FixedDelay(0)}
	err = store.Connect(context.Background(), policy)
	if err == nil {
		t.Fatal("Connect succeeded against a refusing database")
	}
	if refusingDials != 5 {
		t.Errorf("dial attempts = %d, want the full budget of 5", refusingDials)
	}
	if !broker.Retryable(err) {
		t.Errorf("Connect error %v is not retryable", err)
	}
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Errorf("Connect error %v does not carry a StorageError", err)
	}
}
