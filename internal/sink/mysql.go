package sink

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// MySQLStore keeps the two event tables. Timestamp columns are VARCHAR
// holding model.TimeLayout values: the format is fixed-width, so SQL
// range comparisons on date_created order correctly as strings.
type MySQLStore struct {
	db      *sql.DB
	log     *log.Logger
	now     func() time.Time
	timeout time.Duration
}

func OpenMySQL(dsn string, logger *log.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &MySQLStore{db: db, log: logger, now: time.Now, timeout: 10 * time.Second}, nil
}

func (s *MySQLStore) Close() error { return s.db.Close() }

// Connect pings the database under the given policy at boot. Ping
// failures are marked retryable so the policy keeps attempting; the
// database not being up yet is the expected failure at this point.
func (s *MySQLStore) Connect(ctx context.Context, policy broker.RetryPolicy) error {
	attempt := 0
	return policy.Do(ctx, func() error {
		attempt++
		s.log.Printf("[storage] connecting to mysql (attempt %d/%d)", attempt, policy.MaxAttempts)
		if err := s.db.PingContext(ctx); err != nil {
			return errors.Join(broker.ErrUnavailable, &StorageError{Op: "ping", Err: err})
		}
		s.log.Printf("[storage] connected to mysql")
		return nil
	})
}

func (s *MySQLStore) EnsureTables(ctx context.Context) error {
	const sensorDDL = `CREATE TABLE IF NOT EXISTS sensor_data (
		id INT NOT NULL AUTO_INCREMENT,
		sensor_id VARCHAR(250) NOT NULL,
		temperature FLOAT NOT NULL,
		timestamp VARCHAR(100) NOT NULL,
		location VARCHAR(250) NOT NULL,
		trace_id VARCHAR(100) NOT NULL,
		date_created VARCHAR(100) NOT NULL,
		CONSTRAINT sensor_data_pk PRIMARY KEY (id))`
	const commandDDL = `CREATE TABLE IF NOT EXISTS user_command (
		id INT NOT NULL AUTO_INCREMENT,
		user_id VARCHAR(250) NOT NULL,
		target_device VARCHAR(250) NOT NULL,
		target_temperature FLOAT NOT NULL,
		timestamp VARCHAR(100) NOT NULL,
		trace_id VARCHAR(100) NOT NULL,
		date_created VARCHAR(100) NOT NULL,
		CONSTRAINT user_command_pk PRIMARY KEY (id))`

	for _, ddl := range []string{sensorDDL, commandDDL} {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return &StorageError{Op: "ensure tables", Err: err}
		}
	}
	return nil
}

func (s *MySQLStore) WriteSensorData(ctx context.Context, r model.SensorReading) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dateCreated := s.now().UTC().Format(model.TimeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sensor_data (sensor_id, temperature, timestamp, location, trace_id, date_created)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.SensorID, r.Temperature, r.Timestamp, r.Location, r.TraceID, dateCreated)
	if err != nil {
		return &StorageError{Op: "insert sensor_data", Err: err}
	}
	s.log.Printf("[storage] stored sensor_data trace_id=%s", r.TraceID)
	return nil
}

func (s *MySQLStore) WriteUserCommand(ctx context.Context, c model.UserCommand) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dateCreated := s.now().UTC().Format(model.TimeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_command (user_id, target_device, target_temperature, timestamp, trace_id, date_created)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.TargetDevice, c.TargetTemperature, c.Timestamp, c.TraceID, dateCreated)
	if err != nil {
		return &StorageError{Op: "insert user_command", Err: err}
	}
	s.log.Printf("[storage] stored user_command trace_id=%s", c.TraceID)
	return nil
}

func (s *MySQLStore) SensorDataRange(ctx context.Context, start, end string) ([]model.SensorReadingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sensor_id, temperature, timestamp, location, trace_id, date_created
		 FROM sensor_data WHERE date_created >= ? AND date_created < ? ORDER BY id`,
		start, end)
	if err != nil {
		return nil, &StorageError{Op: "query sensor_data", Err: err}
	}
	defer rows.Close()

	out := []model.SensorReadingRecord{}
	for rows.Next() {
		var r model.SensorReadingRecord
		if err := rows.Scan(&r.ID, &r.SensorID, &r.Temperature, &r.Timestamp, &r.Location, &r.TraceID, &r.DateCreated); err != nil {
			return nil, &StorageError{Op: "scan sensor_data", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query sensor_data", Err: err}
	}
	s.log.Printf("[storage] sensor_data range [%s, %s) returned %d rows", start, end, len(out))
	return out, nil
}

func (s *MySQLStore) UserCommandRange(ctx context.Context, start, end string) ([]model.UserCommandRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, target_device, target_temperature, timestamp, trace_id, date_created
		 FROM user_command WHERE date_created >= ? AND date_created < ? ORDER BY id`,
		start, end)
	if err != nil {
		return nil, &StorageError{Op: "query user_command", Err: err}
	}
	defer rows.Close()

	out := []model.UserCommandRecord{}
	for rows.Next() {
		var r model.UserCommandRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.TargetDevice, &r.TargetTemperature, &r.Timestamp, &r.TraceID, &r.DateCreated); err != nil {
			return nil, &StorageError{Op: "scan user_command", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query user_command", Err: err}
	}
	s.log.Printf("[storage] user_command range [%s, %s) returned %d rows", start, end, len(out))
	return out, nil
}
