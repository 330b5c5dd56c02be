package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// SQLite driver for database/sql
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteDriverNameConstant             = "sqlite3"
	sqliteInMemoryPathConstant           = ":memory:"
	sqliteConnectionOptionsConstant      = "?_busy_timeout=5000"
	databaseDirectoryPermissionsConstant = 0o750
	defaultRecentEventLimitConstant      = 20
	openDatabaseErrorTemplateConstant    = "open telemetry database %s: %w"
	migrationErrorTemplateConstant       = "migrate telemetry database: %w"
	insertEventErrorTemplateConstant     = "store telemetry event %s: %w"
	listEventsErrorTemplateConstant      = "list telemetry events: %w"
	decodeEventErrorTemplateConstant     = "decode telemetry event %s: %w"
	insertEventStatementConstant         = `INSERT INTO telemetry_events (id, name, occurred_at, properties, measurements) VALUES (?, ?, ?, ?, ?)`
	selectRecentEventsQueryConstant      = `SELECT id, name, occurred_at, properties, measurements FROM telemetry_events ORDER BY seq DESC LIMIT ?`
)

var telemetryMigrations = []string{
	`CREATE TABLE IF NOT EXISTS telemetry_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		properties TEXT NOT NULL DEFAULT '{}',
		measurements TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_telemetry_events_name ON telemetry_events(name)`,
	`CREATE INDEX IF NOT EXISTS idx_telemetry_events_occurred_at ON telemetry_events(occurred_at)`,
}

// SQLiteSink persists events to a local SQLite database.
type SQLiteSink struct {
	database *sql.DB
}

// OpenSQLiteSink opens or creates the database at databasePath and applies migrations.
// The parent directory is created when missing.
func OpenSQLiteSink(databasePath string) (*SQLiteSink, error) {
	trimmedPath := strings.TrimSpace(databasePath)
	if len(trimmedPath) == 0 {
		return nil, ErrDatabasePathRequired
	}

	dataSourceName := trimmedPath
	if trimmedPath != sqliteInMemoryPathConstant {
		if directoryError := os.MkdirAll(filepath.Dir(trimmedPath), databaseDirectoryPermissionsConstant); directoryError != nil {
			return nil, fmt.Errorf(openDatabaseErrorTemplateConstant, trimmedPath, directoryError)
		}
		dataSourceName = trimmedPath + sqliteConnectionOptionsConstant
	}

	database, openError := sql.Open(sqliteDriverNameConstant, dataSourceName)
	if openError != nil {
		return nil, fmt.Errorf(openDatabaseErrorTemplateConstant, trimmedPath, openError)
	}
	database.SetMaxOpenConns(1)

	if pingError := database.Ping(); pingError != nil {
		_ = database.Close()
		return nil, fmt.Errorf(openDatabaseErrorTemplateConstant, trimmedPath, pingError)
	}

	if migrationError := runTelemetryMigrations(database); migrationError != nil {
		_ = database.Close()
		return nil, fmt.Errorf(migrationErrorTemplateConstant, migrationError)
	}

	return &SQLiteSink{database: database}, nil
}

func runTelemetryMigrations(database *sql.DB) error {
	for _, migration := range telemetryMigrations {
		if _, execError := database.Exec(migration); execError != nil {
			return execError
		}
	}
	return nil
}

// Send stores the event.
func (sink *SQLiteSink) Send(sendContext context.Context, event Event) error {
	if sendContext == nil {
		sendContext = context.Background()
	}

	encodedProperties, propertiesError := encodeMap(event.Properties)
	if propertiesError != nil {
		return fmt.Errorf(insertEventErrorTemplateConstant, event.Identifier, propertiesError)
	}
	encodedMeasurements, measurementsError := encodeMap(event.Measurements)
	if measurementsError != nil {
		return fmt.Errorf(insertEventErrorTemplateConstant, event.Identifier, measurementsError)
	}

	_, execError := sink.database.ExecContext(
		sendContext,
		insertEventStatementConstant,
		event.Identifier,
		event.Name,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		encodedProperties,
		encodedMeasurements,
	)
	if execError != nil {
		return fmt.Errorf(insertEventErrorTemplateConstant, event.Identifier, execError)
	}
	return nil
}

// ListRecent returns up to limit events, newest first. A non-positive limit uses the default of 20.
func (sink *SQLiteSink) ListRecent(listContext context.Context, limit int) ([]Event, error) {
	if listContext == nil {
		listContext = context.Background()
	}
	if limit <= 0 {
		limit = defaultRecentEventLimitConstant
	}

	rows, queryError := sink.database.QueryContext(listContext, selectRecentEventsQueryConstant, limit)
	if queryError != nil {
		return nil, fmt.Errorf(listEventsErrorTemplateConstant, queryError)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			event               Event
			occurredAt          string
			encodedProperties   string
			encodedMeasurements string
		)
		if scanError := rows.Scan(&event.Identifier, &event.Name, &occurredAt, &encodedProperties, &encodedMeasurements); scanError != nil {
			return nil, fmt.Errorf(listEventsErrorTemplateConstant, scanError)
		}

		parsedTimestamp, parseError := time.Parse(time.RFC3339Nano, occurredAt)
		if parseError != nil {
			return nil, fmt.Errorf(decodeEventErrorTemplateConstant, event.Identifier, parseError)
		}
		event.Timestamp = parsedTimestamp

		if decodeError := json.Unmarshal([]byte(encodedProperties), &event.Properties); decodeError != nil {
			return nil, fmt.Errorf(decodeEventErrorTemplateConstant, event.Identifier, decodeError)
		}
		if decodeError := json.Unmarshal([]byte(encodedMeasurements), &event.Measurements); decodeError != nil {
			return nil, fmt.Errorf(decodeEventErrorTemplateConstant, event.Identifier, decodeError)
		}
		events = append(events, event)
	}
	if iterationError := rows.Err(); iterationError != nil {
		return nil, fmt.Errorf(listEventsErrorTemplateConstant, iterationError)
	}
	return events, nil
}

// Close releases the database.
func (sink *SQLiteSink) Close() error {
	return sink.database.Close()
}

func encodeMap[Value any](values map[string]Value) (string, error) {
	if values == nil {
		values = map[string]Value{}
	}
	encoded, encodeError := json.Marshal(values)
	if encodeError != nil {
		return "", encodeError
	}
	return string(encoded), nil
}
