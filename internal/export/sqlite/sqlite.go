package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/robalyx/warden/internal/export/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// FileName is the name of the written database.
const FileName = "infractions.db"

const schema = `
	CREATE TABLE infractions (
		id INTEGER PRIMARY KEY,
		guild_id TEXT NOT NULL,
		subject TEXT NOT NULL,
		type TEXT NOT NULL,
		reason TEXT NOT NULL,
		duration_seconds INTEGER,
		created TEXT NOT NULL,
		created_by_id TEXT NOT NULL,
		expires TEXT,
		rescinded TEXT,
		deleted TEXT
	);
	CREATE INDEX idx_infractions_subject ON infractions (guild_id, subject);
`

const insertQuery = `
	INSERT INTO infractions (
		id, guild_id, subject, type, reason, duration_seconds,
		created, created_by_id, expires, rescinded, deleted
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Exporter handles exporting infractions to SQLite databases.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes the records to a new SQLite database, replacing any previous export.
func (e *Exporter) Export(records []*types.Record) error {
	path := filepath.Join(e.outDir, FileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", FileName, err)
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// Insert records in batches
	const batchSize = 1000
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))

		if err := e.insertBatch(conn, records[i:end]); err != nil {
			return err
		}
	}

	return nil
}

// insertBatch inserts records inside a single transaction.
func (e *Exporter) insertBatch(conn *sqlite.Conn, records []*types.Record) (err error) {
	defer sqlitex.Save(conn)(&err)

	for _, record := range records {
		var duration any
		if record.Duration != nil {
			duration = int64(record.Duration.Seconds())
		}

		err = sqlitex.Execute(conn, insertQuery, &sqlitex.ExecOptions{
			Args: []any{
				record.ID,
				record.GuildID,
				record.Subject,
				record.Type,
				record.Reason,
				duration,
				types.FormatTime(&record.Created),
				record.CreatedByID,
				nullable(types.FormatTime(record.ExpiresAt)),
				nullable(types.FormatTime(record.RescindedAt)),
				nullable(types.FormatTime(record.DeletedAt)),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
