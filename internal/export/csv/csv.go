package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/robalyx/warden/internal/export/types"
)

// FileName is the name of the written file.
const FileName = "infractions.csv"

// Header lists the exported columns in order.
var Header = []string{ //nolint:gochecknoglobals // -
	"id", "guild_id", "subject", "type", "reason", "duration_seconds",
	"created", "created_by_id", "expires", "rescinded", "deleted",
}

// Exporter handles exporting infractions to csv files.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes the records to a csv file, replacing any previous export.
func (e *Exporter) Export(records []*types.Record) error {
	path := filepath.Join(e.outDir, FileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", FileName, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range records {
		if err := writer.Write([]string{
			strconv.FormatInt(record.ID, 10),
			record.GuildID,
			record.Subject,
			record.Type,
			record.Reason,
			record.DurationSeconds(),
			types.FormatTime(&record.Created),
			record.CreatedByID,
			types.FormatTime(record.ExpiresAt),
			types.FormatTime(record.RescindedAt),
			types.FormatTime(record.DeletedAt),
		}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv file: %w", err)
	}

	return nil
}
