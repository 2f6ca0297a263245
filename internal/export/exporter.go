package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/query"
	dbTypes "github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/export/csv"
	"github.com/robalyx/warden/internal/export/sqlite"
	"github.com/robalyx/warden/internal/export/types"
	"go.uber.org/zap"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatCSV    Format = "csv"
)

// EngineVersion should be bumped on breaking changes to the export layout.
const EngineVersion = "1.0.0"

// ConfigFileName is written next to the exported files.
const ConfigFileName = "export_config.json"

// Config holds the configuration for exports. Subject IDs are hashed when
// Salt is set.
type Config struct {
	Description string   `json:"description"`
	Salt        string   `json:"-"`
	HashType    HashType `json:"hashType,omitempty"`
	Iterations  uint32   `json:"iterations,omitempty"`
	Memory      uint32   `json:"memory,omitempty"`
	Concurrency int      `json:"-"`
}

// Searcher finds the infractions to export.
type Searcher interface {
	SearchSummaries(
		ctx context.Context, criteria *dbTypes.InfractionSearchCriteria, sorting []query.SortingCriteria,
	) ([]*dbTypes.InfractionSummary, error)
}

// Exporter handles exporting infractions.
type Exporter struct {
	searcher Searcher
	outDir   string
	config   *Config
	formats  []Format
	logger   *zap.Logger
}

// New creates a new exporter instance. No formats means every supported format.
func New(searcher Searcher, outDir string, config *Config, logger *zap.Logger, formats ...Format) *Exporter {
	if len(formats) == 0 {
		formats = []Format{FormatSQLite, FormatCSV}
	}

	return &Exporter{
		searcher: searcher,
		outDir:   outDir,
		config:   config,
		formats:  formats,
		logger:   logger.Named("exporter"),
	}
}

// Export writes every infraction matching criteria, ordered by id, in each
// configured format. Returns the number of exported records.
func (e *Exporter) Export(ctx context.Context, criteria *dbTypes.InfractionSearchCriteria) (int, error) {
	for _, format := range e.formats {
		if format != FormatSQLite && format != FormatCSV {
			return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
	}
	if e.config.Salt != "" {
		if err := e.config.HashType.Validate(); err != nil {
			return 0, err
		}
	}

	summaries, err := e.searcher.SearchSummaries(ctx, criteria, []query.SortingCriteria{
		{PropertyName: dbTypes.SortByID, Direction: query.SortDirectionAscending},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch infractions: %w", err)
	}

	records := make([]*types.Record, len(summaries))
	for i, summary := range summaries {
		records[i] = types.NewRecord(summary)
	}

	if e.config.Salt != "" {
		subjects := make([]snowflake.ID, len(summaries))
		for i, summary := range summaries {
			subjects[i] = summary.SubjectID
		}
		for i, hash := range hashIDs(subjects, e.config) {
			records[i].Subject = hash
		}
	}

	if err := os.MkdirAll(e.outDir, os.ModePerm); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := e.writeConfig(len(records)); err != nil {
		return 0, err
	}

	for _, format := range e.formats {
		if err := e.export(format, records); err != nil {
			return 0, fmt.Errorf("failed to export %s format: %w", format, err)
		}

		e.logger.Info("Exported infractions",
			zap.String("format", string(format)),
			zap.Int("count", len(records)))
	}

	return len(records), nil
}

// writeConfig records how the export was produced.
func (e *Exporter) writeConfig(count int) error {
	jsonConfig := struct {
		*Config

		EngineVersion string `json:"engineVersion"`
		Hashed        bool   `json:"hashed"`
		RecordCount   int    `json:"recordCount"`
	}{
		Config:        e.config,
		EngineVersion: EngineVersion,
		Hashed:        e.config.Salt != "",
		RecordCount:   count,
	}

	configData, err := sonic.MarshalIndent(jsonConfig, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal export config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(e.outDir, ConfigFileName), configData, 0o600); err != nil {
		return fmt.Errorf("failed to write export config: %w", err)
	}

	return nil
}

// export handles exporting data in the specified format.
func (e *Exporter) export(format Format, records []*types.Record) error {
	var exporter interface {
		Export(records []*types.Record) error
	}

	switch format {
	case FormatSQLite:
		exporter = sqlite.New(e.outDir)
	case FormatCSV:
		exporter = csv.New(e.outDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return exporter.Export(records)
}
