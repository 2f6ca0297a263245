package csv

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalyx/warden/internal/export/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	week := 7 * 24 * time.Hour
	expires := created.Add(week)

	tests := []struct {
		name    string
		records []*types.Record
		want    [][]string
	}{
		{
			name:    "empty records",
			records: []*types.Record{},
			want:    [][]string{Header},
		},
		{
			name: "optional columns",
			records: []*types.Record{
				{ID: 1, GuildID: "10", Subject: "20", Type: "Warning", Reason: "spam", Created: created, CreatedByID: "30"},
				{
					ID: 2, GuildID: "10", Subject: "abc123", Type: "Mute", Reason: "line one\nline, two",
					Duration: &week, Created: created, CreatedByID: "30", ExpiresAt: &expires, DeletedAt: &created,
				},
			},
			want: [][]string{
				Header,
				{"1", "10", "20", "Warning", "spam", "", "2026-02-01T09:00:00Z", "30", "", "", ""},
				{
					"2", "10", "abc123", "Mute", "line one\nline, two", "604800", "2026-02-01T09:00:00Z", "30",
					"2026-02-08T09:00:00Z", "", "2026-02-01T09:00:00Z",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			require.NoError(t, New(dir).Export(tt.records))

			file, err := os.Open(filepath.Join(dir, FileName))
			require.NoError(t, err)
			defer file.Close()

			rows, err := csv.NewReader(file).ReadAll()
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}
