package export_test

import (
	"encoding/hex"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		id         snowflake.ID
		salt       string
		hashType   export.HashType
		iterations uint32
		memory     uint32
		want       string
	}{
		{
			name:       "sha256 single iteration",
			id:         12345,
			salt:       "test_salt",
			hashType:   export.HashTypeSHA256,
			iterations: 1,
			want:       "ce3807a728757fad6c9eb6f3934c71363857bca5f8f9d7a67452543acf47ac42",
		},
		{
			name:       "sha256 three iterations",
			id:         12345,
			salt:       "test_salt",
			hashType:   export.HashTypeSHA256,
			iterations: 3,
			want:       "2f9ed488c8e0ccce3329b47ebb9c6b7870448da2ef857c9b9b1543c29bfd1d82",
		},
		{
			name:       "argon2id",
			id:         12345,
			salt:       "test_salt",
			hashType:   export.HashTypeArgon2id,
			iterations: 1,
			memory:     1,
			want:       "70734f36c4da16b8322f487906015143b6fd316b76b2e2dfd627b60f819702d6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := export.HashID(tt.id, tt.salt, tt.hashType, tt.iterations, tt.memory)

			_, err := hex.DecodeString(got)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashIDDiffers(t *testing.T) {
	t.Parallel()

	base := export.HashID(12345, "salt", export.HashTypeSHA256, 2, 0)
	assert.NotEqual(t, base, export.HashID(54321, "salt", export.HashTypeSHA256, 2, 0))
	assert.NotEqual(t, base, export.HashID(12345, "pepper", export.HashTypeSHA256, 2, 0))
	assert.Equal(t, base, export.HashID(12345, "salt", export.HashTypeSHA256, 2, 0))
}

func TestHashTypeValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, export.HashTypeArgon2id.Validate())
	require.NoError(t, export.HashTypeSHA256.Validate())
	assert.ErrorIs(t, export.HashType("md5").Validate(), export.ErrUnsupportedHashType)
}
