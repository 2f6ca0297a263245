package utils_test

import (
	"testing"

	"github.com/robalyx/warden/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeReason(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already clean",
			input: "spamming invites",
			want:  "spamming invites",
		},
		{
			name:  "repeated spaces and tabs",
			input: "spamming \t  invites",
			want:  "spamming invites",
		},
		{
			name:  "keeps inner newlines",
			input: "  first offence  \r\n  second   offence ",
			want:  "first offence\nsecond offence",
		},
		{
			name:  "blank edges",
			input: "\n\n  reason \n\n",
			want:  "reason",
		},
		{
			name:  "composes decomposed accents",
			input: "cafe\u0301 raid",
			want:  "caf\u00e9 raid",
		},
		{
			name:  "drops zero-width characters",
			input: "sl\u200bur",
			want:  "slur",
		},
		{
			name:  "only whitespace",
			input: " \t\n ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.NormalizeReason(tt.input))
		})
	}
}
