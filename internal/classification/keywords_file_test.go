package classification

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeywordFile(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		errMsg  string
		want    int
		wantErr bool
	}{
		{
			name: "valid file",
			input: `providers:
  - name: Heron
    keywords:
      - text: "ΗΡΩΝ"
      - text: heron
        fold_case: true
  - name: Elpedison
    keywords:
      - text: Elpedison
`,
			want: 2,
		},
		{
			name:  "empty file",
			input: "",
			want:  0,
		},
		{
			name: "missing name",
			input: `providers:
  - keywords:
      - text: foo
`,
			wantErr: true,
			errMsg:  "has no name",
		},
		{
			name: "missing keywords",
			input: `providers:
  - name: Foo
`,
			wantErr: true,
			errMsg:  "has no keywords",
		},
		{
			name: "blank keyword",
			input: `providers:
  - name: Foo
    keywords:
      - text: "  "
`,
			wantErr: true,
			errMsg:  "is empty",
		},
		{
			name:    "malformed yaml",
			input:   "providers: [",
			wantErr: true,
			errMsg:  "failed to decode keyword file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeywordFile(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestLoadKeywordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - name: Heron\n    keywords:\n      - text: heron\n        fold_case: true\n"), 0600))

	providers, err := LoadKeywordFile(path)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "Heron", providers[0].Name)
	assert.True(t, providers[0].Keywords[0].FoldCase)

	_, err = LoadKeywordFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
