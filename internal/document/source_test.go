package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-watts-must-flow/internal/common"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSource_PlainText(t *testing.T) {
	path := writeFile(t, "bill.txt", "page one 120,50\fpage two 1386,00\fpage three 99,00")
	src := NewSource(nil)

	tests := []struct {
		name     string
		maxPages int
		want     string
	}{
		{name: "first page", maxPages: 1, want: "page one 120,50"},
		{name: "two pages", maxPages: 2, want: "page one 120,50\npage two 1386,00"},
		{name: "cap above page count", maxPages: 10, want: "page one 120,50\npage two 1386,00\npage three 99,00"},
		{name: "no cap", maxPages: 0, want: "page one 120,50\npage two 1386,00\npage three 99,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := src.ExtractText(context.Background(), path, tt.maxPages)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSource_ExtensionIsCaseInsensitive(t *testing.T) {
	path := writeFile(t, "BILL.TXT", "ΗΜΕΡΕΣ 62")

	got, err := NewSource(nil).ExtractText(context.Background(), path, 2)
	require.NoError(t, err)
	assert.Equal(t, "ΗΜΕΡΕΣ 62", got)
}

func TestSource_Failures(t *testing.T) {
	src := NewSource(nil)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing text file", path: filepath.Join(t.TempDir(), "missing.txt")},
		{name: "missing pdf", path: filepath.Join(t.TempDir(), "missing.pdf")},
		{name: "garbage pdf", path: writeFile(t, "broken.pdf", "this is not a pdf")},
		{name: "truncated pdf header", path: writeFile(t, "trunc.pdf", "%PDF-1.4\n1 0 obj\n<<")},
		{name: "unsupported extension", path: writeFile(t, "scan.png", "\x89PNG")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := src.ExtractText(context.Background(), tt.path, 2)
			require.Error(t, err)
			assert.Empty(t, text)
			assert.True(t, errors.Is(err, common.ErrUnreadableDocument), "got %v", err)
		})
	}
}

func TestSource_CancelledContext(t *testing.T) {
	path := writeFile(t, "bill.txt", "text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(nil).ExtractText(ctx, path, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
