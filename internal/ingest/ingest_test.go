package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-watts-must-flow/internal/classification"
	"github.com/Veraticus/the-watts-must-flow/internal/common"
	"github.com/Veraticus/the-watts-must-flow/internal/document"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

type stubExtractor struct {
	err      error
	text     string
	gotPath  string
	gotPages int
}

func (s *stubExtractor) ExtractText(_ context.Context, path string, maxPages int) (string, error) {
	s.gotPath = path
	s.gotPages = maxPages
	return s.text, s.err
}

func TestService_Ingest(t *testing.T) {
	ext := &stubExtractor{text: "ΦΥΣΙΚΟ ΑΕΡΙΟ\n120,50 1386,00\nΗΜΕΡΕΣ 61"}
	svc := NewService(ext, nil, 0, nil)

	got, err := svc.Ingest(context.Background(), "bills/gas.pdf")
	require.NoError(t, err)

	assert.Equal(t, "bills/gas.pdf", ext.gotPath)
	assert.Equal(t, DefaultMaxPages, ext.gotPages)
	assert.Equal(t, model.Gas, got.EnergyType)
	assert.Equal(t, int64(1386), got.ConsumptionKWh)
	assert.Equal(t, 61, got.BillingDays)
	assert.Equal(t, "Fysiko Aerio", got.ProviderDetected)
}

func TestService_PageCap(t *testing.T) {
	ext := &stubExtractor{text: "kVA 450,00"}
	svc := NewService(ext, classification.NewClassifier(), 5, nil)

	_, err := svc.Ingest(context.Background(), "bill.pdf")
	require.NoError(t, err)
	assert.Equal(t, 5, ext.gotPages)
	assert.Equal(t, 5, svc.MaxPages())
}

func TestService_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		ext     *stubExtractor
		wantErr error
	}{
		{
			name:    "extraction failure",
			ext:     &stubExtractor{err: common.ErrUnreadableDocument},
			wantErr: common.ErrUnreadableDocument,
		},
		{
			name:    "empty text",
			ext:     &stubExtractor{text: ""},
			wantErr: common.ErrEmptyDocument,
		},
		{
			name:    "whitespace only",
			ext:     &stubExtractor{text: " \n\f\t "},
			wantErr: common.ErrEmptyDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.ext, nil, 2, nil)

			_, err := svc.Ingest(context.Background(), "scan.pdf")
			require.Error(t, err)

			var inputErr *common.InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, "scan.pdf", inputErr.Path)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Contains(t, err.Error(), "unreadable or empty document: scan.pdf")
		})
	}
}

func TestService_CancellationIsNotAnInputError(t *testing.T) {
	svc := NewService(&stubExtractor{err: context.Canceled}, nil, 2, nil)

	_, err := svc.Ingest(context.Background(), "bill.pdf")
	require.Error(t, err)
	assert.False(t, common.IsInputError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_WithDocumentSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "power.txt")
	require.NoError(t, os.WriteFile(path, []byte("DEI\nΙσχύς 8 kVA\n12,00 450,00 30,00\fΣύνολο Κατανάλωσης 999"), 0600))

	svc := NewService(document.NewSource(nil), nil, 1, nil)

	got, err := svc.Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.Electricity, got.EnergyType)
	// the label sits on page two, beyond the cap
	assert.Equal(t, int64(450), got.ConsumptionKWh)
	assert.Equal(t, "DEI", got.ProviderDetected)

	_, err = svc.Ingest(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.True(t, common.IsInputError(err))
}
