// Package export writes ranked cost tables to spreadsheet files.
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/the-watts-must-flow/internal/session"
)

// SummarySheet is the name of the sheet describing every exported scenario.
const SummarySheet = "Summary"

// ErrNothingToExport is returned when no tables are given.
var ErrNothingToExport = errors.New("nothing to export")

var offerHeaders = []string{
	"Rank",
	"Provider",
	"Program",
	"Detected",
	"Price/kWh",
	"Discount",
	"Effective Price",
	"Fixed Cost",
	"Energy Cost",
	"Regulated",
	"Subtotal",
	"VAT",
	"Total",
}

var summaryHeaders = []string{
	"Sheet",
	"Energy Type",
	"Segment",
	"kWh",
	"Days",
	"Detected Provider",
	"Catalog Version",
	"Offers",
	"Cheapest",
}

// Exporter produces XLSX workbooks with one sheet per cost table.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// Save writes the workbook to path.
func (e *Exporter) Save(path string, tables []session.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := e.Write(f, tables); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// Write streams the workbook to w.
func (e *Exporter) Write(w io.Writer, tables []session.Table) error {
	if len(tables) == 0 {
		return ErrNothingToExport
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	names := sheetNames(tables)
	for i, t := range tables {
		if _, err := f.NewSheet(names[i]); err != nil {
			return fmt.Errorf("xlsx sheet %q: %w", names[i], err)
		}
		if err := writeOffers(f, names[i], t, header); err != nil {
			return err
		}
	}

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("xlsx sheet %q: %w", SummarySheet, err)
	}
	if err := writeSummary(f, names, tables, header); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	e.logger.Info("Exported cost tables",
		"tables", len(tables),
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func writeOffers(f *excelize.File, sheet string, t session.Table, header int) error {
	if err := writeRow(f, sheet, 1, toAny(offerHeaders)); err != nil {
		return err
	}

	for i, row := range t.Rows {
		detected := ""
		if row.IsDetectedProviderMatch {
			detected = "yes"
		}
		values := []any{
			i + 1,
			row.Offer.Name,
			row.Offer.Program,
			detected,
			price(row.Offer.PricePerKWh),
			price(row.Offer.DiscountFraction),
			price(row.EffectivePrice),
			money(row.FixedCost),
			money(row.EnergyCost),
			money(row.RegulatedCost),
			money(row.Subtotal),
			money(row.VATAmount),
			money(row.TotalCost),
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	return styleSheet(f, sheet, header, colWidth{"B", "C", 22}, colWidth{"E", "M", 14})
}

func writeSummary(f *excelize.File, names []string, tables []session.Table, header int) error {
	if err := writeRow(f, SummarySheet, 1, toAny(summaryHeaders)); err != nil {
		return err
	}

	for i, t := range tables {
		cheapest := ""
		if best, ok := cheapestOffer(t); ok {
			cheapest = best
		}
		sc := t.Scenario
		values := []any{
			names[i],
			string(sc.EnergyType),
			string(sc.Segment),
			sc.KWh.String(),
			sc.Days,
			sc.DetectedProvider,
			t.CatalogVersion,
			len(t.Rows),
			cheapest,
		}
		if err := writeRow(f, SummarySheet, i+2, values); err != nil {
			return err
		}
	}

	return styleSheet(f, SummarySheet, header, colWidth{"A", "A", 26}, colWidth{"F", "I", 20})
}

type colWidth struct {
	first, last string
	width       float64
}

// styleSheet bolds the header row and widens the given column ranges.
func styleSheet(f *excelize.File, sheet string, header int, widths ...colWidth) error {
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return fmt.Errorf("xlsx header style %q: %w", sheet, err)
	}
	for _, w := range widths {
		if err := f.SetColWidth(sheet, w.first, w.last, w.width); err != nil {
			return fmt.Errorf("xlsx column width %q %s:%s: %w", sheet, w.first, w.last, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx row %d of %q: %w", row, sheet, err)
	}
	return nil
}

// cheapestOffer ignores the detected-provider ordering and picks the lowest total.
func cheapestOffer(t session.Table) (string, bool) {
	if len(t.Rows) == 0 {
		return "", false
	}
	best := t.Rows[0]
	for _, row := range t.Rows[1:] {
		if row.TotalCost.LessThan(best.TotalCost) {
			best = row
		}
	}
	return best.Offer.Name, true
}

// sheetNames returns a unique sheet name per table, e.g. "Electricity Residential".
func sheetNames(tables []session.Table) []string {
	seen := make(map[string]int, len(tables))
	names := make([]string, len(tables))
	for i, t := range tables {
		name := capitalize(string(t.Scenario.EnergyType)) + " " + capitalize(string(t.Scenario.Segment))
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Table"
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s %d", name, n)
		}
		names[i] = name
	}
	return names
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func price(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
