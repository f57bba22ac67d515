package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-watts-must-flow/internal/catalog"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/session"
)

var costHeaders = []string{"", "Provider", "Program", "€/kWh", "Fixed", "Energy", "Regulated", "VAT", "Total"}

// EnergyIcon returns the icon used for an energy type.
func EnergyIcon(energy model.EnergyType) string {
	if energy == model.Gas {
		return GasIcon
	}
	return ElectricityIcon
}

// RenderClassification describes what was read from a bill.
func RenderClassification(path string, result model.ClassificationResult) string {
	provider := result.ProviderDetected
	if !result.HasDetectedProvider() {
		provider = SubtleStyle.Render(model.UnknownProvider)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Energy type:  %s %s\n", EnergyIcon(result.EnergyType), result.EnergyType, SubtleStyle.Render("("+result.DecidedBy+")"))
	fmt.Fprintf(&b, "%s Provider:     %s\n", InfoIcon, provider)
	fmt.Fprintf(&b, "%s Consumption:  %d kWh\n", ChartIcon, result.ConsumptionKWh)
	fmt.Fprintf(&b, "%s Billing days: %d", BillIcon, result.BillingDays)

	return RenderBox(path, b.String())
}

// RenderCostTable renders a ranked cost table. The detected provider's offers are starred.
func RenderCostTable(t session.Table) string {
	sc := t.Scenario
	title := FormatTitle(fmt.Sprintf("%s %s offers for %s kWh over %d days",
		capitalize(string(sc.Segment)), sc.EnergyType, sc.KWh.String(), sc.Days))

	if len(t.Rows) == 0 {
		return title + "\n" + FormatWarning("No offers in the catalog for this scenario")
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		marker := ""
		if r.IsDetectedProviderMatch {
			marker = DetectedIcon
		}
		rows = append(rows, []string{
			marker,
			r.Offer.Name,
			r.Offer.Program,
			r.EffectivePrice.StringFixed(4),
			euros(r.FixedCost),
			euros(r.EnergyCost),
			euros(r.RegulatedCost),
			euros(r.VATAmount),
			euros(r.TotalCost),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(costHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := TableCellStyle
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle.PaddingRight(2)
			case t.Rows[row].IsDetectedProviderMatch:
				style = HighlightStyle.PaddingRight(2)
			}
			if col >= 3 {
				style = style.Align(lipgloss.Right)
			}
			return style
		})

	footer := SubtleStyle.Render(fmt.Sprintf("Catalog %s · provider on bill: %s", orDash(t.CatalogVersion), sc.DetectedProvider))
	return lipgloss.JoinVertical(lipgloss.Left, title, tbl.Render(), footer)
}

// RenderHistory lists the imports and failures recorded in a session.
func RenderHistory(records []model.ImportRecord, failures []model.ImportFailure) string {
	if len(records) == 0 && len(failures) == 0 {
		return FormatInfo("No bills imported yet")
	}

	var b strings.Builder
	for _, r := range records {
		res := r.Result
		fmt.Fprintf(&b, "%s %s  %s %d kWh, %d days, %s\n",
			SuccessIcon, r.Path, EnergyIcon(res.EnergyType), res.ConsumptionKWh, res.BillingDays, res.ProviderDetected)
	}
	for _, f := range failures {
		fmt.Fprintf(&b, "%s\n", FormatError(fmt.Sprintf("%s  %s", f.Path, f.Reason)))
	}

	summary := fmt.Sprintf("%d imported, %d failed", len(records), len(failures))
	return RenderBox("Import history", strings.TrimRight(b.String(), "\n")+"\n\n"+SubtleStyle.Render(summary))
}

// RenderCatalog summarizes a catalog snapshot.
func RenderCatalog(snap *catalog.Snapshot) string {
	if snap == nil {
		return FormatWarning("No catalog loaded")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Version: %s\n", orDash(snap.Version))
	fmt.Fprintf(&b, "Source:  %s\n", snap.Source)
	fmt.Fprintf(&b, "Loaded:  %s\n\n", snap.LoadedAt.Format("2006-01-02 15:04:05"))
	for _, segment := range []model.Segment{model.Residential, model.Business} {
		for _, energy := range model.EnergyTypes {
			fmt.Fprintf(&b, "%s %-12s %-12s %d offers\n", EnergyIcon(energy), energy, segment, snap.OfferCount(energy, segment))
		}
	}
	regulated := "regulated charges: defaults"
	if rc := snap.RegulatedCharges(); rc != nil && rc.Electricity != nil {
		regulated = "regulated charges: from catalog"
	}
	b.WriteString(SubtleStyle.Render(regulated))

	return RenderBox("Tariff catalog", b.String())
}

// NewProgressBar creates the progress bar shown while importing several bills.
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[yellow]=[reset]",
			SaucerHead:    "[yellow]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func euros(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
