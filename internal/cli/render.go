package cli

import (
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/catalog"
	"storefront/internal/report"
	"storefront/internal/session"

	"github.com/charmbracelet/lipgloss"
)

type palette struct {
	primary   string
	secondary string
	accent    string
	muted     string
	err       string
}

var palettes = map[session.Theme]palette{
	session.ThemeLight: {primary: "#1976d2", secondary: "#9c27b0", accent: "#2e7d32", muted: "#616161", err: "#d32f2f"},
	session.ThemeDark:  {primary: "#90caf9", secondary: "#ce93d8", accent: "#a5d6a7", muted: "#9e9e9e", err: "#f44336"},
}

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	muted lipgloss.Style
	err   lipgloss.Style
	bands map[catalog.Band]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, theme session.Theme) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[session.ThemeLight]
	}
	color := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return styles{
		title: color(p.primary).Bold(true),
		label: color(p.secondary),
		value: color(p.primary),
		muted: color(p.muted),
		err:   color(p.err).Bold(true),
		bands: map[catalog.Band]lipgloss.Style{
			catalog.BandBudget:   color(p.primary),
			catalog.BandStandard: color(p.secondary),
			catalog.BandPremium:  color(p.accent),
		},
	}
}

// formatAmount drops trailing zeros so thresholds read as "$40", not "$40.00".
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (sh *shell) renderProducts(res productsResult) {
	if len(res.Products) == 0 {
		sh.println(sh.styles.muted.Render("No products match."))
	}
	for _, p := range res.Products {
		band := sh.styles.bands[p.Band].Render(p.Band.Label())
		sh.printf("%3d) %-24s $%7.2f  %s", p.ID, p.Name, p.Price, band)
		if p.InCart > 0 {
			sh.printf("  %s", sh.styles.muted.Render(fmt.Sprintf("(%d in cart)", p.InCart)))
		}
		sh.println()
	}
	sh.printf("%d products, %d in cart\n", len(res.Products), res.CartCount)
}

func (sh *shell) renderCart(res cartResult) {
	if len(res.Lines) == 0 {
		sh.println(sh.styles.muted.Render("Your cart is empty."))
		return
	}
	sh.println(sh.styles.title.Render("Cart"))
	for _, l := range res.Lines {
		sh.printf("%3d) %-24s $%7.2f x %-3d = $%8.2f\n", l.ID, l.Name, l.Price, l.Quantity, l.Subtotal())
	}
	sh.printf("%s %d   %s $%.2f   %s $%.2f\n",
		sh.styles.label.Render("Items:"), res.Summary.TotalItems,
		sh.styles.label.Render("Total:"), res.Summary.TotalPrice,
		sh.styles.label.Render("Avg line:"), res.Summary.AvgPrice,
	)
}

func (sh *shell) renderReport(snap report.Snapshot) {
	p := snap.Params
	sh.printf("%s %s\n", sh.styles.title.Render("Report"),
		sh.styles.muted.Render(fmt.Sprintf("(mode=%s, threshold=$%s, sort=%s)", p.Mode, formatAmount(p.HighValueThreshold), p.SortBy)))

	metric := func(label, value, sub string) {
		sh.printf("  %-14s %10s  %s\n", sh.styles.label.Render(label), value, sh.styles.muted.Render(sub))
	}
	metric("Total units", strconv.Itoa(snap.TotalItems), fmt.Sprintf("across %d products", snap.UniqueItems))
	metric("Cart value", fmt.Sprintf("$%.2f", snap.TotalValue), fmt.Sprintf("avg unit $%.2f", snap.AvgUnitValue))
	metric("High value", strconv.Itoa(snap.HighValueCount), "price >= $"+formatAmount(p.HighValueThreshold))
	metric("Stock health", fmt.Sprintf("%.0f%%", snap.StockHealth), fmt.Sprintf("%d single-unit lines", snap.LowStockCount))

	sh.println(sh.styles.title.Render("Distribution"))
	for _, b := range snap.Distribution {
		value := strconv.FormatFloat(b.Value, 'f', 0, 64)
		if p.Mode == report.ModeValue {
			value = fmt.Sprintf("$%.2f", b.Value)
		}
		bar := strings.Repeat("#", int(b.Percent/5))
		sh.printf("  %-9s %5.1f%%  %-10s %s\n", sh.styles.bands[b.Band].Render(b.Label), b.Percent, value, bar)
	}

	if len(snap.SortedItems) > 1 {
		sh.printf("%s %s\n", sh.styles.title.Render("Trend"), snap.TrendLine())
	} else {
		sh.println(sh.styles.muted.Render("Add more than one item to visualize trend."))
	}

	top := "N/A"
	if snap.TopItem != nil {
		top = fmt.Sprintf("%s ($%.2f)", snap.TopItem.Name, snap.TopItem.Subtotal)
	}
	sh.printf("%s %s\n", sh.styles.label.Render("Top performer:"), top)

	if len(snap.SortedItems) == 0 {
		sh.println(sh.styles.muted.Render("No products in cart yet. Add items with 'add <id>'."))
		return
	}
	sh.println(sh.styles.title.Render("Items"))
	for i, item := range snap.SortedItems {
		sh.printf("%3d. %-24s $%.2f x %d = $%.2f\n", i+1, item.Name, item.Price, item.Quantity, item.Subtotal)
	}
}
