package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"PivotLevels/internal/model"
)

func price(v float64) string { return humanize.CommafWithDigits(v, 2) }

// FormatRunSummary renders the levels of every successful symbol followed by
// the failed ones.
func FormatRunSummary(at time.Time, results []*model.PivotResult, failures map[string]error) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📐 <b>Pivot levels</b> | %s\n", at.Format("2006-01-02 15:04 MST"))

	for _, r := range results {
		fmt.Fprintf(&b, "\n<b>%s</b> (%s)\n", html.EscapeString(r.Symbol), r.Variant)
		fmt.Fprintf(&b, "Prev day: H %s  L %s  C %s\n",
			price(r.Session.High), price(r.Session.Low), price(r.Session.Close))
		if r.Premarket != nil {
			note := ""
			if r.Overridden {
				note = " (range override)"
			}
			fmt.Fprintf(&b, "Premarket: H %s  L %s%s\n", price(r.Premarket.High), price(r.Premarket.Low), note)
		}
		for _, l := range model.CanonicalOrder {
			if v, ok := r.Levels.Get(l); ok {
				fmt.Fprintf(&b, "  %s  %s\n", l, price(v))
			}
		}
	}

	if len(failures) > 0 {
		symbols := make([]string, 0, len(failures))
		for s := range failures {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)

		b.WriteString("\n⚠️ <b>Failed</b>\n")
		for _, s := range symbols {
			fmt.Fprintf(&b, "%s: %s\n", html.EscapeString(s), html.EscapeString(failures[s].Error()))
		}
	}

	return b.String()
}
