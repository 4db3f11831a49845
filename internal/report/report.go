// Package report renders price records as aligned text tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"rideprice/internal/aggregate"
	"rideprice/internal/fare"
)

var printer = message.NewPrinter(language.English)

// Amount formats a price with thousands separators, or "-" when unset.
func Amount(v *int64) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%d", *v)
}

type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) { t.rows = append(t.rows, cells) }

// write pads cells by display width so Persian labels line up.
func (t *table) write(w io.Writer) error {
	widths := make([]int, len(t.header))
	for _, row := range append([][]string{t.header}, t.rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ") + "\n"
	}
	var b strings.Builder
	b.WriteString(line(t.header))
	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	b.WriteString(line(rule))
	for _, row := range t.rows {
		b.WriteString(line(row))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func discount(r fare.Record) string {
	if !r.IsDiscounted {
		return ""
	}
	if r.ReferencePrice != nil {
		return fmt.Sprintf("%s (was %s)", r.DiscountText, Amount(r.ReferencePrice))
	}
	return r.DiscountText
}

// Records writes one row per record in input order.
func Records(w io.Writer, records []fare.Record) error {
	t := &table{header: []string{"#", "PROVIDER", "CATEGORY", "SERVICE", "PRICE", "DISCOUNT"}}
	for i, r := range records {
		category := r.CategoryLabel()
		if category == "" {
			category = "-"
		}
		t.add(fmt.Sprint(i+1), string(r.Provider), category, r.ServiceKey, Amount(r.Price), discount(r))
	}
	return t.write(w)
}

// Cheapest writes the best offer per tier.
func Cheapest(w io.Writer, best []aggregate.Best) error {
	t := &table{header: []string{"TIER", "PROVIDER", "SERVICE", "PRICE"}}
	for _, b := range best {
		t.add(b.Tier, string(b.Record.Provider), b.Record.ServiceKey, Amount(b.Record.Price))
	}
	return t.write(w)
}
