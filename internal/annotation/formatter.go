// Package annotation renders price levels into the charting tool's price-note
// CSV format and writes them to disk.
package annotation

import (
	"strconv"

	"github.com/shopspring/decimal"

	"PivotLevels/internal/model"
)

// Header is the first line of every annotation CSV.
var Header = []string{
	"Symbol",
	"Price Level",
	"Note",
	"Foreground Color",
	"Background Color",
	"Text Alignment",
	"Draw Note Price Horizontal Line",
}

const (
	foreground      = "#ffffff"
	resistanceColor = "#990000"
	pivotColor      = "#FFFF00"
	supportColor    = "#339897"
	ohlcColor       = "#FF00FF"
	alignment       = "right"
)

func levelColor(l model.Level) string {
	switch {
	case l.Resistance():
		return resistanceColor
	case l.Support():
		return supportColor
	default:
		return pivotColor
	}
}

// LevelRows emits one row per present level in canonical order, prices with
// exactly two decimals rounded from the exact binary value (1.005 is "1.00").
func LevelRows(symbol string, levels model.Levels) []model.AnnotationRow {
	rows := make([]model.AnnotationRow, 0, len(levels))
	for _, l := range model.CanonicalOrder {
		price, ok := levels.Get(l)
		if !ok {
			continue
		}
		rows = append(rows, model.AnnotationRow{
			Symbol:     symbol,
			Price:      decimal.NewFromFloatWithExponent(price, -2).StringFixed(2),
			Note:       string(l),
			Foreground: foreground,
			Background: levelColor(l),
			Alignment:  alignment,
			DrawLine:   true,
		})
	}
	return rows
}

// OHLCRows emits the previous-day high, close, low and open. Prices are
// written as plain numbers, without fixed decimals.
func OHLCRows(symbol string, bar model.Bar) []model.AnnotationRow {
	notes := []struct {
		note  string
		price float64
	}{
		{"PDH", bar.High},
		{"PDC", bar.Close},
		{"PDL", bar.Low},
		{"PDO", bar.Open},
	}
	rows := make([]model.AnnotationRow, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, model.AnnotationRow{
			Symbol:     symbol,
			Price:      strconv.FormatFloat(n.price, 'f', -1, 64),
			Note:       n.note,
			Foreground: foreground,
			Background: ohlcColor,
			Alignment:  alignment,
			DrawLine:   true,
		})
	}
	return rows
}

// Record converts a row to CSV fields.
func Record(r model.AnnotationRow) []string {
	draw := "FALSE"
	if r.DrawLine {
		draw = "TRUE"
	}
	return []string{r.Symbol, r.Price, r.Note, r.Foreground, r.Background, r.Alignment, draw}
}
