package model

import "time"

// Bar is one OHLCV observation as returned by the provider.
type Bar struct {
	Time   int64   `json:"time"` // unix seconds, UTC
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Timestamp returns the bar open time in UTC.
func (b Bar) Timestamp() time.Time {
	return time.Unix(b.Time, 0).UTC()
}

// Series is a list of bars in ascending time order. Callers treat it as read-only.
type Series []Bar

// Last returns the most recent bar.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// SessionRange is the high/low/close of one completed session.
type SessionRange struct {
	High  float64
	Low   float64
	Close float64
}

// RangeOf reduces a session bar to its range.
func RangeOf(b Bar) SessionRange {
	return SessionRange{High: b.High, Low: b.Low, Close: b.Close}
}

// PremarketRange holds the extremes traded before the regular open.
type PremarketRange struct {
	High float64
	Low  float64
}

// Instrument maps one provider symbol to the symbols used by the charting tool.
type Instrument struct {
	APISymbol      string   `yaml:"api_symbol" validate:"required"`
	DisplaySymbols []string `yaml:"display_symbols" validate:"required,min=1,dive,required"`
	Family         string   `yaml:"family"`
}
