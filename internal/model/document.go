package model

import (
	"encoding/json"
	"fmt"
)

// SeriesDocument is a provider history response: the bar series plus any
// other top-level fields, which are carried through untouched.
type SeriesDocument struct {
	Series Series
	Extra  map[string]json.RawMessage
}

func (d SeriesDocument) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra)+1)
	for k, v := range d.Extra {
		out[k] = v
	}
	series := d.Series
	if series == nil {
		series = Series{}
	}
	raw, err := json.Marshal(series)
	if err != nil {
		return nil, err
	}
	out["series"] = raw
	return json.Marshal(out)
}

func (d *SeriesDocument) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	d.Series = nil
	if raw, ok := fields["series"]; ok {
		if err := json.Unmarshal(raw, &d.Series); err != nil {
			return fmt.Errorf("decode series: %w", err)
		}
		delete(fields, "series")
	}
	d.Extra = fields
	return nil
}
