package calculator

import (
	"fmt"
	"math"

	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

// Variant selects which Camarilla levels are produced.
type Variant string

const (
	// VariantExtended emits all thirteen levels R6..S6.
	VariantExtended Variant = "extended"
	// VariantSix emits R6, R4, R3, CP, S3, S4, S6.
	VariantSix Variant = "six"
	// VariantFour emits R4, R3, CP, S3, S4.
	VariantFour Variant = "four"
)

var variantLevels = map[Variant][]model.Level{
	VariantExtended: model.CanonicalOrder,
	VariantSix:      {model.R6, model.R4, model.R3, model.CP, model.S3, model.S4, model.S6},
	VariantFour:     {model.R4, model.R3, model.CP, model.S3, model.S4},
}

// ParseVariant maps a config value to a Variant. Empty selects the extended set.
func ParseVariant(s string) (Variant, error) {
	if s == "" {
		return VariantExtended, nil
	}
	v := Variant(s)
	if _, ok := variantLevels[v]; !ok {
		return "", fmt.Errorf("unknown pivot variant %q", s)
	}
	return v, nil
}

// Levels returns the levels the variant produces, in canonical order.
func (v Variant) Levels() []model.Level {
	return variantLevels[v]
}

// SelectRange picks the high/low the pivot math runs on. Premarket replaces
// both sides of the session range when it exceeds either side.
func SelectRange(session model.SessionRange, premarket *model.PremarketRange) (high, low float64, overridden bool) {
	if premarket != nil && (premarket.High > session.High || premarket.Low < session.Low) {
		return premarket.High, premarket.Low, true
	}
	return session.High, session.Low, false
}

// DerivePivots computes Camarilla levels from the previous session and the
// optional premarket range. CP is the session close, unrounded; every other
// level is rounded half away from zero.
func DerivePivots(session model.SessionRange, premarket *model.PremarketRange, variant Variant) (model.Levels, error) {
	wanted, ok := variantLevels[variant]
	if !ok {
		return nil, fmt.Errorf("unknown pivot variant %q", variant)
	}

	high, low, _ := SelectRange(session, premarket)
	c := session.Close
	if err := checkRange(high, low, c); err != nil {
		return nil, err
	}

	rng := high - low
	half := 1.1 * rng / 2
	quarter := 1.1 * rng / 4
	sixth := 1.1 * rng / 6
	twelfth := 1.1 * rng / 12

	r6 := math.Round((high / low) * c)
	all := model.Levels{
		model.R6: r6,
		model.R5: math.Round((c + half) + 1.168*((c+half)-(c+quarter))),
		model.R4: math.Round(c + half),
		model.R3: math.Round(c + quarter),
		model.R2: math.Round(c + sixth),
		model.R1: math.Round(c + twelfth),
		model.CP: c,
		model.S1: math.Round(c - twelfth),
		model.S2: math.Round(c - sixth),
		model.S3: math.Round(c - quarter),
		model.S4: math.Round(c - half),
		model.S5: math.Round((c - half) - 1.168*((c-quarter)-(c-half))),
		model.S6: math.Round(c - (r6 - c)),
	}

	levels := make(model.Levels, len(wanted))
	for _, l := range wanted {
		levels[l] = all[l]
	}
	return levels, nil
}

func checkRange(high, low, close float64) error {
	for _, v := range []float64{high, low, close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &errs.InvalidRangeError{High: high, Low: low, Reason: "non-finite input"}
		}
	}
	if low == 0 {
		return &errs.InvalidRangeError{High: high, Low: low, Reason: "low is zero"}
	}
	if high <= low {
		return &errs.InvalidRangeError{High: high, Low: low, Reason: "range is not positive"}
	}
	return nil
}
