package model

// Level names one Camarilla price level.
type Level string

const (
	R6 Level = "R6"
	R5 Level = "R5"
	R4 Level = "R4"
	R3 Level = "R3"
	R2 Level = "R2"
	R1 Level = "R1"
	CP Level = "CP"
	S1 Level = "S1"
	S2 Level = "S2"
	S3 Level = "S3"
	S4 Level = "S4"
	S5 Level = "S5"
	S6 Level = "S6"
)

// CanonicalOrder is the top-to-bottom order levels are emitted in.
var CanonicalOrder = []Level{R6, R5, R4, R3, R2, R1, CP, S1, S2, S3, S4, S5, S6}

// Levels maps each computed level to its price. Absent keys were not computed.
type Levels map[Level]float64

// Get returns the price for l and whether it is present.
func (l Levels) Get(level Level) (float64, bool) {
	v, ok := l[level]
	return v, ok
}

// Resistance reports whether the level sits above the central pivot.
func (l Level) Resistance() bool { return len(l) == 2 && l[0] == 'R' }

// Support reports whether the level sits below the central pivot.
func (l Level) Support() bool { return len(l) == 2 && l[0] == 'S' }

// AnnotationRow is one line of the charting tool's price-note CSV.
type AnnotationRow struct {
	Symbol     string
	Price      string
	Note       string
	Foreground string
	Background string
	Alignment  string
	DrawLine   bool
}

// PivotResult is everything derived for one symbol in one run.
type PivotResult struct {
	Symbol     string
	Session    Bar
	Premarket  *PremarketRange
	Overridden bool
	Variant    string
	Levels     Levels
}
