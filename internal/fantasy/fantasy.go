// Package fantasy computes the league's fantasy point totals.
package fantasy

import "math"

// Scoring weights per stat unit.
const (
	PointWeight    = 1.0
	ReboundWeight  = 1.2
	AssistWeight   = 1.5
	StealWeight    = 2.0
	BlockWeight    = 2.0
	TurnoverWeight = -1.0
)

// Line is a stat line. It may be per game, a season total or a projection.
type Line struct {
	Points    float64
	Rebounds  float64
	Assists   float64
	Steals    float64
	Blocks    float64
	Turnovers float64
}

// Score returns the fantasy value of l. Inputs are not validated.
func Score(l Line) float64 {
	return l.Points*PointWeight +
		l.Rebounds*ReboundWeight +
		l.Assists*AssistWeight +
		l.Steals*StealWeight +
		l.Blocks*BlockWeight +
		l.Turnovers*TurnoverWeight
}

// Round2 rounds half away from zero to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// LineFromInts builds a Line from nullable counting stats; nil counts as zero.
func LineFromInts(pts, reb, ast, stl, blk, tov *int) Line {
	return Line{
		Points:    intOrZero(pts),
		Rebounds:  intOrZero(reb),
		Assists:   intOrZero(ast),
		Steals:    intOrZero(stl),
		Blocks:    intOrZero(blk),
		Turnovers: intOrZero(tov),
	}
}

// LineFromFloats is LineFromInts for fractional inputs such as projections.
func LineFromFloats(pts, reb, ast, stl, blk, tov *float64) Line {
	return Line{
		Points:    floatOrZero(pts),
		Rebounds:  floatOrZero(reb),
		Assists:   floatOrZero(ast),
		Steals:    floatOrZero(stl),
		Blocks:    floatOrZero(blk),
		Turnovers: floatOrZero(tov),
	}
}

// PerGame divides a season total by games played, rounded to two places.
// Returns nil when either input is missing or gp is zero.
func PerGame(total, gp *int) *float64 {
	if total == nil || gp == nil || *gp == 0 {
		return nil
	}
	v := Round2(float64(*total) / float64(*gp))
	return &v
}

// Pct returns made/attempted rounded to three places, nil when nothing was
// attempted.
func Pct(made, attempted *int) *float64 {
	if made == nil || attempted == nil || *attempted == 0 {
		return nil
	}
	v := math.Round(float64(*made)/float64(*attempted)*1000) / 1000
	return &v
}

func intOrZero(p *int) float64 {
	if p == nil {
		return 0
	}
	return float64(*p)
}

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
