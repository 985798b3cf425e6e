package reconcile

import (
	"fmt"
	"strings"

	"github.com/albapepper/hoopgeek-data/internal/model"
)

// Strategy selects which lookups a Reconciler attempts.
type Strategy int

const (
	// ExactOnly accepts only exact normalized-name hits.
	ExactOnly Strategy = iota
	// ExactThenLastName falls back to a unique last-name match.
	ExactThenLastName
)

func (s Strategy) String() string {
	switch s {
	case ExactOnly:
		return "exact"
	case ExactThenLastName:
		return "exact_then_last_name"
	}
	return "unknown"
}

// Confidence values assigned to matches, ordered from strongest to weakest.
const (
	ActiveConfidence   = 1.0
	InactiveConfidence = 0.9
	FallbackConfidence = 0.7
)

// Reconciler matches external records against an Index.
type Reconciler struct {
	idx      *Index
	strategy Strategy
}

// NewReconciler returns a Reconciler over idx.
func NewReconciler(idx *Index, strategy Strategy) *Reconciler {
	return &Reconciler{idx: idx, strategy: strategy}
}

// Reconcile resolves one record. It has no side effects.
func (r *Reconciler) Reconcile(rec model.ExternalRecord) model.MatchResult {
	res := model.MatchResult{Record: rec, Status: model.StatusUnmatched}

	if strings.TrimSpace(rec.Name) == "" {
		res.Status = model.StatusSkipped
		res.Reason = "missing name"
		return res
	}

	if p, ok := r.idx.Lookup(rec.Name); ok {
		res.Player = &p
		res.Status = model.StatusMatched
		res.Method = model.MethodExact
		res.Confidence = InactiveConfidence
		if p.IsActive {
			res.Confidence = ActiveConfidence
		}
		return res
	}

	if r.strategy == ExactThenLastName {
		if p, ok := r.idx.LookupLastName(rec.Name); ok {
			res.Player = &p
			res.Status = model.StatusMatched
			res.Method = model.MethodLastName
			res.Confidence = FallbackConfidence
			return res
		}
	}

	res.Reason = "no registry player with this name"
	return res
}

// ReconcileAll resolves recs in order. The result has one entry per input.
func (r *Reconciler) ReconcileAll(recs []model.ExternalRecord) []model.MatchResult {
	out := make([]model.MatchResult, len(recs))
	for i, rec := range recs {
		out[i] = r.Reconcile(rec)
	}
	return out
}

// ReconcileBatch is ReconcileAll for records written under the matched
// player's id, where two matches to one player would overwrite each other.
// A last-name match is demoted to unmatched when another record matched the
// same player exactly, or when more than one last-name match claims the
// player. The outcome does not depend on record order.
func (r *Reconciler) ReconcileBatch(recs []model.ExternalRecord) []model.MatchResult {
	out := r.ReconcileAll(recs)

	exact := map[int64]bool{}
	byLastName := map[int64]int{}
	for _, m := range out {
		if !m.Matched() {
			continue
		}
		switch m.Method {
		case model.MethodExact:
			exact[m.Player.ID] = true
		case model.MethodLastName:
			byLastName[m.Player.ID]++
		}
	}

	for i, m := range out {
		if !m.Matched() || m.Method != model.MethodLastName {
			continue
		}
		switch id := m.Player.ID; {
		case exact[id]:
			out[i] = demote(m, fmt.Sprintf("last-name match %q already matched exactly by another record", m.Player.Name))
		case byLastName[id] > 1:
			out[i] = demote(m, fmt.Sprintf("last-name match %q claimed by %d records", m.Player.Name, byLastName[id]))
		}
	}
	return out
}

func demote(m model.MatchResult, reason string) model.MatchResult {
	m.Player = nil
	m.Status = model.StatusUnmatched
	m.Method = ""
	m.Confidence = 0
	m.Reason = reason
	return m
}
