// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ShouldAutoGrab is the core threshold check: both the match score and the
// seeder count must clear their minimums.
func ShouldAutoGrab(score, seeders, minScore, minSeeders int) bool {
	return score >= minScore && seeders >= minSeeders
}

// ScoredCandidate pairs a feed candidate with its evaluation against one
// catalog entry.
type ScoredCandidate struct {
	Candidate Candidate
	Match     MatchResult
}

// GrabPolicy decides whether a scored release is grabbed automatically.
// Beyond the score/seeder thresholds an optional filter expression can veto
// candidates, e.g. `Size < 50 * GB && Indexer != "rarbg"`.
type GrabPolicy struct {
	MinScore   int
	MinSeeders int

	filter *vm.Program
}

// NewGrabPolicy compiles the optional filter expression and returns the
// policy. An empty filterExpr disables the filter.
func NewGrabPolicy(minScore, minSeeders int, filterExpr string) (*GrabPolicy, error) {
	p := &GrabPolicy{
		MinScore:   minScore,
		MinSeeders: minSeeders,
	}

	filterExpr = strings.TrimSpace(filterExpr)
	if filterExpr != "" {
		program, err := expr.Compile(filterExpr, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile grab filter: %w", err)
		}
		p.filter = program
	}

	return p, nil
}

// Qualifies reports whether the candidate clears the thresholds and, when
// configured, the filter expression.
func (p *GrabPolicy) Qualifies(sc ScoredCandidate) (bool, error) {
	if !ShouldAutoGrab(sc.Match.Score, sc.Candidate.Seeders, p.MinScore, p.MinSeeders) {
		return false, nil
	}

	if p.filter == nil {
		return true, nil
	}

	env := map[string]any{
		"Title":      sc.Candidate.Title,
		"Size":       sc.Candidate.Size,
		"Seeders":    sc.Candidate.Seeders,
		"Peers":      sc.Candidate.Peers,
		"Indexer":    sc.Candidate.Indexer,
		"Group":      sc.Candidate.Group,
		"Year":       sc.Candidate.Year,
		"Score":      sc.Match.Score,
		"Quality":    sc.Match.Quality,
		"Version":    sc.Match.Version,
		"Confidence": sc.Match.Confidence,
		"KB":         int64(1024),
		"MB":         int64(1024 * 1024),
		"GB":         int64(1024 * 1024 * 1024),
	}

	out, err := expr.Run(p.filter, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate grab filter: %w", err)
	}

	pass, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("grab filter returned %T, expected bool", out)
	}
	return pass, nil
}

// SelectFirst walks candidates in feed order and returns the first one that
// qualifies. First-fit is deliberate: the engine grabs the first acceptable
// release rather than waiting for a better one. Filter evaluation errors
// skip the candidate and are returned alongside the selection.
func (p *GrabPolicy) SelectFirst(candidates []ScoredCandidate) (*ScoredCandidate, []error) {
	var errs []error
	for i := range candidates {
		ok, err := p.Qualifies(candidates[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("candidate %q: %w", candidates[i].Candidate.Title, err))
			continue
		}
		if ok {
			return &candidates[i], errs
		}
	}
	return nil, errs
}
