package picker

import (
	"fmt"
	"sort"
	"strings"
)

// candidate is a peer prepared for fuzzy searching and display.
type candidate struct {
	Peer       Peer
	SearchText string

	// index is the position in the original status output; it is the tie
	// break for equal scores and the order for empty queries.
	index int
}

// buildCandidates constructs searchable entries for all peers.
// Matching runs against the normalized hostname only: the spec for this tool
// is "find a machine by name", not by address or tag.
func buildCandidates(peers []Peer) []candidate {
	cands := make([]candidate, 0, len(peers))
	for i, p := range peers {
		cands = append(cands, candidate{
			Peer:       p,
			SearchText: normalizeHostname(p.Hostname),
			index:      i,
		})
	}
	return cands
}

// rankMatches filters and sorts candidates by fuzzy score against query.
//
// Query semantics (simple, fzf-like tokenization):
// - Split query on whitespace into tokens.
// - All tokens must match (AND).
// - Score is the sum of token scores (higher is better).
//
// Empty query returns all candidates in their original order. Ties sort by
// original order, so filtering is stable and idempotent.
func rankMatches(cands []candidate, query string) []candidate {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(tokens) == 0 {
		out := make([]candidate, len(cands))
		copy(out, cands)
		return out
	}

	type scored struct {
		c candidate
		s int
	}

	scoreds := make([]scored, 0, len(cands))
	for _, c := range cands {
		total := 0
		okAll := true
		for _, t := range tokens {
			if s, ok := fuzzyScore(t, c.SearchText); ok {
				total += s
			} else {
				okAll = false
				break
			}
		}
		if okAll {
			scoreds = append(scoreds, scored{c: c, s: total})
		}
	}

	// Sort by score (desc); sort.SliceStable keeps original order for ties.
	sort.SliceStable(scoreds, func(i, j int) bool {
		return scoreds[i].s > scoreds[j].s
	})

	out := make([]candidate, len(scoreds))
	for i := range scoreds {
		out[i] = scoreds[i].c
	}
	return out
}

// fuzzyScore performs a simple subsequence fuzzy match.
// Returns (score, true) if query is a subsequence of text; otherwise (0, false).
// The score rewards consecutive matches, word boundaries, and early positions.
func fuzzyScore(query, text string) (int, bool) {
	if query == "" {
		return 0, true
	}
	// Caller lowercases both sides.
	rt := []rune(text)
	rq := []rune(query)

	ti := 0
	lastPos := -1
	consecutive := 0
	score := 0
	firstPos := -1

	for _, qch := range rq {
		found := false
		for i := ti; i < len(rt); i++ {
			if rt[i] == qch {
				// Base score for a match
				score += 10
				if firstPos == -1 {
					firstPos = i
				}
				// Consecutive bonus
				if lastPos >= 0 && i == lastPos+1 {
					consecutive++
					score += 5 * consecutive // escalating bonus
				} else {
					consecutive = 0
				}
				// Word boundary bonus
				if i == 0 || !isAlphaNum(rt[i-1]) {
					score += 10
				}
				lastPos = i
				ti = i + 1
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	// Early start bonus
	if firstPos >= 0 {
		if bonus := 20 - firstPos; bonus > 0 {
			score += bonus
		}
	}
	return score, true
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// FormatPeerLine renders a readable one-liner for --list output.
func FormatPeerLine(p Peer) string {
	user := p.SuggestedUser
	if user == "" {
		user = "-"
	}
	return fmt.Sprintf("%-28s %-16s %-8s %s", p.Hostname, p.Addr, user, p.Status)
}
