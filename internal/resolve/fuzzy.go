// Package resolve turns a human name ("Main Course", "weekly veg") into the
// id of a category, item, offer or plan.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Named represents any resource with an ID and display name.
type Named struct {
	ID   string
	Name string
}

// Match is a fuzzy match result with score.
type Match struct {
	ID    string
	Name  string
	Score int
}

var (
	ErrEmptyQuery = errors.New("empty search query")
	ErrEmptyItems = errors.New("no items to match against")
)

// AmbiguousError indicates multiple candidates matched equally well.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ambiguous match for %q", e.Query)
	if len(e.Matches) > 0 {
		b.WriteString(", candidates:")
		for _, m := range e.Matches {
			_, _ = fmt.Fprintf(&b, "\n  %s: %s", m.ID, m.Name)
		}
	}
	return b.String()
}

// NotFoundError is returned when nothing resembles the query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no match found for %q", e.Query)
}

type namedSourceLower []Named

func (s namedSourceLower) String(i int) string { return strings.ToLower(s[i].Name) }
func (s namedSourceLower) Len() int            { return len(s) }

// From projects any resource slice into Named values.
func From[T any](items []T, id, name func(T) string) []Named {
	out := make([]Named, 0, len(items))
	for _, item := range items {
		out = append(out, Named{ID: id(item), Name: name(item)})
	}
	return out
}

// Resolve accepts either an id or a name. An exact id wins, then an exact
// case-insensitive name, then the best fuzzy match.
func Resolve(query string, items []Named) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	for _, item := range items {
		if item.ID != "" && item.ID == query {
			return item.ID, nil
		}
	}
	return FuzzyMatch(query, items)
}

// FuzzyMatch finds the best matching item by name and returns its ID.
//
// Behavior:
// - Empty query or empty items are errors.
// - Prefers exact case-insensitive matches over fuzzy matches.
// - If the top two fuzzy results tie on score, returns *AmbiguousError.
func FuzzyMatch(query string, items []Named) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	if len(items) == 0 {
		return "", ErrEmptyItems
	}

	var exact []Named
	for _, item := range items {
		if strings.EqualFold(item.Name, query) {
			exact = append(exact, item)
		}
	}
	switch len(exact) {
	case 1:
		return exact[0].ID, nil
	case 0:
	default:
		matches := make([]Match, 0, len(exact))
		for _, item := range exact {
			matches = append(matches, Match{ID: item.ID, Name: item.Name})
		}
		return "", &AmbiguousError{Query: query, Matches: matches}
	}

	results := fuzzy.FindFrom(strings.ToLower(query), namedSourceLower(items))
	if len(results) == 0 {
		return "", &NotFoundError{Query: query}
	}
	if len(results) > 1 && results[0].Score == results[1].Score {
		return "", &AmbiguousError{
			Query:   query,
			Matches: buildMatches(items, results, 5),
		}
	}
	return items[results[0].Index].ID, nil
}

// FuzzyMatchAll returns up to limit matches ranked by score (best first).
func FuzzyMatchAll(query string, items []Named, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 || limit <= 0 {
		return nil
	}

	results := fuzzy.FindFrom(strings.ToLower(query), namedSourceLower(items))
	return buildMatches(items, results, limit)
}

func buildMatches(items []Named, results fuzzy.Matches, limit int) []Match {
	if len(results) == 0 || limit <= 0 {
		return nil
	}
	if len(results) > limit {
		results = results[:limit]
	}
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			ID:    items[r.Index].ID,
			Name:  items[r.Index].Name,
			Score: r.Score,
		}
	}
	return matches
}
