package filter

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vburojevic/mscope/internal/domain"
)

// Fields lists the names a where clause can test.
var Fields = []string{
	"id", "name", "scan", "image", "location", "temperature",
	"species", "risk", "total", "unique", "alerts", "savedAt",
}

// WhereClause represents a parsed --where condition
type WhereClause struct {
	Field    string
	Operator string
	Value    string
	regex    *regexp.Regexp // Compiled regex for ~ and !~ operators
}

// ParseWhereClause parses a where clause like "risk>=moderate" or "name~bay"
// Supported operators: =, !=, ~, !~, >=, <=, ^, $
func ParseWhereClause(clause string) (*WhereClause, error) {
	// Longest first to avoid partial matches
	operators := []string{"!~", ">=", "<=", "!=", "~", "=", "^", "$"}

	for _, op := range operators {
		idx := strings.Index(clause, op)
		if idx > 0 {
			field := strings.TrimSpace(clause[:idx])
			value := strings.TrimSpace(clause[idx+len(op):])

			if field == "" || value == "" {
				return nil, fmt.Errorf("invalid where clause: %s", clause)
			}

			// Support quoted values so operators can appear in value.
			if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
				(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
				unq, err := strconv.Unquote(value)
				if err != nil {
					return nil, fmt.Errorf("invalid quoted value in where clause '%s': %w", clause, err)
				}
				value = unq
			}

			return newWhereClause(field, op, value)
		}
	}

	return nil, fmt.Errorf("no valid operator found in where clause: %s (use =, !=, ~, !~, >=, <=, ^, $)", clause)
}

func newWhereClause(field, op, value string) (*WhereClause, error) {
	if !slices.ContainsFunc(Fields, func(f string) bool { return strings.EqualFold(f, field) }) {
		return nil, fmt.Errorf("unknown field %q (fields: %s)", field, strings.Join(Fields, ", "))
	}
	wc := &WhereClause{Field: field, Operator: op, Value: value}
	if op == "~" || op == "!~" {
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("invalid regex in where clause '%s%s%s': %w", field, op, value, err)
		}
		wc.regex = re
	}
	return wc, nil
}

// Match checks if a history entry matches this where clause
func (wc *WhereClause) Match(entry domain.HistoryEntry) bool {
	switch wc.Operator {
	case "=", "!=", ">=", "<=":
		if c, ok := wc.compareOrdered(entry); ok {
			switch wc.Operator {
			case "=":
				return c == 0
			case "!=":
				return c != 0
			case ">=":
				return c >= 0
			default:
				return c <= 0
			}
		}
	}

	fieldValue := wc.getFieldValue(entry)

	switch wc.Operator {
	case "=":
		return fieldValue == wc.Value
	case "!=":
		return fieldValue != wc.Value
	case "~": // Contains (regex)
		if wc.regex != nil {
			return wc.regex.MatchString(fieldValue)
		}
		return strings.Contains(fieldValue, wc.Value)
	case "!~":
		if wc.regex != nil {
			return !wc.regex.MatchString(fieldValue)
		}
		return !strings.Contains(fieldValue, wc.Value)
	case "^":
		return strings.HasPrefix(fieldValue, wc.Value)
	case "$":
		return strings.HasSuffix(fieldValue, wc.Value)
	}

	// >= and <= on unordered fields never match
	return false
}

// getFieldValue extracts the field value from a history entry
func (wc *WhereClause) getFieldValue(entry domain.HistoryEntry) string {
	snap := entry.Snapshot()
	switch strings.ToLower(wc.Field) {
	case "id":
		return entry.ID()
	case "name":
		return entry.Name()
	case "scan":
		return snap.ID()
	case "image":
		return snap.ImageRef()
	case "location":
		return snap.Environmental().Location
	case "temperature":
		return snap.Environmental().Temperature
	case "species":
		names := make([]string, 0)
		for _, row := range snap.SpeciesDistribution() {
			names = append(names, row.Name)
		}
		return strings.Join(names, ",")
	case "risk":
		return string(highestRisk(snap))
	case "total":
		return strconv.Itoa(snap.TotalOrganisms())
	case "unique":
		return strconv.Itoa(snap.UniqueSpecies())
	case "alerts":
		return strconv.Itoa(len(snap.HighRiskAlerts()))
	case "savedat":
		return entry.SavedAt().Format(time.RFC3339)
	default:
		return ""
	}
}

// compareOrdered compares the entry's field against the clause value for
// fields with a natural order. ok is false for unordered fields and for
// values that do not parse.
func (wc *WhereClause) compareOrdered(entry domain.HistoryEntry) (int, bool) {
	snap := entry.Snapshot()
	switch strings.ToLower(wc.Field) {
	case "total":
		return compareNumber(float64(snap.TotalOrganisms()), wc.Value)
	case "unique":
		return compareNumber(float64(snap.UniqueSpecies()), wc.Value)
	case "alerts":
		return compareNumber(float64(len(snap.HighRiskAlerts())), wc.Value)
	case "temperature":
		celsius, ok := parseCelsius(snap.Environmental().Temperature)
		if !ok {
			return 0, false
		}
		return compareNumber(celsius, strings.TrimSuffix(wc.Value, "°C"))
	case "risk":
		target, err := domain.ParseRiskLevel(wc.Value)
		if err != nil {
			return 0, false
		}
		return cmp.Compare(highestRisk(snap).Rank(), target.Rank()), true
	case "savedat":
		target, ok := parseWhereTime(wc.Value)
		if !ok {
			return 0, false
		}
		return entry.SavedAt().Compare(target), true
	}
	return 0, false
}

func compareNumber(v float64, raw string) (int, bool) {
	target, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return cmp.Compare(v, target), true
}

// parseCelsius reads a reading like "28.1°C".
func parseCelsius(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "°C")), 64)
	return v, err == nil
}

// parseWhereTime accepts RFC 3339 timestamps or bare dates (UTC midnight).
func parseWhereTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WhereFilter is a filter that applies multiple where clauses (AND logic)
type WhereFilter struct {
	expr whereExpr
}

// NewWhereFilter creates a filter from multiple where clause strings
func NewWhereFilter(whereClauses []string) (*WhereFilter, error) {
	if len(whereClauses) == 0 {
		return nil, nil
	}

	all := &boolExpr{and: true}
	for _, clause := range whereClauses {
		expr, err := parseWhereExpr(clause)
		if err != nil {
			return nil, err
		}
		all.terms = append(all.terms, expr)
	}

	return &WhereFilter{expr: all}, nil
}

// Match returns true if the entry matches ALL where clauses (AND logic)
func (f *WhereFilter) Match(entry domain.HistoryEntry) bool {
	if f == nil || f.expr == nil {
		return true
	}
	return f.expr.Match(entry)
}
