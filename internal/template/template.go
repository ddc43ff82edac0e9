// Package template resolves {{name}} placeholders in query text against a
// variable store, formatting each value as a literal for the target dialect.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/vars"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Placeholders returns the variable names referenced in the query text,
// in order of first appearance, without duplicates.
func Placeholders(query string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(query, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Resolve substitutes every placeholder in the query with the variable's
// current value rendered as a literal for the dialect. A placeholder naming
// an undeclared variable is a CONFIG error; the output never contains an
// unresolved {{...}}.
func Resolve(query string, store *vars.Store, dialect string) (string, error) {
	var resolveErr error
	out := placeholderRe.ReplaceAllStringFunc(query, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		v, err := store.Get(name)
		if err != nil {
			if resolveErr == nil {
				resolveErr = errors.New(errors.ErrConfig,
					fmt.Sprintf("Query references undeclared variable '{{%s}}'", name),
					fmt.Sprintf("Declare it under query.args with a key of '%s'", name))
			}
			return match
		}
		return Literal(v.Current, dialect)
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

// Literal renders a value as a literal for the dialect. SQL dialects quote
// strings with single quotes and doubling; lists become parenthesized IN
// lists; numbers and booleans render bare. The redis dialect substitutes
// raw text and mongodb uses JSON encoding.
func Literal(v vars.Value, dialect string) string {
	switch dialect {
	case "redis":
		return v.Display()
	case "mongodb":
		return jsonLiteral(v)
	default:
		return sqlLiteral(v)
	}
}

func sqlLiteral(v vars.Value) string {
	switch v.Kind {
	case vars.Number:
		return v.Raw
	case vars.Boolean:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case vars.List:
		if len(v.Items) == 0 {
			return "(NULL)"
		}
		quoted := make([]string, len(v.Items))
		for i, item := range v.Items {
			quoted[i] = quoteSQL(item)
		}
		return "(" + strings.Join(quoted, ", ") + ")"
	default:
		return quoteSQL(v.Raw)
	}
}

func jsonLiteral(v vars.Value) string {
	switch v.Kind {
	case vars.Number:
		return v.Raw
	case vars.Boolean:
		return v.Raw
	case vars.List:
		b, _ := json.Marshal(v.Items)
		return string(b)
	case vars.Map:
		b, _ := json.Marshal(v.Entries)
		return string(b)
	default:
		b, _ := json.Marshal(v.Raw)
		return string(b)
	}
}

// quoteSQL single-quotes a string, doubling embedded quotes.
func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
