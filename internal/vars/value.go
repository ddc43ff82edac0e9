// Package vars implements typed query variables: declaration, parsing,
// and a concurrency-safe store keyed by variable name.
package vars

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/qdash/qdash/internal/errors"
)

// Kind is the closed set of variable types.
type Kind int

const (
	String Kind = iota
	Number
	Boolean
	List
	Map
)

var kindNames = map[Kind]string{
	String:  "string",
	Number:  "number",
	Boolean: "boolean",
	List:    "list",
	Map:     "map",
}

// String returns the lowercase type name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the kind as its lowercase name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a lowercase kind name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	kind, err := KindFromName(name)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// KindFromName maps a type name to its Kind.
func KindFromName(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == strings.ToLower(name) {
			return k, nil
		}
	}
	return String, errors.New(errors.ErrType,
		fmt.Sprintf("Unknown variable type '%s'", name),
		"Supported types: boolean, list, map, number, string")
}

// Value is a parsed variable value tagged with its kind.
// Raw holds the canonical display form for every kind.
type Value struct {
	Kind    Kind              `json:"kind"`
	Raw     string            `json:"raw"`
	Num     float64           `json:"num,omitempty"`
	Bool    bool              `json:"bool,omitempty"`
	Items   []string          `json:"items,omitempty"`
	Entries map[string]string `json:"entries,omitempty"`
}

// Parse converts raw text into a Value of the given kind.
// Returns a TYPE error when the text does not fit the kind.
func Parse(kind Kind, raw string) (Value, error) {
	switch kind {
	case String:
		return Value{Kind: String, Raw: raw}, nil

	case Number:
		if i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			return Value{Kind: Number, Raw: strconv.FormatInt(i, 10), Num: float64(i)}, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, errors.New(errors.ErrType,
				fmt.Sprintf("Value '%s' is not a number", raw),
				"Use an integer or decimal, e.g. 42 or 3.14")
		}
		return Value{Kind: Number, Raw: strconv.FormatFloat(f, 'g', -1, 64), Num: f}, nil

	case Boolean:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "yes", "on":
			return Value{Kind: Boolean, Raw: "true", Bool: true}, nil
		case "false", "0", "no", "off":
			return Value{Kind: Boolean, Raw: "false", Bool: false}, nil
		}
		return Value{}, errors.New(errors.ErrType,
			fmt.Sprintf("Value '%s' is not a boolean", raw),
			"Use true/false, 1/0, yes/no, or on/off")

	case List:
		items := splitTrimmed(raw)
		return Value{Kind: List, Raw: strings.Join(items, ","), Items: items}, nil

	case Map:
		entries := make(map[string]string)
		for _, pair := range splitTrimmed(raw) {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return Value{}, errors.New(errors.ErrType,
					fmt.Sprintf("Map entry '%s' is missing '='", pair),
					"Use key=value pairs separated by commas, e.g. region=us,tier=gold")
			}
			entries[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		return Value{Kind: Map, Raw: canonicalMap(entries), Entries: entries}, nil
	}

	return Value{}, errors.New(errors.ErrType,
		fmt.Sprintf("Unknown variable kind %d", kind), "")
}

// Display returns the canonical text form of the value.
func (v Value) Display() string {
	return v.Raw
}

// clone copies the value's slice and map so callers cannot alias stored
// state.
func (v Value) clone() Value {
	if v.Items != nil {
		v.Items = append([]string(nil), v.Items...)
	}
	if v.Entries != nil {
		entries := make(map[string]string, len(v.Entries))
		for k, e := range v.Entries {
			entries[k] = e
		}
		v.Entries = entries
	}
	return v
}

// splitTrimmed splits on commas and trims whitespace, dropping empty parts.
func splitTrimmed(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// canonicalMap renders entries as sorted k=v pairs joined by commas.
func canonicalMap(entries map[string]string) string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+entries[k])
	}
	return strings.Join(pairs, ",")
}
