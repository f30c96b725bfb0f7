// Package mongosafe guards document-database mutations against update
// documents that carry plain field assignments instead of update operators.
package mongosafe

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrInvalidUpdate is matched by every *ValidationError via errors.Is.
var ErrInvalidUpdate = errors.New("invalid update document")

// ValidationError reports an update document that cannot be sent to an
// update primitive. It is returned both for documents rejected before
// dispatch and for operator errors surfaced by the driver itself.
type ValidationError struct {
	Op         string   // wrapper that rejected the document, empty for Validate
	Document   any      // the document as received
	Reason     string   // human-readable explanation
	Keys       []string // offending top-level keys, if any
	Suggestion string   // corrected form of the document
	Cause      error    // driver error, when translated
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("mongosafe")
	if e.Op != "" {
		b.WriteString(" " + e.Op)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Keys) > 0 {
		fmt.Fprintf(&b, "; offending keys: %s", strings.Join(e.Keys, ", "))
		fmt.Fprintf(&b, "; valid operators: %s", strings.Join(operators, ", "))
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "; suggested: %s", e.Suggestion)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, "; driver: %v", e.Cause)
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidUpdate }

func (e *ValidationError) Unwrap() error { return e.Cause }

const emptySuggestion = `{"$set": {"<field>": <value>}}`

// Validate checks the shape of an update document. It accepts bson.D,
// []bson.E, bson.M, bson.Raw and any map keyed by strings, or a pointer to
// any of them. Every top-level
// key must be a catalog operator; payloads are not inspected.
func Validate(document any) error {
	pairs, ok := topLevel(document)
	if !ok {
		return &ValidationError{
			Document:   document,
			Reason:     fmt.Sprintf("update document must be a mapping, got %T", document),
			Suggestion: emptySuggestion,
		}
	}
	if len(pairs) == 0 {
		return &ValidationError{
			Document:   document,
			Reason:     "update document cannot be empty",
			Suggestion: emptySuggestion,
		}
	}

	var unknown bson.D
	for _, p := range pairs {
		if !IsKnown(p.Key) {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	keys := make([]string, len(unknown))
	for i, p := range unknown {
		keys[i] = p.Key
	}
	return &ValidationError{
		Document:   document,
		Reason:     "update document must use update operators",
		Keys:       keys,
		Suggestion: renderDocument(bson.D{{Key: "$set", Value: unknown}}),
	}
}

// topLevel returns the top-level key/value pairs of a mapping document.
// Unordered maps are returned sorted by key so errors are deterministic.
func topLevel(document any) ([]bson.E, bool) {
	if v := reflect.ValueOf(document); v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		return topLevel(v.Elem().Interface())
	}

	switch d := document.(type) {
	case nil:
		return nil, false
	case bson.D:
		return d, true
	case []bson.E:
		return d, true
	case bson.Raw:
		elems, err := d.Elements()
		if err != nil {
			return nil, false
		}
		pairs := make([]bson.E, len(elems))
		for i, el := range elems {
			pairs[i] = bson.E{Key: el.Key(), Value: el.Value()}
		}
		return pairs, true
	case bson.M:
		return sortedPairs(d), true
	case map[string]any:
		return sortedPairs(d), true
	}

	v := reflect.ValueOf(document)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	pairs := make([]bson.E, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		pairs = append(pairs, bson.E{Key: iter.Key().String(), Value: iter.Value().Interface()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, true
}

func sortedPairs(m map[string]any) []bson.E {
	pairs := make([]bson.E, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, bson.E{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs
}

// topLevelKeys lists the keys of a mapping document, or nil for anything else.
func topLevelKeys(document any) []string {
	pairs, _ := topLevel(document)
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

// renderDocument formats a document as relaxed extended JSON, falling back
// to Go syntax for values the bson encoder cannot handle.
func renderDocument(doc any) string {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Sprintf("%v", doc)
	}
	return string(data)
}
