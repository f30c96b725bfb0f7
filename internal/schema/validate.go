// Package schema validates configuration files and JSON reports against the
// embedded JSON Schemas.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed *.schema.json
var schemaFS embed.FS

// Names of the embedded schemas.
const (
	Config = "config.schema.json"
	Report = "report.schema.json"
)

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

func compile(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("schema.compile: unknown schema %q: %w", name, err)
	}
	url := "mem:///" + name
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("schema.compile: add %s: %w", name, err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema.compile: %s: %w", name, err)
	}
	return s, nil
}

// Validate checks a JSON payload against the named schema. The error return
// is reserved for payloads that are not JSON at all or unknown schemas;
// violations come back as a sorted slice.
func Validate(name string, raw []byte) ([]ValidationError, error) {
	var payload any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("schema.Validate: decode: %w", err)
	}
	return ValidateValue(name, payload)
}

// ValidateValue is Validate for an already-decoded value. Values decoded
// from YAML or TOML are normalized through JSON first.
func ValidateValue(name string, v any) ([]ValidationError, error) {
	s, err := compile(name)
	if err != nil {
		return nil, err
	}
	payload, err := normalize(v)
	if err != nil {
		return nil, err
	}

	err = s.Validate(payload)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("schema.ValidateValue: %w", err)
	}
	var errs []ValidationError
	collect(ve, &errs)
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Path < errs[j].Path })
	return errs, nil
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("schema.normalize: %w", err)
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("schema.normalize: %w", err)
	}
	return out, nil
}

// collect flattens the cause tree to its leaves, which carry the specific
// messages.
func collect(ve *jsonschema.ValidationError, out *[]ValidationError) {
	if len(ve.Causes) == 0 {
		*out = append(*out, ValidationError{Path: pointerPath(ve.InstanceLocation), Message: ve.Message})
		return
	}
	for _, c := range ve.Causes {
		collect(c, out)
	}
}

// pointerPath turns a JSON pointer like /go/wrappers/UpdateOne into
// go.wrappers.UpdateOne. The document root is "$".
func pointerPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "$"
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}
