// Package testutil holds assertions shared by the package tests: codec round trips,
// serialized field checks and file fixtures.
package testutil

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// StrPtr returns &s.
func StrPtr(s string) *string { return &s }

// IntPtr returns &i.
func IntPtr(i int) *int { return &i }

type codec struct {
	name      string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
	fieldKey  func(string) string
}

var (
	yamlCodec = codec{
		name:      "YAML",
		marshal:   yaml.Marshal,
		unmarshal: yaml.Unmarshal,
		fieldKey:  func(f string) string { return f + ":" },
	}
	jsonCodec = codec{
		name:      "JSON",
		marshal:   json.Marshal,
		unmarshal: json.Unmarshal,
		fieldKey:  func(f string) string { return `"` + f + `"` },
	}
)

func roundTrip[T any](t *testing.T, c codec, original T) {
	t.Helper()
	data, err := c.marshal(original)
	if err != nil {
		t.Fatalf("%s marshal: %v", c.name, err)
	}
	var decoded T
	if err := c.unmarshal(data, &decoded); err != nil {
		t.Fatalf("%s unmarshal: %v", c.name, err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("%s round trip changed the value:\nbefore: %+v\nafter:  %+v", c.name, original, decoded)
	}
}

func hasField(t *testing.T, c codec, v any, field string) (bool, string) {
	t.Helper()
	data, err := c.marshal(v)
	if err != nil {
		t.Fatalf("%s marshal: %v", c.name, err)
	}
	return strings.Contains(string(data), c.fieldKey(field)), string(data)
}

// AssertYAMLRoundTrip fails unless original survives yaml.Marshal then yaml.Unmarshal unchanged.
func AssertYAMLRoundTrip[T any](t *testing.T, original T) {
	t.Helper()
	roundTrip(t, yamlCodec, original)
}

// AssertJSONRoundTrip is AssertYAMLRoundTrip for encoding/json.
func AssertJSONRoundTrip[T any](t *testing.T, original T) {
	t.Helper()
	roundTrip(t, jsonCodec, original)
}

func AssertYAMLOmitsField(t *testing.T, v any, field string) {
	t.Helper()
	if ok, out := hasField(t, yamlCodec, v, field); ok {
		t.Errorf("YAML should not contain %q:\n%s", field, out)
	}
}

func AssertYAMLContainsField(t *testing.T, v any, field string) {
	t.Helper()
	if ok, out := hasField(t, yamlCodec, v, field); !ok {
		t.Errorf("YAML should contain %q:\n%s", field, out)
	}
}

// AssertJSONOmitsField matches the quoted key, so "token" does not match "token_name".
func AssertJSONOmitsField(t *testing.T, v any, field string) {
	t.Helper()
	if ok, out := hasField(t, jsonCodec, v, field); ok {
		t.Errorf("JSON should not contain %q:\n%s", field, out)
	}
}

func AssertJSONContainsField(t *testing.T, v any, field string) {
	t.Helper()
	if ok, out := hasField(t, jsonCodec, v, field); !ok {
		t.Errorf("JSON should contain %q:\n%s", field, out)
	}
}

func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: want an error, got nil", msg)
	}
}

func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// AssertErrorIs fails unless errors.Is(err, target).
func AssertErrorIs(t *testing.T, err, target error, msg string) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("%s: got %v, want an error matching %v", msg, err, target)
	}
}

// AssertEqual compares with reflect.DeepEqual.
func AssertEqual[T any](t *testing.T, got, want T, msg string) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s: got %+v, want %+v", msg, got, want)
	}
}

func AssertContains(t *testing.T, s, substr, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: %q does not contain %q", msg, s, substr)
	}
}

// WriteFile writes content to dir/rel, creating parents, and returns the full path.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
