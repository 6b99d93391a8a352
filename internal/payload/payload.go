// Package payload decodes vendor JSON bodies after checking them against a
// JSON schema, so callers never index into a shape they have not verified.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// maxBodyBytes caps how much of a provider response is read into memory.
const maxBodyBytes = 4 << 20

// ShapeError reports a body that is not JSON or does not match the expected
// schema. It is the "shape mismatch" side of every provider result.
type ShapeError struct {
	Payload string
	Err     error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s payload shape mismatch: %v", e.Payload, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

type Schema struct {
	name   string
	schema *jsonschema.Schema
}

func (s *Schema) Name() string { return s.name }

// Compile builds a schema from raw JSON schema source.
func Compile(name string, src []byte) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	url := name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(src)); err != nil {
		return nil, fmt.Errorf("load %s schema: %w", name, err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile is Compile for package-level schemas embedded at build time.
func MustCompile(name string, src []byte) *Schema {
	s, err := Compile(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode reads r, validates it against schema and unmarshals it into v.
func Decode(r io.Reader, schema *Schema, v any) error {
	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s body: %w", schema.name, err)
	}
	return DecodeBytes(body, schema, v)
}

func DecodeBytes(body []byte, schema *Schema, v any) error {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return &ShapeError{Payload: schema.name, Err: err}
	}
	if err := schema.schema.Validate(raw); err != nil {
		return &ShapeError{Payload: schema.name, Err: err}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &ShapeError{Payload: schema.name, Err: err}
	}
	return nil
}
