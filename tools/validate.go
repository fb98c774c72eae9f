package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidArguments wraps every argument validation failure.
var ErrInvalidArguments = errors.New("invalid arguments")

// compileSchema turns a reflected schema into a validator. A nil schema
// compiles to nil, which accepts any object.
func compileSchema(name string, s *jsonschema.Schema) (*jsv.Schema, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	doc, err := jsv.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	loc := "mem://tools/" + name + ".json"
	c := jsv.NewCompiler()
	if err := c.AddResource(loc, doc); err != nil {
		return nil, err
	}
	return c.Compile(loc)
}

// Validate checks input against the compiled schema of the named tool.
func (r *Registry) Validate(name string, input json.RawMessage) error {
	if _, ok := r.byName[name]; !ok {
		return fmt.Errorf("tool %s not found", name)
	}
	return validate(r.compiled[name], input)
}

// ValidateInput compiles s and checks input against it. Prefer
// Registry.Validate, which reuses the compiled schema.
func ValidateInput(s *jsonschema.Schema, input json.RawMessage) error {
	compiled, err := compileSchema("input", s)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return validate(compiled, input)
}

func validate(s *jsv.Schema, input json.RawMessage) error {
	if len(bytes.TrimSpace(input)) == 0 {
		input = json.RawMessage(`{}`)
	}
	v, err := jsv.UnmarshalJSON(bytes.NewReader(input))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if _, ok := v.(map[string]any); !ok {
		return fmt.Errorf("%w: expected a JSON object, got %s", ErrInvalidArguments, jsonKind(v))
	}
	if s == nil {
		return nil
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArguments, describe(err))
	}
	return nil
}

// describe flattens a validation error to one line, dropping the header that
// names the internal schema location.
func describe(err error) string {
	var ve *jsv.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var parts []string
	for _, line := range strings.Split(ve.Error(), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		parts = append(parts, strings.TrimPrefix(line, "- "))
	}
	if len(parts) == 0 {
		return ve.Error()
	}
	return strings.Join(parts, "; ")
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
