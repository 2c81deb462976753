package response

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// shape is an object schema whose members are validated in declaration
// order, so the reported violation does not depend on map iteration.
type shape struct {
	object  *jsonschema.Resolved
	members []member
}

type member struct {
	name   string
	schema *jsonschema.Resolved
}

var (
	pageShape = newShape(
		member{name: "films", schema: mustResolve(&jsonschema.Schema{Type: "string"})},
		member{name: "name", schema: mustResolve(&jsonschema.Schema{Type: "string"})},
		member{name: "page", schema: mustResolve(counterSchema())},
		member{name: "resultCount", schema: mustResolve(counterSchema())},
	)
	errorShape = newShape(
		member{name: "error", schema: mustResolve(&jsonschema.Schema{Type: "string"})},
		member{name: "page", schema: mustResolve(&jsonschema.Schema{Type: "integer"})},
		member{name: "resultCount", schema: mustResolve(&jsonschema.Schema{Type: "integer"})},
	)
)

func newShape(members ...member) *shape {
	required := make([]string, 0, len(members))
	for _, m := range members {
		required = append(required, m.name)
	}

	return &shape{
		object:  mustResolve(&jsonschema.Schema{Type: "object", Required: required}),
		members: members,
	}
}

// counterSchema matches an unsigned integer.
func counterSchema() *jsonschema.Schema {
	zero := 0.0

	return &jsonschema.Schema{Type: "integer", Minimum: &zero}
}

// validate reports the first violation of the shape by value.
func (s *shape) validate(value any) error {
	if err := s.object.Validate(value); err != nil {
		return err
	}

	obj, _ := value.(map[string]any)

	for _, m := range s.members {
		if err := m.schema.Validate(obj[m.name]); err != nil {
			return fmt.Errorf("member %q: %w", m.name, err)
		}
	}

	return nil
}

func mustResolve(schema *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("response: resolve schema: %v", err))
	}

	return resolved
}
