package response

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/errors"
)

// Classify converts one raw search payload into a Response.
//
// Payloads whose "error" member is a string are SearchErrors; everything
// else is expected to be a SearchResultPage. Payloads that fit neither shape
// are returned as *Malformed. Classify has no side effects.
func Classify(raw string) Response {
	resp, err := parse(raw)
	if err != nil {
		return &Malformed{Err: err}
	}

	return resp
}

// Parse converts one raw search payload into a *SearchResultPage or a
// *SearchError.
//
// Returns a *errors.MessageParseError if the payload is truncated, is not
// valid JSON, or does not match the selected shape.
func Parse(raw string) (Response, error) {
	resp, err := parse(raw)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func parse(raw string) (Response, *errors.MessageParseError) {
	value, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}

	// The discriminant is checked before either schema is applied, so an
	// "error" member of the wrong type falls through to the page schema.
	obj, _ := value.(map[string]any)
	if _, isText := obj["error"].(string); isText {
		var searchErr SearchError

		err := decodeShape(raw, value, errorShape,
			field{"error", &searchErr.Message},
			field{"page", &searchErr.Page},
			field{"resultCount", &searchErr.ResultCount},
		)
		if err != nil {
			return nil, err
		}

		return &searchErr, nil
	}

	var page SearchResultPage

	err = decodeShape(raw, value, pageShape,
		field{"films", &page.Films},
		field{"name", &page.Name},
		field{"page", &page.Page},
		field{"resultCount", &page.ResultCount},
	)
	if err != nil {
		return nil, err
	}

	return &page, nil
}

// decodeValue parses raw as a single generic JSON value.
func decodeValue(raw string) (any, *errors.MessageParseError) {
	dec := json.NewDecoder(strings.NewReader(raw))

	var value any
	if err := dec.Decode(&value); err != nil {
		kind := errors.ParseErrorSyntax
		if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
			kind = errors.ParseErrorIncomplete
			err = io.ErrUnexpectedEOF
		}

		return nil, &errors.MessageParseError{Kind: kind, RawData: raw, Err: err}
	}

	if _, err := dec.Token(); !stderrors.Is(err, io.EOF) {
		return nil, &errors.MessageParseError{
			Kind:    errors.ParseErrorSyntax,
			RawData: raw,
			Err:     fmt.Errorf("trailing characters at offset %d", dec.InputOffset()),
		}
	}

	return value, nil
}

// field binds one member name to the struct field it decodes into.
type field struct {
	name string
	dst  any
}

// decodeShape validates value against s and then decodes each member of
// raw into its field. Member names match exactly; members that differ only
// in case are unknown members and are ignored.
func decodeShape(raw string, value any, s *shape, fields ...field) *errors.MessageParseError {
	if err := s.validate(value); err != nil {
		return &errors.MessageParseError{Kind: errors.ParseErrorSchema, RawData: raw, Err: err}
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return &errors.MessageParseError{Kind: errors.ParseErrorSchema, RawData: raw, Err: err}
	}

	for _, f := range fields {
		// Numbers must be written as integers: 1.0 does not fit a counter.
		if err := json.Unmarshal(members[f.name], f.dst); err != nil {
			return &errors.MessageParseError{
				Kind:    errors.ParseErrorSchema,
				RawData: raw,
				Err:     fmt.Errorf("member %q: %w", f.name, err),
			}
		}
	}

	return nil
}
