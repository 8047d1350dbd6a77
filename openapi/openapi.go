package openapi

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"
)

// Response describes an HTTP response with a description and body types.
type Response struct {
	Description string
	Bodies      []any
}

// Endpoint describes a single API operation.
type Endpoint struct {
	Summary     string
	Description string
	Requests    []any               // request body types, oneOf when more than one
	Responses   map[string]Response // keyed by status code, e.g. "200", "4xx"
}

// NewDocument returns a basic OpenAPI 3.0.3 document.
func NewDocument(title, description, version string) *openapi3.T {
	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       title,
			Description: description,
			Version:     version,
		},
		Paths: &openapi3.Paths{},
	}
}

// content returns a JSON content holding the schema of v, or a oneOf of the
// schemas of vs.
func (g *Generator) content(vs []any) (openapi3.Content, error) {
	refs := make(openapi3.SchemaRefs, 0, len(vs))
	for _, v := range vs {
		ref, err := g.NewSchemaRefForValue(v)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if len(refs) == 1 {
		return openapi3.NewContentWithJSONSchemaRef(refs[0]), nil
	}
	return openapi3.NewContentWithJSONSchema(&openapi3.Schema{OneOf: refs}), nil
}

// RequestBody generates a JSON request body for the given types.
func (g *Generator) RequestBody(vs ...any) (*openapi3.RequestBodyRef, error) {
	if len(vs) == 0 {
		return nil, errors.New("no request types given")
	}
	content, err := g.content(vs)
	if err != nil {
		return nil, err
	}
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithContent(content),
	}, nil
}

// Responses generates the responses object. Status codes are added in
// sorted order.
func (g *Generator) Responses(rs map[string]Response) (*openapi3.Responses, error) {
	opts := make([]openapi3.NewResponsesOption, 0, len(rs))
	for _, code := range slices.Sorted(maps.Keys(rs)) {
		r := rs[code]
		resp := openapi3.NewResponse().WithDescription(r.Description)
		if len(r.Bodies) > 0 {
			content, err := g.content(r.Bodies)
			if err != nil {
				return nil, fmt.Errorf("response %s: %w", code, err)
			}
			resp.WithContent(content)
		}
		opts = append(opts, openapi3.WithName(code, resp))
	}
	return openapi3.NewResponses(opts...), nil
}

// Add registers ep on doc at method and path. Endpoints with a request body
// also document a 422 response for failed validation unless one is given.
func (g *Generator) Add(doc *openapi3.T, method, path, operationID string, ep Endpoint) error {
	op := &openapi3.Operation{
		OperationID: operationID,
		Summary:     ep.Summary,
		Description: ep.Description,
	}

	responses := maps.Clone(ep.Responses)
	if len(ep.Requests) > 0 {
		body, err := g.RequestBody(ep.Requests...)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		op.RequestBody = body
		if responses == nil {
			responses = map[string]Response{}
		}
		if _, ok := responses["422"]; !ok {
			responses["422"] = Response{Description: "Validation failed"}
		}
	}
	if len(responses) == 0 {
		op.Responses = openapi3.NewResponses()
	} else {
		r, err := g.Responses(responses)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		op.Responses = r
	}

	item := doc.Paths.Value(path)
	if item == nil {
		item = &openapi3.PathItem{}
	}
	switch method {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	case http.MethodPut:
		item.Put = op
	case http.MethodPatch:
		item.Patch = op
	case http.MethodDelete:
		item.Delete = op
	default:
		return fmt.Errorf("unsupported method %q", method)
	}
	doc.Paths.Set(path, item)
	return nil
}
