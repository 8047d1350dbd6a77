// Package openapi generates OpenAPI 3 schemas for struct types carrying mvel
// constraints. Each constrained property keeps its expression in the x-mvel
// extension, and expressions made only of & joined statements are also turned
// into schema keywords (required, minimum, maxLength, enum, pattern, ...).
//
//	gen := openapi.NewGenerator(rules.NewRegistry())
//	doc := openapi.NewDocument("my-api", "My API", "1.0")
//	err := gen.Add(doc, http.MethodPost, "/orders", "createOrder", openapi.Endpoint{
//	    Requests:  []any{Order{}},
//	    Responses: map[string]openapi.Response{"200": {Description: "OK", Bodies: []any{Order{}}}},
//	})
package openapi
