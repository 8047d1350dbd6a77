package openapi

import (
	"context"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Handler validates doc and returns a handler serving it as JSON. The
// document is rendered once; later changes to doc are not served.
//
//	http.Handle("/docs.json", openapi.HandlerMust(doc))
func Handler(doc *openapi3.T) (http.Handler, error) {
	if err := doc.Validate(context.Background()); err != nil {
		return nil, err
	}
	body, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}), nil
}

// HandlerMust is like Handler but panics on error.
func HandlerMust(doc *openapi3.T) http.Handler {
	h, err := Handler(doc)
	if err != nil {
		panic(err)
	}
	return h
}
