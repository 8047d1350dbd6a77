// Command example demonstrates mvel with an HTTP server serving an OpenAPI
// document and a validated JSON endpoint.
//
// Run:
//
//	go run ./_example
//
// Then fetch http://localhost:8080/docs.json or POST an order to /orders.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/Gobd/mvel"
	"github.com/Gobd/mvel/openapi"
	"github.com/Gobd/mvel/rules"
)

// Order is a sample request/response type.
type Order struct {
	CustomerName string  `json:"customer_name" mvel:"required&string&length:1,200"`
	ItemCount    int     `json:"item_count" mvel:"required&integer&min:1"`
	Total        float64 `json:"total" mvel:"required&min:0.01"`
	Coupon       string  `json:"coupon" mvel:"?empty|(alnum&length:6,6)"`
}

// Normalize cleans up decoded input before validation.
func (o *Order) Normalize() {
	mvel.TrimSpace(o)
	o.Coupon = strings.ToUpper(o.Coupon)
}

// ErrorResponse is a standard error envelope.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func main() {
	if err := rules.Register(mvel.DefaultRegistry()); err != nil {
		log.Fatal(err)
	}

	gen := openapi.NewGenerator(nil)
	doc := openapi.NewDocument("Example API", "Demonstrates mvel", "0.1.0")
	err := gen.Add(doc, http.MethodPost, "/orders", "createOrder", openapi.Endpoint{
		Summary:  "Create an order",
		Requests: []any{Order{}},
		Responses: map[string]openapi.Response{
			"200": {Description: "Created order", Bodies: []any{Order{}}},
			"400": {Description: "Malformed request", Bodies: []any{ErrorResponse{}}},
			"422": {Description: "Validation error", Bodies: []any{ErrorResponse{}}},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	http.Handle("/docs.json", openapi.HandlerMust(doc))
	http.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var order Order
		if err := mvel.DecodeAndValidate(r.Body, &order); err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(order)
	})

	fmt.Println("Listening on http://localhost:8080")
	log.Fatal(http.ListenAndServe(":8080", nil))
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusBadRequest

	var failed *mvel.ValidationFailedError
	if errors.As(err, &failed) {
		status = http.StatusUnprocessableEntity
		resp.Error = "validation failed"
		resp.Fields = map[string]string{}
		for _, res := range failed.Results {
			resp.Fields[res.Key] = strings.Join(res.Messages(), " ")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
