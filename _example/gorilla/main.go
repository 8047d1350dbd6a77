// Command gorilla serves the example order API with gorilla/mux routing.
//
//	cd _example/gorilla && go run .
package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Gobd/mvel"
	"github.com/Gobd/mvel/openapi"
	"github.com/Gobd/mvel/rules"
	"github.com/gorilla/mux"
)

// Order is a sample request/response type.
type Order struct {
	CustomerName string  `json:"customer_name" mvel:"required&string&length:1,200"`
	ItemCount    int     `json:"item_count" mvel:"required&integer&min:1"`
	Total        float64 `json:"total" mvel:"required&min:0.01"`
}

func main() {
	engine := mvel.NewEngine(rules.NewRegistry())

	doc := openapi.NewDocument("Example API", "Demonstrates mvel with gorilla/mux", "0.1.0")
	err := openapi.NewGenerator(engine.Registry()).Add(doc, http.MethodPost, "/orders", "createOrder", openapi.Endpoint{
		Summary:   "Create an order",
		Requests:  []any{Order{}},
		Responses: map[string]openapi.Response{"200": {Description: "Created order", Bodies: []any{Order{}}}},
	})
	if err != nil {
		log.Fatal(err)
	}

	r := mux.NewRouter()
	r.Handle("/docs.json", openapi.HandlerMust(doc)).Methods(http.MethodGet)
	r.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		var order Order
		if err := engine.DecodeAndValidate(r.Body, &order); err != nil {
			var failed *mvel.ValidationFailedError
			w.Header().Set("Content-Type", "application/json")
			if errors.As(err, &failed) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_ = json.NewEncoder(w).Encode(failed.Errors())
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(order)
	}).Methods(http.MethodPost)

	log.Println("Listening on http://localhost:8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}
