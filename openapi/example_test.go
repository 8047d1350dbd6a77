package openapi_test

import (
	"fmt"
	"net/http"

	"github.com/Gobd/mvel/openapi"
	"github.com/Gobd/mvel/rules"
)

type Item struct {
	Name  string  `json:"name" mvel:"required&string&length:1,200"`
	Price float64 `json:"price" mvel:"required&min:0.01"`
	Kind  string  `json:"kind" mvel:"in:\"book\",\"game\""`
	Note  string  `json:"note" mvel:"?null|length:1,500"`
}

func ExampleGenerator_Add() {
	gen := openapi.NewGenerator(rules.NewRegistry())
	doc := openapi.NewDocument("Shop API", "Example API", "1.0.0")

	err := gen.Add(doc, http.MethodPost, "/items", "createItem", openapi.Endpoint{
		Summary:   "Create an item",
		Requests:  []any{Item{}},
		Responses: map[string]openapi.Response{"200": {Description: "OK", Bodies: []any{Item{}}}},
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	op := doc.Paths.Value("/items").Post
	fmt.Println(op.OperationID)
	fmt.Println(op.Responses.Value("422").Value.Description != nil)
	// Output:
	// createItem
	// true
}

func ExampleNewDocument() {
	doc := openapi.NewDocument("My Service", "A cool service", "0.1.0")
	fmt.Println(doc.Info.Title)
	fmt.Println(doc.OpenAPI)
	// Output:
	// My Service
	// 3.0.3
}

func ExampleGenerator_NewSchemaRefForValue() {
	gen := openapi.NewGenerator(rules.NewRegistry())
	ref, err := gen.NewSchemaRefForValue(Item{})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(ref.Value.Required)
	fmt.Println(ref.Value.Properties["kind"].Value.Enum)
	// Output:
	// [name price]
	// [book game]
}
