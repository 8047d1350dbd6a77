package openapi_test

import (
	"net/http"
	"testing"

	"github.com/Gobd/mvel"
	"github.com/Gobd/mvel/openapi"
	"github.com/Gobd/mvel/rules"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Tagged struct {
	ID    string   `json:"id" mvel:"required&uuid"`
	Email string   `json:"email,omitempty" mvel:"email"`
	Tags  []string `json:"tags" mvel:"between:1,5&distinct"`
	Age   int      `json:"age" mvel:"integer&between:18,150"`
	Code  string   `json:"code" mvel:"regex:\"^[A-Z]{3}$\""`
	Skip  string   `json:"-" mvel:"required"`
	State string   `json:"state" mvel:"default:\"draft\"&deprecated"`
	Plain string   `json:"plain"`
}

type Declared struct {
	Total int `json:"total"`
}

func (Declared) Sum() int { return 0 }

func init() {
	mvel.Declare(func(d *mvel.Declaration[Declared]) {
		d.Class(mvel.NewConstraint("object"))
		d.Property("Total", mvel.NewConstraint("min:1"))
		d.Method("Sum", mvel.NewConstraint("integer"))
	})
}

func TestSchemaKeywords(t *testing.T) {
	gen := openapi.NewGenerator(rules.NewRegistry())
	ref, err := gen.NewSchemaRefForValue(&Tagged{})
	require.NoError(t, err)
	s := ref.Value

	assert.Equal(t, []string{"id"}, s.Required)

	id := s.Properties["id"].Value
	assert.Equal(t, "uuid", id.Format)
	assert.Equal(t, "required&uuid", id.Extensions[openapi.Extension])
	assert.Contains(t, id.Description, "Value is present and not empty.")

	assert.Equal(t, "email", s.Properties["email"].Value.Format)

	tags := s.Properties["tags"].Value
	assert.Equal(t, uint64(1), tags.MinItems)
	require.NotNil(t, tags.MaxItems)
	assert.Equal(t, uint64(5), *tags.MaxItems)
	assert.True(t, tags.UniqueItems)

	age := s.Properties["age"].Value
	require.NotNil(t, age.Min)
	require.NotNil(t, age.Max)
	assert.Equal(t, 18.0, *age.Min)
	assert.Equal(t, 150.0, *age.Max)

	assert.Equal(t, "^[A-Z]{3}$", s.Properties["code"].Value.Pattern)

	state := s.Properties["state"].Value
	assert.Equal(t, "draft", state.Default)
	assert.True(t, state.Deprecated)

	plain := s.Properties["plain"].Value
	assert.Empty(t, plain.Extensions[openapi.Extension])
	assert.Empty(t, plain.Description)
}

func TestSchemaDisjunction(t *testing.T) {
	gen := openapi.NewGenerator(rules.NewRegistry())
	ref, err := gen.NewSchemaRefForValue(Item{})
	require.NoError(t, err)

	note := ref.Value.Properties["note"].Value
	assert.Equal(t, "?null|length:1,500", note.Extensions[openapi.Extension])
	assert.Equal(t, "Must satisfy ?null|length:1,500.", note.Description)
	assert.Nil(t, note.MaxLength)

	name := ref.Value.Properties["name"].Value
	assert.Equal(t, uint64(1), name.MinLength)
	require.NotNil(t, name.MaxLength)
	assert.Equal(t, uint64(200), *name.MaxLength)
}

func TestSchemaDeclared(t *testing.T) {
	gen := openapi.NewGenerator(rules.NewRegistry())
	ref, err := gen.NewSchemaRefForValue(Declared{})
	require.NoError(t, err)

	total := ref.Value.Properties["total"].Value
	require.NotNil(t, total.Min)
	assert.Equal(t, 1.0, *total.Min)

	ext, ok := ref.Value.Extensions[openapi.Extension].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "object", ext["class:Declared"])
	assert.Equal(t, "integer", ext["method:Sum"])
}

type Doubled struct {
	Name string `json:"name" mvel:"required"`
}

func TestSchemaSharedLocation(t *testing.T) {
	mvel.Declare(func(d *mvel.Declaration[Doubled]) {
		d.Property("Name", mvel.NewConstraint("length:1,5"))
		d.Class(mvel.NewConstraint("object"))
		d.Class(mvel.NewConstraint("required"))
	})
	ref, err := openapi.NewGenerator(rules.NewRegistry()).NewSchemaRefForValue(Doubled{})
	require.NoError(t, err)

	name := ref.Value.Properties["name"].Value
	assert.Equal(t, "(required)&(length:1,5)", name.Extensions[openapi.Extension])
	require.NotNil(t, name.MaxLength)
	assert.Equal(t, uint64(5), *name.MaxLength)
	assert.Equal(t, []string{"name"}, ref.Value.Required)

	ext, ok := ref.Value.Extensions[openapi.Extension].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "(object)&(required)", ext["class:Doubled"])
}

func TestSchemaCustomDescriber(t *testing.T) {
	gen := openapi.NewGenerator(rules.NewRegistry()).
		Describe("uuid", func(_ *mvel.Statement, _ string, _, prop *openapi3.Schema) {
			prop.Format = "custom-uuid"
		})
	ref, err := gen.NewSchemaRefForValue(Tagged{})
	require.NoError(t, err)
	assert.Equal(t, "custom-uuid", ref.Value.Properties["id"].Value.Format)
}

func TestSchemaUnknownRule(t *testing.T) {
	type Broken struct {
		Name string `json:"name" mvel:"no-such-rule"`
	}
	_, err := openapi.NewGenerator(rules.NewRegistry()).NewSchemaRefForValue(Broken{})
	require.Error(t, err)
	assert.ErrorIs(t, err, mvel.ErrUnknownRule)
}

func TestAdd(t *testing.T) {
	gen := openapi.NewGenerator(rules.NewRegistry())
	doc := openapi.NewDocument("Shop API", "", "1.0.0")

	require.NoError(t, gen.Add(doc, http.MethodGet, "/items", "listItems", openapi.Endpoint{
		Responses: map[string]openapi.Response{"200": {Description: "OK", Bodies: []any{[]Item{}}}},
	}))
	require.NoError(t, gen.Add(doc, http.MethodPut, "/items", "replaceItem", openapi.Endpoint{
		Requests: []any{Item{}, Tagged{}},
	}))
	assert.Error(t, gen.Add(doc, "TRACE", "/items", "traceItems", openapi.Endpoint{}))

	item := doc.Paths.Value("/items")
	require.NotNil(t, item.Get)
	require.NotNil(t, item.Put)
	assert.Nil(t, item.Get.Responses.Value("422"))
	assert.NotNil(t, item.Put.Responses.Value("422"))

	body := item.Put.RequestBody.Value.Content.Get("application/json")
	require.NotNil(t, body)
	assert.Len(t, body.Schema.Value.OneOf, 2)
}
