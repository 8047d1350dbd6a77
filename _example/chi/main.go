// Command chi validates free-form JSON payloads with a keyed validator and
// registry macros, routed with chi.
//
//	cd _example/chi && go run .
//
// Then POST to http://localhost:8080/teams.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/Gobd/mvel"
	"github.com/Gobd/mvel/rules"
	"github.com/go-chi/chi/v5"
)

const config = `
macros:
  person-name: required&string&length:1,100
  handle: required&regex:"^[a-z0-9_]{3,20}$"
messages:
  required: "${@label} is required."
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg := rules.NewRegistry(mvel.WithLogger(logger))
	if err := reg.LoadConfig(strings.NewReader(config)); err != nil {
		log.Fatal(err)
	}
	engine := mvel.NewEngine(reg, mvel.WithLogger(logger), mvel.WithStrict(true))

	teams := engine.NewValidator().
		Key("name", "[person-name]", mvel.Label("team name")).
		Key("members", "required&array&between:1,20&distinct").
		Key("members.*.name", "[person-name]").
		Key("members.*.handle", "[handle]").
		Key("members.*.role", `?null|in:"owner","member","guest"`).
		Key("owner", `same:${members.0.handle.value}`, mvel.Messages(map[string]string{
			"same": "${@label} must be the first member.",
		}))

	r := chi.NewRouter()
	r.Post("/teams", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		results, err := teams.Check(payload)
		if err != nil {
			if results != nil && !results.Valid() {
				writeJSON(w, http.StatusUnprocessableEntity, results.Errors())
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, payload)
	})

	fmt.Println("Listening on http://localhost:8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
