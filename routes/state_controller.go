package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"formlink/app"
	"formlink/httpx"
	"formlink/log"
	"formlink/model"
	"formlink/statestore"
)

type saveStateRequest struct {
	FormID    string           `json:"formId"`
	Countries []string         `json:"countries"`
	Country   string           `json:"country"`
	Questions []model.Question `json:"questions"`
}

// SaveState mints (or reuses) a short id per country for a snapshot
// of the resolved question tree.
func SaveState(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveStateRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if req.FormID == "" {
			httpx.LogBadRequest(w, "save_state.form_id", "formId required")
			return
		}
		if len(req.Countries) == 0 {
			httpx.LogBadRequest(w, "save_state.countries", "countries required")
			return
		}
		if len(req.Questions) == 0 {
			httpx.LogBadRequest(w, "save_state.questions", "questions required")
			return
		}

		shortID, err := app.Links.PutAll(req.FormID, req.Countries, req.Questions)
		if err != nil {
			httpx.LogInternalError(w, "links.put_all", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"shortId": shortID,
		})
	}
}

// UpdateState overwrites the stored questions of one (form, country)
// pair, keeping its short id.
func UpdateState(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveStateRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if req.FormID == "" {
			httpx.LogBadRequest(w, "update_state.form_id", "formId required")
			return
		}
		if req.Country == "" {
			httpx.LogBadRequest(w, "update_state.country", "country required")
			return
		}
		if len(req.Questions) == 0 {
			httpx.LogBadRequest(w, "update_state.questions", "questions required")
			return
		}

		err := app.Links.Update(req.FormID, req.Country, req.Questions)
		if errors.Is(err, statestore.ErrNotFound) {
			httpx.LogNotFound(w, "update_state", req.FormID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "links.update", err)
			return
		}

		render.JSON(w, r, map[string]any{"success": true})
	}
}

// GetState resolves a short id back into its snapshot. Options whose
// resolved choices are empty are re-resolved against the country's
// database; a resolution failure degrades to the stale snapshot
// instead of failing the read.
func GetState(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shortID := r.URL.Query().Get("shortId")
		if shortID == "" {
			httpx.LogBadRequest(w, "get_state.short_id", "shortId required")
			return
		}

		formID, country, questions, err := app.Links.Get(shortID)
		if errors.Is(err, statestore.ErrNotFound) {
			httpx.LogNotFound(w, "get_state", shortID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "links.get", err)
			return
		}

		for i := range questions {
			if !needsResolution(questions[i]) {
				continue
			}
			if err := app.Resolver.ResolveQuestion(r.Context(), country, &questions[i]); err != nil {
				log.Errorf("get_state.resolve: %q question %q: %s", country, questions[i].ID, err)
			}
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"state": map[string]any{
				"selectedFormId": formID,
				"country":        country,
				"shortId":        shortID,
				"questions":      questions,
			},
		})
	}
}

func needsResolution(q model.Question) bool {
	for _, opt := range q.Options {
		if opt.Kind.Selectable() && len(opt.Choices) == 0 {
			return true
		}
	}
	return false
}

// GetSavedState reports the live short id of a (form, country) pair,
// or null when none exists yet.
func GetSavedState(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := r.URL.Query().Get("formId")
		country := r.URL.Query().Get("country")
		if formID == "" || country == "" {
			httpx.LogBadRequest(w, "get_saved_state.params", "formId and country required")
			return
		}

		var shortID any
		if id, ok := app.Links.ShortIDFor(formID, country); ok {
			shortID = id
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"shortId": shortID,
		})
	}
}
