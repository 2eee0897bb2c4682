package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"formlink/app"
	"formlink/httpx"
	"formlink/log"
	"formlink/model"
)

type saveQuestionsRequest struct {
	FormID    string           `json:"formId"`
	Countries []string         `json:"countries"`
	Questions []model.Question `json:"questions"`
}

// SaveQuestions persists an authored question tree for each listed
// country.
func SaveQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveQuestionsRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if req.FormID == "" {
			httpx.LogBadRequest(w, "save_questions.form_id", "formId required")
			return
		}
		if len(req.Countries) == 0 {
			httpx.LogBadRequest(w, "save_questions.countries", "countries required")
			return
		}
		if req.Questions == nil {
			httpx.LogBadRequest(w, "save_questions.questions", "questions required")
			return
		}

		if err := app.Questions.Save(req.FormID, req.Countries, req.Questions); err != nil {
			httpx.LogInternalError(w, "questions.save", err)
			return
		}

		render.JSON(w, r, map[string]any{"success": true})
	}
}

// GetQuestions reads authored question trees back: one country's tree
// when country is given, otherwise every country's flattened.
func GetQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := r.URL.Query().Get("formId")
		country := r.URL.Query().Get("country")
		if formID == "" {
			httpx.LogBadRequest(w, "get_questions.form_id", "formId required")
			return
		}

		var questions []model.Question
		var err error
		if country != "" {
			questions, err = app.Questions.Get(formID, country)
		} else {
			questions, err = app.Questions.Flatten(formID)
		}
		if err != nil {
			httpx.LogInternalError(w, "questions.get", err)
			return
		}

		byCountry, err := app.Questions.GetAll(formID)
		if err != nil {
			httpx.LogInternalError(w, "questions.get_all", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"success":            true,
			"questions":          questions,
			"questionsByCountry": byCountry,
		})
	}
}
