package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"formlink/app"
	"formlink/httpx"
	"formlink/log"
	"formlink/model"
)

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, title, description, country, query_text
			FROM form
			ORDER BY id DESC`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.Form{}
		for rows.Next() {
			f := model.Form{}
			err = rows.Scan(&f.ID, &f.Title, &f.Description, &f.Country, &f.QueryText)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}

			f.Questions, err = app.Questions.Flatten(strconv.Itoa(f.ID))
			if err != nil {
				httpx.LogInternalError(w, "questions.flatten", err)
				return
			}

			forms = append(forms, f)
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if strings.TrimSpace(form.Title) == "" {
			httpx.LogBadRequest(w, "create_form.title", "title required")
			return
		}
		if strings.TrimSpace(form.QueryText) == "" {
			httpx.LogBadRequest(w, "create_form.query_text", "queryText required")
			return
		}

		var formId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO form (title, description, country, query_text)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			strings.TrimSpace(form.Title),
			form.Description,
			strings.TrimSpace(form.Country),
			form.QueryText,
		).Scan(&formId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		if len(form.Questions) > 0 {
			err = app.Questions.Save(strconv.Itoa(formId), formCountries(form), form.Questions)
			if err != nil {
				httpx.LogInternalError(w, "questions.save", err)
				return
			}
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"success": true,
			"id":      formId,
		})
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if form.ID == 0 {
			httpx.LogBadRequest(w, "update_form.id", "form id required")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE form
			SET query_text = ?,
				description = ?,
				country = ?
			WHERE id = ?`,
			form.QueryText,
			form.Description,
			strings.TrimSpace(form.Country),
			form.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_form", form.ID)
			return
		}

		if form.Questions != nil {
			err = app.Questions.Save(strconv.Itoa(form.ID), formCountries(form), form.Questions)
			if err != nil {
				httpx.LogInternalError(w, "questions.save", err)
				return
			}
		}

		render.JSON(w, r, map[string]any{
			"updated": true,
			"id":      form.ID,
		})
	}
}

// DeleteForm removes the form row plus its question trees and short
// links from both document stores.
func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			httpx.LogBadRequest(w, "delete_form.id", "form id required")
			return
		}
		formId, err := strconv.Atoi(id)
		if err != nil {
			httpx.LogBadRequest(w, "delete_form.id", "form id must be numeric")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM form WHERE id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_form", formId)
			return
		}

		if err := app.Questions.DeleteForm(id); err != nil {
			httpx.LogInternalError(w, "questions.delete_form", err)
			return
		}
		if err := app.Links.DeleteForm(id); err != nil {
			httpx.LogInternalError(w, "links.delete_form", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"id":      formId,
		})
	}
}

type updateCountriesRequest struct {
	Countries []string `json:"countries"`
}

// UpdateFormCountries replaces a form's country list and prunes both
// document stores of entries for removed countries.
func UpdateFormCountries(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		formId, err := strconv.Atoi(id)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var req updateCountriesRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if len(req.Countries) == 0 {
			httpx.LogBadRequest(w, "update_countries.countries", "countries required")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE form SET country = ? WHERE id = ?`,
			strings.Join(req.Countries, ","),
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_countries", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_countries.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_countries", formId)
			return
		}

		if err := app.Questions.RetainCountries(id, req.Countries); err != nil {
			httpx.LogInternalError(w, "questions.retain_countries", err)
			return
		}
		if err := app.Links.RetainCountries(id, req.Countries); err != nil {
			httpx.LogInternalError(w, "links.retain_countries", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"success":   true,
			"id":        formId,
			"countries": req.Countries,
		})
	}
}

// formCountries splits the form's stored country column, which may
// hold a comma-separated list.
func formCountries(form model.Form) []string {
	parts := strings.Split(form.Country, ",")
	countries := make([]string, 0, len(parts))
	for _, part := range parts {
		if c := strings.TrimSpace(part); c != "" {
			countries = append(countries, c)
		}
	}
	if len(countries) == 0 {
		countries = []string{""}
	}
	return countries
}
