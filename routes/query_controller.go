package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"formlink/app"
	"formlink/countrydb"
	"formlink/httpx"
	"formlink/log"
	"formlink/model"
)

// countryList accepts the wire shape country: "Thailand" as well as
// country: ["Thailand", "Vietnam"].
func countryList(raw any) []string {
	switch v := raw.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		countries := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				countries = append(countries, strings.TrimSpace(s))
			}
		}
		return countries
	case []string:
		return v
	}
	return nil
}

type loadCountryDBRequest struct {
	Country any `json:"country"`
}

// LoadCountryDB checks mapping and connectivity for a batch of
// countries. Unknown countries are skipped with a warning, not a hard
// failure.
func LoadCountryDB(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loadCountryDBRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		countries := countryList(req.Country)
		if len(countries) == 0 {
			httpx.LogBadRequest(w, "load_country_db.country", "no country provided")
			return
		}

		loadedDbs := []string{}
		for _, country := range countries {
			dbName, err := countrydb.ResolveTarget(country)
			if err != nil {
				log.Warnf("load_country_db: no database mapping for country %q", country)
				continue
			}

			db, err := app.Router.Connect(r.Context(), country)
			if err != nil {
				log.Errorf("load_country_db: connect %q: %s", country, err)
				continue
			}
			db.Close()

			loadedDbs = append(loadedDbs, dbName)
		}

		if len(loadedDbs) == 0 {
			httpx.LogBadRequest(w, "load_country_db.none", "no valid country database loaded")
			return
		}

		render.JSON(w, r, map[string]any{
			"success":   true,
			"loadedDbs": loadedDbs,
		})
	}
}

type runQueryRequest struct {
	Country       any            `json:"country"`
	QueryTemplate string         `json:"queryTemplate"`
	Params        map[string]any `json:"params"`
}

// RunQuery is the resolve endpoint: substitute the template and run
// it against each requested country, isolating per-country failures.
// A single unknown country is a 404; unknown countries inside a batch
// are skipped with a warning.
func RunQuery(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runQueryRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		countries := countryList(req.Country)
		if len(countries) == 0 {
			httpx.LogBadRequest(w, "run_query.country", "country required")
			return
		}
		if strings.TrimSpace(req.QueryTemplate) == "" {
			httpx.LogBadRequest(w, "run_query.template", "query required")
			return
		}
		if len(countries) == 1 {
			if _, err := countrydb.ResolveTarget(countries[0]); err != nil {
				log.Debugf("run_query: %s", err)
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, map[string]any{
					"success": false,
					"error":   "unknown country",
				})
				return
			}
		}

		log.Debugf("run_query: user=%q countries=%v", requestClaims(r), countries)
		results := app.Engine.ExecuteBatch(r.Context(), countries, req.QueryTemplate, req.Params)

		render.JSON(w, r, map[string]any{
			"success": true,
			"results": results,
		})
	}
}

type getOptionsRequest struct {
	Country  string         `json:"country"`
	Option   model.Option   `json:"option"`
	Siblings []model.Option `json:"siblings"`
}

// GetOptions resolves one option's selectable choices.
func GetOptions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req getOptionsRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if req.Country == "" {
			httpx.LogBadRequest(w, "get_options.country", "country required")
			return
		}
		if req.Option.Kind == "" {
			httpx.LogBadRequest(w, "get_options.option", "option required")
			return
		}

		choices, err := app.Resolver.Resolve(r.Context(), req.Country, req.Option, req.Siblings)
		if errors.Is(err, countrydb.ErrUnknownCountry) {
			log.Debugf("get_options: %s", err)
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, map[string]any{
				"success": false,
				"error":   "unknown country",
			})
			return
		}
		if err != nil {
			log.Errorf("get_options: %q: %s", req.Country, err)
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, map[string]any{
				"success": false,
				"error":   "query execution failed",
			})
			return
		}
		if choices == nil {
			choices = []model.Choice{}
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"options": choices,
		})
	}
}
