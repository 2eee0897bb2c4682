package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"formlink/app"
	"formlink/routes/middlewares"
	"formlink/token"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.PageGate(app.Tokens, token.AllowsElevated)).
		Mount("/backenduser", servePrivateFiles("/backenduser", "private/backenduser"))
	root.
		With(middlewares.PageGate(app.Tokens, token.AllowsStandard)).
		Mount("/frontenduser", servePrivateFiles("/frontenduser", "private/frontenduser"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/login", Login(app))
	api.Post("/logout", Logout(app))
	api.Get("/checkToken", CheckToken(app))

	// standard area: frontend users and up
	api.Group(func(r chi.Router) {
		r.Use(middlewares.Auth(app.Tokens), middlewares.RequireLevel(token.AllowsStandard))

		r.Post("/loadCountryDB", LoadCountryDB(app))
		r.Post("/runQuery", RunQuery(app))
		r.Post("/getOptions", GetOptions(app))

		r.Post("/saveState", SaveState(app))
		r.Put("/saveState", UpdateState(app))
		r.Get("/getState", GetState(app))
		r.Get("/getSavedState", GetSavedState(app))
	})

	// elevated area: backend users only
	api.Group(func(r chi.Router) {
		r.Use(middlewares.Auth(app.Tokens), middlewares.RequireLevel(token.AllowsElevated))

		r.Post("/saveQuestions", SaveQuestions(app))
		r.Get("/saveQuestions", GetQuestions(app))

		r.Get("/forms", ListForms(app))
		r.Post("/forms", CreateForm(app))
		r.Put("/forms", UpdateForm(app))
		r.Delete("/forms", DeleteForm(app))
		r.Post(`/forms/{id:^\d+$}/updateCountries`, UpdateFormCountries(app))
	})

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path, dir string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir(dir)))
}
