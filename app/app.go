package app

import (
	"database/sql"

	"formlink/config"
	"formlink/countrydb"
	"formlink/options"
	"formlink/query"
	"formlink/statestore"
	"formlink/token"
)

type App struct {
	*sql.DB
	config.Config
	Tokens    *token.Service
	Router    *countrydb.Router
	Engine    *query.Engine
	Resolver  *options.Resolver
	Links     *statestore.LinkStore
	Questions *statestore.QuestionStore
}

func New(db *sql.DB, cfg config.Config, tokens *token.Service) App {
	router := countrydb.NewRouter(cfg.CountryDriver, cfg.CountryDSN)
	engine := query.NewEngine(router, cfg.QueryTimeout)

	return App{
		DB:        db,
		Config:    cfg,
		Tokens:    tokens,
		Router:    router,
		Engine:    engine,
		Resolver:  options.NewResolver(engine),
		Links:     statestore.NewLinkStore(cfg.LinksPath()),
		Questions: statestore.NewQuestionStore(cfg.QuestionsPath()),
	}
}
