package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TRSiddique/university-association-sub000/app"
	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/routes/middlewares"
)

const formID = `{id:^[0-9a-f]+$}`

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
	)

	root.Mount("/api", apiRouter(app))

	root.Get("/forms/"+formID, FormPage(app))
	root.Post("/forms/"+formID, SubmitFormPage(app))

	root.Get("/login", LoginPage())
	root.Post("/login", SubmitLoginPage(app))

	root.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.Config.TokenSecret))
		r.Get("/forms/"+formID+"/print", PrintResponsesPage(app))
	})

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/forms", PublicListForms(app))
	api.Get("/forms/"+formID, PublicGetForm(app))
	api.Post("/forms/"+formID+"/responses", PublicSubmitResponse(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.Config.TokenSecret))

		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Patch("/forms/"+formID, UpdateForm(app))
		r.Delete("/forms/"+formID, DeleteForm(app))

		r.Get("/forms/"+formID+"/responses", GetFormResponses(app))
		r.Get("/forms/"+formID+"/responses/export", ExportResponses(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
