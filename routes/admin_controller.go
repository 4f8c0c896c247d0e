package routes

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/TRSiddique/university-association-sub000/app"
	"github.com/TRSiddique/university-association-sub000/export"
	"github.com/TRSiddique/university-association-sub000/httpx"
	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/model"
	"github.com/TRSiddique/university-association-sub000/routes/middlewares"
	"github.com/TRSiddique/university-association-sub000/viewer"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if strings.TrimSpace(form.Title) == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_form.validate", "title is required")
			return
		}
		for i, q := range form.Questions {
			if !q.Type.Valid() {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_form.validate",
					"question %d: %s %q", i, model.ErrUnknownQuestion, q.Type)
				return
			}
		}

		created, err := app.CreateForm(r.Context(), form)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		log.WithField("form", created.ID).Infof("form %q created with %d questions", created.Title, len(created.Questions))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, created)
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forms, err := app.ListForms(r.Context(), false)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

// UpdateForm only toggles isActive: questions are never edited after
// creation.
func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var body struct {
			IsActive *bool `json:"isActive"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil || body.IsActive == nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.SetFormActive(r.Context(), id, *body.IsActive)
		if err != nil {
			httpx.LogStoreError(w, "update_form", id, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := app.DeleteForm(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "delete_form", id, err)
			return
		}

		log.WithField("form", id).Info("form deleted with its responses")
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetFormResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		responses, err := app.ListResponses(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "get_responses", id, err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

// ExportResponses downloads the responses as CSV (the default) or as the
// printable HTML page with format=html.
func ExportResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		format := r.URL.Query().Get("format")
		if format != "" && format != "csv" && format != "html" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "export.format", "unknown format %q", format)
			return
		}

		view, ok := loadView(w, r, app, id)
		if !ok {
			return
		}

		var res *export.Result
		var err error
		if format == "html" {
			res, err = view.Printable()
		} else {
			res, err = view.CSV()
		}
		if err != nil {
			httpx.LogInternalError(w, "export.render", err)
			return
		}

		disposition := "attachment"
		if format == "html" {
			disposition = "inline"
		}
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": res.Filename}))
		w.Write(res.Data)
	}
}

// PrintResponsesPage is the printable view opened from the browser.
func PrintResponsesPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		view, ok := loadView(w, r, app, id)
		if !ok {
			return
		}

		res, err := view.Printable()
		if err != nil {
			httpx.LogInternalError(w, "print.render", err)
			return
		}
		w.Header().Set("Content-Type", res.ContentType)
		w.Write(res.Data)
	}
}

// loadView loads the form's responses for export and answers the request
// itself when there is nothing to export.
func loadView(w http.ResponseWriter, r *http.Request, app app.App, id string) (*viewer.View, bool) {
	view, err := viewer.Load(r.Context(), app.Store, id, middlewares.IsAdmin(r), app.ExportOptions())
	if errors.Is(err, model.ErrForbidden) {
		httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "export.forbidden")
		return nil, false
	}
	if err != nil {
		httpx.LogInternalError(w, "db.get_responses", err)
		return nil, false
	}
	if view.NotFound {
		httpx.LogNotFound(w, "export", id)
		return nil, false
	}
	if !view.CanExport() {
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "export.empty", "%s", model.ErrNothingToExport)
		return nil, false
	}
	return view, true
}
