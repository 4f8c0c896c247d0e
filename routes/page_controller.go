package routes

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TRSiddique/university-association-sub000/app"
	"github.com/TRSiddique/university-association-sub000/httpx"
	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/model"
	"github.com/TRSiddique/university-association-sub000/renderer"
)

// FormPage renders the public form for respondents.
func FormPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := renderer.NewSession(chi.URLParam(r, "id"))
		status := http.StatusOK
		if err := session.Load(r.Context(), app.Store); err != nil {
			status = loadStatus(err)
		}
		writePage(w, r, session, status)
	}
}

// SubmitFormPage takes a urlencoded submission of the public form. Missing
// required answers re-render the form with the entered values and inline
// errors.
func SubmitFormPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form")
			return
		}

		session := renderer.NewSession(chi.URLParam(r, "id"))
		if err := session.Load(r.Context(), app.Store); err != nil {
			writePage(w, r, session, loadStatus(err))
			return
		}
		if err := session.Fill(r.PostForm); err != nil {
			httpx.LogInternalError(w, "form_page.fill", err)
			return
		}

		status := http.StatusOK
		err := session.Submit(r.Context(), storeSubmitter{app: app, form: session.Form()})
		var verr *model.ValidationError
		switch {
		case err == nil:
		case errors.As(err, &verr):
			status = http.StatusUnprocessableEntity
		default:
			log.Errorf("form_page.submit: %s", err)
			status = http.StatusInternalServerError
		}
		writePage(w, r, session, status)
	}
}

func loadStatus(err error) int {
	if errors.Is(err, model.ErrNotFound) {
		return http.StatusNotFound
	}
	log.Errorf("form_page.load: %s", err)
	return http.StatusInternalServerError
}

func writePage(w http.ResponseWriter, r *http.Request, session *renderer.Session, status int) {
	var buf bytes.Buffer
	if err := renderer.RenderPage(&buf, renderer.NewPage(session, r.URL.Path)); err != nil {
		httpx.LogInternalError(w, "form_page.render", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
