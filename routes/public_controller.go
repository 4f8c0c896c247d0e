package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/TRSiddique/university-association-sub000/app"
	"github.com/TRSiddique/university-association-sub000/httpx"
	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/model"
)

func PublicListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forms, err := app.ListForms(r.Context(), true)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}

		for i := range forms {
			forms[i].ResponseCount = 0
		}
		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

// PublicGetForm serves a form by id whether or not it is active, so shared
// links keep working after a form is hidden from the listing. Response
// counts are only shown to admins.
func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		form, err := app.GetForm(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "get_form", id, err)
			return
		}
		form.ResponseCount = 0

		render.JSON(w, r, form)
	}
}

type submission struct {
	FormID  string         `json:"formId"`
	Answers []model.Answer `json:"answers"`
}

func PublicSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sub := submission{}
		err := render.DecodeJSON(r.Body, &sub)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if sub.FormID != "" && sub.FormID != id {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.form_id",
				"formId %q does not match %q", sub.FormID, id)
			return
		}

		form, err := app.GetForm(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "submit_response.get_form", id, err)
			return
		}

		resp, err := acceptResponse(r.Context(), app, form, sub.Answers)
		var verr *model.ValidationError
		var serr *shapeError
		switch {
		case err == nil:
		case errors.As(err, &verr):
			httpx.LogValidation(w, r, "submit_response.validate", verr)
			return
		case errors.Is(err, model.ErrDuplicateQuestion), errors.As(err, &serr):
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit_response.answers", "%s", err)
			return
		default:
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		log.WithField("form", form.ID).Debugf("response %s recorded", resp.ID)
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": resp.ID,
		})
	}
}

type shapeError struct {
	questionID string
	multi      bool
}

func (e *shapeError) Error() string {
	if e.multi {
		return fmt.Sprintf("question %s expects a list of options", e.questionID)
	}
	return fmt.Sprintf("question %s expects a single value", e.questionID)
}

// acceptResponse checks a submission against the form and stores it.
// Answers to questions the form does not have are dropped, as are empty
// ones; required questions must still be answered.
func acceptResponse(ctx context.Context, app app.App, form *model.Form, answers []model.Answer) (*model.Response, error) {
	byID, err := model.AnswerMap(answers)
	if err != nil {
		return nil, err
	}

	kept := []model.Answer{}
	for _, q := range form.OrderedQuestions() {
		v, ok := byID[q.ID]
		if !ok || v.IsEmpty() {
			continue
		}
		if v.IsMulti() != q.Type.MultiValued() {
			return nil, &shapeError{questionID: q.ID, multi: q.Type.MultiValued()}
		}
		kept = append(kept, model.Answer{QuestionID: q.ID, Value: v})
	}
	if len(kept) < len(byID) {
		log.Debugf("submit_response: form %s: dropped %d unknown or empty answers", form.ID, len(byID)-len(kept))
	}

	if err := model.ValidateAnswers(form, byID); err != nil {
		return nil, err
	}
	return app.InsertResponse(ctx, form.ID, kept)
}

// storeSubmitter feeds the HTML form pages through the same checks as the
// JSON API.
type storeSubmitter struct {
	app  app.App
	form *model.Form
}

func (s storeSubmitter) SubmitResponse(ctx context.Context, formID string, answers []model.Answer) (string, error) {
	resp, err := acceptResponse(ctx, s.app, s.form, answers)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}
