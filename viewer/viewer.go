// Package viewer loads a form with its responses for an administrator and
// offers the exports when there is something to export.
package viewer

import (
	"context"
	"errors"

	"github.com/TRSiddique/university-association-sub000/export"
	"github.com/TRSiddique/university-association-sub000/model"
)

// Source is where forms and their responses are read from; both the REST
// client and the database store satisfy it.
type Source interface {
	GetForm(ctx context.Context, id string) (*model.Form, error)
	ListResponses(ctx context.Context, formID string) ([]model.Response, error)
}

// View is a loaded form. A view of a missing form has NotFound set and
// nothing else.
type View struct {
	Form      *model.Form
	Responses []model.Response
	NotFound  bool

	table export.Table
}

// Load fetches the form, then its responses, and sorts the responses newest
// first. A missing form is not an error: it yields a NotFound view. Other
// failures are returned so the caller can offer a retry.
func Load(ctx context.Context, src Source, formID string, canManage bool, opts export.Options) (*View, error) {
	if !canManage {
		return nil, model.ErrForbidden
	}

	form, err := src.GetForm(ctx, formID)
	if errors.Is(err, model.ErrNotFound) || (err == nil && form == nil) {
		return &View{NotFound: true}, nil
	}
	if err != nil {
		return nil, err
	}

	responses, err := src.ListResponses(ctx, formID)
	if errors.Is(err, model.ErrNotFound) {
		// deleted between the two calls
		return &View{NotFound: true}, nil
	}
	if err != nil {
		return nil, err
	}
	model.SortNewestFirst(responses)

	return &View{
		Form:      form,
		Responses: responses,
		table:     export.BuildTable(form, responses, opts),
	}, nil
}

// CanExport is false for missing forms and forms without responses.
func (v *View) CanExport() bool {
	return !v.NotFound && len(v.Responses) > 0
}

// Table is the projection shown on screen and used by both exports.
func (v *View) Table() export.Table {
	return v.table
}

func (v *View) CSV() (*export.Result, error) {
	if !v.CanExport() {
		return nil, model.ErrNothingToExport
	}
	return export.CSV(v.table)
}

func (v *View) Printable() (*export.Result, error) {
	if !v.CanExport() {
		return nil, model.ErrNothingToExport
	}
	return export.Printable(v.table)
}
