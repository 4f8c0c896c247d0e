// Package export projects a form and its responses into a table and renders
// that table as CSV or as a printable HTML page. Both renderings share one
// projection so their cells are identical.
package export

import (
	"strconv"
	"time"

	"github.com/TRSiddique/university-association-sub000/model"
)

const (
	NoAnswer        = "No answer"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Table is the projection shared by every export format. Row i of Rows
// corresponds to the i-th most recent response.
type Table struct {
	Title       string
	Header      []string
	Rows        [][]string
	GeneratedAt time.Time
}

// Options tune the projection. The zero value formats times in UTC.
type Options struct {
	Location *time.Location
	Now      func() time.Time
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// BuildTable joins responses with the form's questions. Columns are "#",
// "Submitted At" and one column per question in ascending order. Responses
// are sorted newest first and numbered down from the total, so the most
// recent response is numbered len(responses). Answers that are missing,
// empty, or whose question was removed render as NoAnswer.
func BuildTable(form *model.Form, responses []model.Response, opts Options) Table {
	questions := form.OrderedQuestions()

	header := make([]string, 0, 2+len(questions))
	header = append(header, "#", "Submitted At")
	for _, q := range questions {
		header = append(header, q.Text)
	}

	sorted := make([]model.Response, len(responses))
	copy(sorted, responses)
	model.SortNewestFirst(sorted)

	loc := opts.location()
	rows := make([][]string, 0, len(sorted))
	for i, r := range sorted {
		row := make([]string, 0, len(header))
		row = append(row,
			strconv.Itoa(len(sorted)-i),
			r.SubmittedAt.In(loc).Format(TimestampLayout),
		)
		for _, q := range questions {
			row = append(row, cell(r, q.ID))
		}
		rows = append(rows, row)
	}

	return Table{
		Title:       form.Title,
		Header:      header,
		Rows:        rows,
		GeneratedAt: opts.now().In(loc),
	}
}

func cell(r model.Response, questionID string) string {
	v, ok := r.Answer(questionID)
	if !ok || v.IsEmpty() {
		return NoAnswer
	}
	return v.Display()
}
