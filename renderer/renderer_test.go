package renderer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/TRSiddique/university-association-sub000/model"
)

type stubLoader struct {
	form *model.Form
	err  error
}

func (l stubLoader) GetForm(ctx context.Context, id string) (*model.Form, error) {
	return l.form, l.err
}

type recordingSubmitter struct {
	calls   [][]model.Answer
	err     error
	release chan struct{}
	started chan struct{}
}

func (r *recordingSubmitter) SubmitResponse(ctx context.Context, formID string, answers []model.Answer) (string, error) {
	if r.started != nil {
		close(r.started)
	}
	if r.release != nil {
		<-r.release
	}
	r.calls = append(r.calls, answers)
	if r.err != nil {
		return "", r.err
	}
	return "resp-1", nil
}

func feedbackForm() *model.Form {
	return &model.Form{
		ID:    "f1",
		Title: "Feedback",
		Questions: []model.Question{
			{ID: "q1", Text: "Name", Type: model.ShortText, Required: true, Order: 0},
			{ID: "q2", Text: "Rating", Type: model.SingleChoice, Options: []string{"Good", "Bad"}, Required: true, Order: 1},
		},
	}
}

func TestEveryQuestionTypeHasWidget(t *testing.T) {
	for _, qt := range model.QuestionTypes {
		w, ok := WidgetFor(qt)
		if !ok {
			t.Errorf("no widget for %s", qt)
		}
		if w.Multi != qt.MultiValued() {
			t.Errorf("%s: widget multi = %v", qt, w.Multi)
		}
	}
	if _, ok := WidgetFor("rating"); ok {
		t.Error("unknown type should have no widget")
	}
}

func TestFeedbackScenario(t *testing.T) {
	s := NewSession("f1")
	if s.State() != Loading {
		t.Fatalf("state = %s", s.State())
	}
	if err := s.Load(context.Background(), stubLoader{form: feedbackForm()}); err != nil {
		t.Fatal(err)
	}
	if s.State() != Ready {
		t.Fatalf("state = %s", s.State())
	}

	sub := &recordingSubmitter{}
	if err := s.SetText("q1", "Rahim"); err != nil {
		t.Fatal(err)
	}

	err := s.Submit(context.Background(), sub)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(sub.calls) != 0 {
		t.Fatalf("network calls = %d, want 0", len(sub.calls))
	}
	if s.FieldErrors()["q2"] == "" || s.FieldErrors()["q1"] != "" {
		t.Fatalf("field errors = %v", s.FieldErrors())
	}
	if s.State() != Ready || s.Answer("q1").String() != "Rahim" {
		t.Fatal("answers lost after validation failure")
	}

	if err := s.SetText("q2", "Good"); err != nil {
		t.Fatal(err)
	}
	if len(s.FieldErrors()) != 0 {
		t.Fatalf("editing should clear the annotation, got %v", s.FieldErrors())
	}
	if err := s.Submit(context.Background(), sub); err != nil {
		t.Fatal(err)
	}
	if len(sub.calls) != 1 {
		t.Fatalf("network calls = %d, want 1", len(sub.calls))
	}
	got := sub.calls[0]
	if len(got) != 2 || got[0].QuestionID != "q1" || got[0].Value.String() != "Rahim" ||
		got[1].QuestionID != "q2" || got[1].Value.String() != "Good" {
		t.Fatalf("payload = %+v", got)
	}
	if s.State() != Submitted || s.ResponseID() != "resp-1" {
		t.Fatalf("state = %s id = %s", s.State(), s.ResponseID())
	}

	if err := s.SetText("q1", "late"); !errors.Is(err, model.ErrAlreadySubmitted) {
		t.Fatalf("edit after submit: %v", err)
	}
	if err := s.Submit(context.Background(), sub); !errors.Is(err, model.ErrAlreadySubmitted) {
		t.Fatalf("resubmit: %v", err)
	}
}

func TestUnknownRequiredTypeDoesNotBlockSubmit(t *testing.T) {
	form := &model.Form{ID: "f1", Title: "Feedback", Questions: []model.Question{
		{ID: "q1", Text: "Name", Type: model.ShortText, Required: true, Order: 0},
		{ID: "q2", Text: "Stars", Type: "rating", Required: true, Order: 1},
	}}
	s := ReadySession(form)
	if fields := s.Fields(); len(fields) != 1 || fields[0].ID != "q1" {
		t.Fatalf("fields = %+v", fields)
	}
	_ = s.SetText("q1", "Rahim")

	sub := &recordingSubmitter{}
	if err := s.Submit(context.Background(), sub); err != nil {
		t.Fatalf("submit: %v (field errors %v)", err, s.FieldErrors())
	}
	if len(sub.calls) != 1 || len(sub.calls[0]) != 1 || sub.calls[0][0].QuestionID != "q1" {
		t.Fatalf("calls = %+v", sub.calls)
	}
	if s.State() != Submitted {
		t.Fatalf("state = %s", s.State())
	}
}

func TestFailedSubmitKeepsAnswers(t *testing.T) {
	s := ReadySession(feedbackForm())
	_ = s.SetText("q1", "Rahim")
	_ = s.SetText("q2", "Bad")

	sub := &recordingSubmitter{err: &model.NetworkError{Op: "submit", StatusCode: 502}}
	err := s.Submit(context.Background(), sub)
	var nerr *model.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected network error, got %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state = %s", s.State())
	}
	if s.Answer("q1").String() != "Rahim" || s.Answer("q2").String() != "Bad" {
		t.Fatal("answers discarded after failed submit")
	}

	sub.err = nil
	if err := s.Submit(context.Background(), sub); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(sub.calls) != 2 {
		t.Fatalf("calls = %d", len(sub.calls))
	}
}

func TestBackendValidationAnnotatesQuestions(t *testing.T) {
	s := ReadySession(feedbackForm())
	_ = s.SetText("q1", "Rahim")
	_ = s.SetText("q2", "Good")

	sub := &recordingSubmitter{err: &model.ValidationError{Fields: map[string]string{"q2": "this question is required"}}}
	if err := s.Submit(context.Background(), sub); !errors.As(err, new(*model.ValidationError)) {
		t.Fatalf("submit: %v", err)
	}
	if s.State() != Ready || s.FieldErrors()["q2"] == "" {
		t.Fatalf("state = %s field errors = %v", s.State(), s.FieldErrors())
	}

	var buf bytes.Buffer
	if err := RenderPage(&buf, NewPage(s, "/forms/f1")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `class="field-error"`) {
		t.Fatal("backend validation error not shown next to the question")
	}
}

func TestSecondSubmitWhileInFlight(t *testing.T) {
	s := ReadySession(feedbackForm())
	_ = s.SetText("q1", "Rahim")
	_ = s.SetText("q2", "Good")

	sub := &recordingSubmitter{release: make(chan struct{}), started: make(chan struct{})}
	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), sub) }()

	select {
	case <-sub.started:
	case <-time.After(time.Second):
		t.Fatal("submission did not start")
	}
	if s.State() != Submitting {
		t.Fatalf("state = %s", s.State())
	}
	if err := s.Submit(context.Background(), &recordingSubmitter{}); !errors.Is(err, model.ErrSubmitInProgress) {
		t.Fatalf("second submit: %v", err)
	}
	if err := s.SetText("q1", "changed"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("edit while submitting: %v", err)
	}

	close(sub.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if len(sub.calls) != 1 {
		t.Fatalf("calls = %d", len(sub.calls))
	}
}

func TestLoadFailures(t *testing.T) {
	s := NewSession("missing")
	err := s.Load(context.Background(), stubLoader{})
	if !errors.Is(err, model.ErrNotFound) || s.State() != Failed {
		t.Fatalf("err = %v state = %s", err, s.State())
	}

	if err := s.Load(context.Background(), stubLoader{form: feedbackForm()}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state = %s", s.State())
	}

	d := NewSession("f1")
	d.Discard()
	if err := d.Load(context.Background(), stubLoader{form: feedbackForm()}); err != nil {
		t.Fatal(err)
	}
	if d.State() != Loading || d.Form() != nil {
		t.Fatal("discarded session was updated")
	}
}

func TestMultiChoiceToggle(t *testing.T) {
	form := &model.Form{ID: "f", Questions: []model.Question{
		{ID: "m", Type: model.MultiChoice, Options: []string{"A", "B", "C"}, Required: true},
	}}
	s := ReadySession(form)
	_ = s.Toggle("m", "C")
	_ = s.Toggle("m", "A")
	before := s.Answer("m")
	_ = s.Toggle("m", "B")
	_ = s.Toggle("m", "B")
	if !s.Answer("m").Equal(before) {
		t.Fatalf("toggle twice: %v, want %v", s.Answer("m").Values(), before.Values())
	}
	if err := s.Toggle("m", "Z"); err == nil {
		t.Fatal("expected error for unknown option")
	}
	if err := s.SetText("m", "A"); err == nil {
		t.Fatal("expected error for SetText on multi_choice")
	}

	_ = s.Toggle("m", "C")
	_ = s.Toggle("m", "A")
	err := s.Submit(context.Background(), &recordingSubmitter{})
	if !errors.As(err, new(*model.ValidationError)) {
		t.Fatalf("empty set should fail required check, got %v", err)
	}
}

func TestFill(t *testing.T) {
	form := feedbackForm()
	form.Questions = append(form.Questions, model.Question{ID: "q3", Type: model.MultiChoice, Options: []string{"x", "y"}, Order: 2})
	s := ReadySession(form)
	err := s.Fill(map[string][]string{
		"q1": {"Rahim"},
		"q2": {"Excellent"},
		"q3": {"y", "nope", "x", "y"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Answer("q1").String() != "Rahim" {
		t.Fatal("q1 not filled")
	}
	if !s.Answer("q2").IsEmpty() {
		t.Fatal("invalid option accepted")
	}
	if got := s.Answer("q3").Values(); strings.Join(got, ",") != "y,x" {
		t.Fatalf("q3 = %v", got)
	}
}

func TestRenderPageWidgetsInOrder(t *testing.T) {
	form := &model.Form{ID: "f", Title: "All types", Questions: []model.Question{}}
	for i, qt := range model.QuestionTypes {
		q := model.Question{ID: "q-" + string(qt), Text: string(qt), Type: qt, Order: len(model.QuestionTypes) - i}
		if qt.HasOptions() {
			q.Options = []string{"one", "two"}
		}
		form.Questions = append(form.Questions, q)
	}
	form.Questions = append(form.Questions, model.Question{ID: "bad", Type: "rating", Order: 99})

	s := ReadySession(form)
	var buf bytes.Buffer
	if err := RenderPage(&buf, NewPage(s, "/forms/f")); err != nil {
		t.Fatal(err)
	}
	doc, err := html.Parse(&buf)
	if err != nil {
		t.Fatalf("bad html: %v", err)
	}

	var ids []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" {
			for _, a := range n.Attr {
				if a.Key == "data-question-id" {
					ids = append(ids, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(ids) != len(model.QuestionTypes) {
		t.Fatalf("widgets = %d, want %d (%v)", len(ids), len(model.QuestionTypes), ids)
	}
	for i, q := range form.OrderedQuestions()[:len(ids)] {
		if ids[i] != q.ID {
			t.Fatalf("widget %d = %s, want %s", i, ids[i], q.ID)
		}
	}
}

func TestRenderPageRejectsUnknownWidgetKind(t *testing.T) {
	form := feedbackForm()
	page := Page{
		State:  Ready.String(),
		Form:   form,
		Fields: []Field{{Question: form.Questions[0], Widget: Widget{Kind: SelectList + 1}}},
		Action: "/forms/f1",
	}
	var buf bytes.Buffer
	if err := RenderPage(&buf, page); err == nil {
		t.Fatal("widget kind without markup rendered silently")
	}
}

func TestRenderPageStates(t *testing.T) {
	s := ReadySession(feedbackForm())
	_ = s.SetText("q1", `<b>Rahim</b>`)
	_ = s.Submit(context.Background(), &recordingSubmitter{})

	var buf bytes.Buffer
	if err := RenderPage(&buf, NewPage(s, "/forms/f1")); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `class="field-error"`) || !strings.Contains(out, "Please answer all required questions.") {
		t.Fatal("validation errors not rendered")
	}
	if !strings.Contains(out, `value="&lt;b&gt;Rahim&lt;/b&gt;"`) {
		t.Fatal("entered value not preserved or not escaped")
	}

	_ = s.SetText("q2", "Good")
	_ = s.Submit(context.Background(), &recordingSubmitter{})
	buf.Reset()
	if err := RenderPage(&buf, NewPage(s, "/forms/f1")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Thank you!") || strings.Contains(buf.String(), "<form") {
		t.Fatal("submitted page should thank and offer no form")
	}

	missing := NewSession("nope")
	_ = missing.Load(context.Background(), stubLoader{err: model.ErrNotFound})
	buf.Reset()
	if err := RenderPage(&buf, NewPage(missing, "")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "This form does not exist.") {
		t.Fatal("not found page not rendered")
	}
}
