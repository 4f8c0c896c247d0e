package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/model"
)

type State int

const (
	Loading State = iota
	Failed
	Ready
	Submitting
	Submitted
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Failed:
		return "error"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var ErrNotReady = errors.New("form is not accepting input")

type FormLoader interface {
	GetForm(ctx context.Context, id string) (*model.Form, error)
}

type Submitter interface {
	SubmitResponse(ctx context.Context, formID string, answers []model.Answer) (string, error)
}

// Session is one respondent's pass through a form:
//
//	loading -> error | ready -> submitting -> submitted | ready
//
// Answers survive failed submissions. Only one submission can be in flight.
type Session struct {
	mu          sync.Mutex
	formID      string
	state       State
	form        *model.Form
	answers     map[string]model.AnswerValue
	fieldErrors map[string]string
	err         error
	responseID  string
	discarded   bool
}

func NewSession(formID string) *Session {
	return &Session{
		formID:      formID,
		state:       Loading,
		answers:     map[string]model.AnswerValue{},
		fieldErrors: map[string]string{},
	}
}

// ReadySession starts a session for a form that is already at hand.
func ReadySession(form *model.Form) *Session {
	s := NewSession(form.ID)
	s.form = form
	s.state = Ready
	return s
}

// Load fetches the form. It may be retried after a failure. A nil form from
// the loader is treated as not found.
func (s *Session) Load(ctx context.Context, loader FormLoader) error {
	s.mu.Lock()
	if s.state != Loading && s.state != Failed {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.state = Loading
	s.err = nil
	s.mu.Unlock()

	form, err := loader.GetForm(ctx, s.formID)
	if err == nil && form == nil {
		err = model.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		return nil
	}
	if err != nil {
		s.state = Failed
		s.err = err
		return err
	}
	s.form = form
	s.state = Ready
	return nil
}

// Discard marks the session as abandoned; a fetch that completes later is
// dropped instead of updating the session.
func (s *Session) Discard() {
	s.mu.Lock()
	s.discarded = true
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the last load or submission error.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Form() *model.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) ResponseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responseID
}

func (s *Session) Answer(questionID string) model.AnswerValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers[questionID]
}

func (s *Session) FieldErrors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		out[k] = v
	}
	return out
}

// Fields returns the widgets to render with current values and errors.
func (s *Session) Fields() []Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form == nil {
		return nil
	}
	return Fields(s.form, s.answers, s.fieldErrors)
}

// SetText sets the value of a single-valued question. For single_choice and
// dropdown questions the value must be one of the options, or empty.
func (s *Session) SetText(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.editable(questionID)
	if err != nil {
		return err
	}
	if q.Type.MultiValued() {
		return fmt.Errorf("question %s takes several options, use Toggle", questionID)
	}
	if q.Type.HasOptions() && value != "" && !hasOption(q, value) {
		return fmt.Errorf("question %s has no option %q", questionID, value)
	}
	s.answers[questionID] = model.Text(value)
	delete(s.fieldErrors, questionID)
	return nil
}

// Toggle checks or unchecks an option of a multi_choice question.
func (s *Session) Toggle(questionID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.editable(questionID)
	if err != nil {
		return err
	}
	if !q.Type.MultiValued() {
		return fmt.Errorf("question %s takes a single value, use SetText", questionID)
	}
	if !hasOption(q, option) {
		return fmt.Errorf("question %s has no option %q", questionID, option)
	}
	current, ok := s.answers[questionID]
	if !ok {
		current = model.Set()
	}
	s.answers[questionID] = current.Toggle(option)
	delete(s.fieldErrors, questionID)
	return nil
}

// Fill replaces all answers from submitted HTML form values keyed by
// question id. Values that are not options of a choice question are
// dropped.
func (s *Session) Fill(values map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	answers := map[string]model.AnswerValue{}
	for _, q := range s.form.Questions {
		vs := values[q.ID]
		switch {
		case q.Type.MultiValued():
			v := model.Set()
			for _, opt := range vs {
				if hasOption(q, opt) && !v.Contains(opt) {
					v = v.Toggle(opt)
				}
			}
			answers[q.ID] = v
		case len(vs) == 0:
		case q.Type.HasOptions() && !hasOption(q, vs[0]):
			log.Debugf("renderer: dropping %q, not an option of question %s", vs[0], q.ID)
		default:
			answers[q.ID] = model.Text(vs[0])
		}
	}
	s.answers = answers
	s.fieldErrors = map[string]string{}
	return nil
}

// Submit validates the answers and, when every required question is
// answered, sends them in a single call. A validation failure returns a
// *model.ValidationError, annotates the questions and sends nothing. A
// failed call returns the session to ready with the answers intact, and
// annotates the questions the backend rejected.
func (s *Session) Submit(ctx context.Context, submitter Submitter) error {
	s.mu.Lock()
	switch s.state {
	case Submitting:
		s.mu.Unlock()
		return model.ErrSubmitInProgress
	case Submitted:
		s.mu.Unlock()
		return model.ErrAlreadySubmitted
	case Ready:
	default:
		s.mu.Unlock()
		return ErrNotReady
	}

	if err := model.ValidateAnswers(s.form, s.answers); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			s.fieldErrors = verr.Fields
		}
		s.mu.Unlock()
		return err
	}

	s.fieldErrors = map[string]string{}
	s.err = nil
	s.state = Submitting
	formID := s.form.ID
	answers := s.payload()
	s.mu.Unlock()

	id, err := submitter.SubmitResponse(ctx, formID, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Ready
		s.err = err
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			s.fieldErrors = verr.Fields
		}
		return err
	}
	s.state = Submitted
	s.responseID = id
	return nil
}

// payload lists the non-empty answers in question order.
func (s *Session) payload() []model.Answer {
	out := []model.Answer{}
	for _, q := range s.form.OrderedQuestions() {
		v, ok := s.answers[q.ID]
		if !ok || v.IsEmpty() {
			continue
		}
		out = append(out, model.Answer{QuestionID: q.ID, Value: v})
	}
	return out
}

func (s *Session) ready() error {
	switch s.state {
	case Ready:
		return nil
	case Submitted:
		return model.ErrAlreadySubmitted
	}
	return ErrNotReady
}

func (s *Session) editable(questionID string) (model.Question, error) {
	if err := s.ready(); err != nil {
		return model.Question{}, err
	}
	q, ok := s.form.Question(questionID)
	if !ok {
		return q, fmt.Errorf("question %s: %w", questionID, model.ErrNotFound)
	}
	return q, nil
}

func hasOption(q model.Question, option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}
