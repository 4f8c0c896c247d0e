package model

import (
	"sort"
	"time"
)

type QuestionType string

const (
	ShortText    QuestionType = "short_text"
	LongText     QuestionType = "long_text"
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	Dropdown     QuestionType = "dropdown"
	Email        QuestionType = "email"
	Number       QuestionType = "number"
	Date         QuestionType = "date"
)

// QuestionTypes lists every supported question type, in the order the
// builder offers them.
var QuestionTypes = []QuestionType{
	ShortText, LongText, SingleChoice, MultiChoice, Dropdown, Email, Number, Date,
}

func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether questions of this type carry an option list.
func (t QuestionType) HasOptions() bool {
	return t == SingleChoice || t == MultiChoice || t == Dropdown
}

// MultiValued reports whether answers to this type are sets of strings.
func (t QuestionType) MultiValued() bool {
	return t == MultiChoice
}

type Form struct {
	ID            string     `json:"id,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Questions     []Question `json:"questions"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	ResponseCount int        `json:"responseCount,omitempty"`
}

type Question struct {
	ID       string       `json:"id,omitempty"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options"`
	Required bool         `json:"required"`
	Order    int          `json:"order"`
}

// OrderedQuestions returns the form's questions sorted by Order. Ties keep
// their stored sequence.
func (f *Form) OrderedQuestions() []Question {
	qs := make([]Question, len(f.Questions))
	copy(qs, f.Questions)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	return qs
}

func (f *Form) Question(id string) (Question, bool) {
	for _, q := range f.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

type Answer struct {
	QuestionID string      `json:"questionId"`
	Value      AnswerValue `json:"answer"`
}

type Response struct {
	ID          string    `json:"id"`
	FormID      string    `json:"formId"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Answer returns the answer given to the question, if any.
func (r *Response) Answer(questionID string) (AnswerValue, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			return a.Value, true
		}
	}
	return AnswerValue{}, false
}

// SortNewestFirst orders responses by submission time, most recent first.
func SortNewestFirst(rs []Response) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].SubmittedAt.After(rs[j].SubmittedAt) })
}
