// Package renderer turns forms into input widgets and drives one
// respondent's session from loading the form to a submitted response.
package renderer

import (
	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/model"
)

// WidgetKind is the input control used for a question.
type WidgetKind int

const (
	TextInput WidgetKind = iota
	TextArea
	RadioGroup
	CheckboxGroup
	SelectList
)

// Widget describes how a question is rendered and how its value is shaped.
type Widget struct {
	Kind WidgetKind
	// InputType is the HTML input type for TextInput widgets.
	InputType string
	// Multi widgets produce a set of strings; the others a single string.
	Multi bool
}

func (w Widget) IsTextInput() bool     { return w.Kind == TextInput }
func (w Widget) IsTextArea() bool      { return w.Kind == TextArea }
func (w Widget) IsRadioGroup() bool    { return w.Kind == RadioGroup }
func (w Widget) IsCheckboxGroup() bool { return w.Kind == CheckboxGroup }
func (w Widget) IsSelectList() bool    { return w.Kind == SelectList }

// WidgetFor maps a question type to its widget. The switch must cover every
// model.QuestionTypes entry; TestEveryQuestionTypeHasWidget enforces it.
func WidgetFor(t model.QuestionType) (Widget, bool) {
	switch t {
	case model.ShortText:
		return Widget{Kind: TextInput, InputType: "text"}, true
	case model.Email:
		return Widget{Kind: TextInput, InputType: "email"}, true
	case model.Number:
		// kept as a string so leading zeros survive
		return Widget{Kind: TextInput, InputType: "number"}, true
	case model.Date:
		return Widget{Kind: TextInput, InputType: "date"}, true
	case model.LongText:
		return Widget{Kind: TextArea}, true
	case model.SingleChoice:
		return Widget{Kind: RadioGroup}, true
	case model.Dropdown:
		return Widget{Kind: SelectList}, true
	case model.MultiChoice:
		return Widget{Kind: CheckboxGroup, Multi: true}, true
	}
	return Widget{}, false
}

// Field is one renderable question with its current value and error.
type Field struct {
	model.Question
	Widget Widget
	Value  model.AnswerValue
	Error  string
}

// Fields returns the renderable fields of form in ascending order. Questions
// with an unknown type are skipped with a warning so one malformed question
// cannot break the whole form.
func Fields(form *model.Form, answers map[string]model.AnswerValue, errs map[string]string) []Field {
	questions := form.OrderedQuestions()
	out := make([]Field, 0, len(questions))
	for _, q := range questions {
		w, ok := WidgetFor(q.Type)
		if !ok {
			log.Warnf("renderer: form %s question %s has unknown type %q", form.ID, q.ID, q.Type)
			continue
		}
		v, ok := answers[q.ID]
		if !ok && w.Multi {
			v = model.Set()
		}
		out = append(out, Field{Question: q, Widget: w, Value: v, Error: errs[q.ID]})
	}
	return out
}
