package model

import "github.com/TRSiddique/university-association-sub000/log"

// ValidateAnswers checks that every required question of the form has a
// non-empty answer. Missing, blank and empty-set answers all count as
// missing. Questions of an unknown type are never shown to the respondent,
// so they are not checked either. It returns nil or a *ValidationError
// keyed by question id.
func ValidateAnswers(form *Form, answers map[string]AnswerValue) error {
	fields := map[string]string{}
	for _, q := range form.Questions {
		if !q.Required {
			continue
		}
		if !q.Type.Valid() {
			log.Warnf("validate: form %s skips required question %s of unknown type %q", form.ID, q.ID, q.Type)
			continue
		}
		v, ok := answers[q.ID]
		if !ok || v.IsEmpty() {
			fields[q.ID] = ErrRequiredAnswer.Error()
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// AnswerMap indexes a list of answers by question id, rejecting duplicates.
func AnswerMap(answers []Answer) (map[string]AnswerValue, error) {
	out := make(map[string]AnswerValue, len(answers))
	for _, a := range answers {
		if _, dup := out[a.QuestionID]; dup {
			return nil, ErrDuplicateQuestion
		}
		out[a.QuestionID] = a.Value
	}
	return out, nil
}
