package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/TRSiddique/university-association-sub000/model"
)

// InsertResponse stores one submission. Responses are append-only; the
// submission time is taken here.
func (s *Store) InsertResponse(ctx context.Context, formID string, answers []model.Answer) (*model.Response, error) {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "db.begin_tx")
	}
	defer tx.Rollback()

	resp := &model.Response{
		ID:          s.newID(),
		FormID:      formID,
		Answers:     answers,
		SubmittedAt: s.now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO response (id, form_id, submitted_at) VALUES (?, ?, ?)`,
		resp.ID, resp.FormID, resp.SubmittedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.insert_response")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO answer (response_id, question_id, value) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, errors.Wrap(err, "db.insert_response.answers.prepare")
	}
	defer stmt.Close()

	for _, a := range answers {
		value, err := json.Marshal(a.Value)
		if err != nil {
			return nil, errors.Wrap(err, "db.insert_response.answers.encode")
		}
		if _, err = stmt.ExecContext(ctx, resp.ID, a.QuestionID, string(value)); err != nil {
			return nil, errors.Wrap(err, "db.insert_response.answers.insert")
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "db.insert_response.commit")
	}
	return resp, nil
}

// ListResponses returns the form's responses, most recent first. A missing
// form yields model.ErrNotFound.
func (s *Store) ListResponses(ctx context.Context, formID string) ([]model.Response, error) {
	var exists bool
	err := s.QueryRowContext(ctx, `SELECT 1 FROM form WHERE id = ?`, formID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "db.get_responses.form")
	}

	rows, err := s.QueryContext(ctx, `
		SELECT r.id, r.submitted_at, a.question_id, a.value
		FROM response r
		LEFT OUTER JOIN answer a ON (a.response_id = r.id)
		WHERE r.form_id = ?
		ORDER BY r.submitted_at DESC, r.id, a.rowid`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_responses")
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var (
			r          model.Response
			questionID sql.NullString
			value      sql.NullString
		)
		if err = rows.Scan(&r.ID, &r.SubmittedAt, &questionID, &value); err != nil {
			return nil, errors.Wrap(err, "db.get_responses.scan")
		}

		last := len(responses) - 1
		if last < 0 || responses[last].ID != r.ID {
			r.FormID = formID
			r.Answers = []model.Answer{}
			responses = append(responses, r)
			last++
		}
		if !questionID.Valid {
			continue
		}

		a := model.Answer{QuestionID: questionID.String}
		if err = json.Unmarshal([]byte(value.String), &a.Value); err != nil {
			return nil, errors.Wrap(err, "db.get_responses.parse_value")
		}
		responses[last].Answers = append(responses[last].Answers, a)
	}
	return responses, errors.Wrap(rows.Err(), "db.get_responses.rows")
}
