package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/TRSiddique/university-association-sub000/model"
)

// Store persists forms, their questions and the responses collected for
// them.
type Store struct {
	*sql.DB
	now   func() time.Time
	newID func() string
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:16] },
	}
}

// CreateForm inserts the form and its questions in one transaction. Ids and
// the creation time are assigned here; any ids already on f are ignored.
func (s *Store) CreateForm(ctx context.Context, f model.Form) (*model.Form, error) {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "db.begin_tx")
	}
	defer tx.Rollback()

	f.ID = s.newID()
	f.CreatedAt = s.now()
	f.IsActive = true
	f.ResponseCount = 0

	_, err = tx.ExecContext(ctx, `
		INSERT INTO form (id, title, description, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Title, f.Description, f.IsActive, f.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.insert_form")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question (id, form_id, text, type, options, required, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, errors.Wrap(err, "db.insert_form.questions.prepare")
	}
	defer stmt.Close()

	questions := make([]model.Question, len(f.Questions))
	for i, q := range f.Questions {
		q.ID = s.newID()
		if !q.Type.HasOptions() || q.Options == nil {
			q.Options = []string{}
		}
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return nil, errors.Wrap(err, "db.insert_form.questions.encode_options")
		}
		_, err = stmt.ExecContext(ctx, q.ID, f.ID, q.Text, string(q.Type), string(opts), q.Required, q.Order)
		if err != nil {
			return nil, errors.Wrap(err, "db.insert_form.questions.insert")
		}
		questions[i] = q
	}
	f.Questions = questions

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "db.insert_form.commit")
	}
	return &f, nil
}

// ListForms returns forms newest first with their questions and response
// counts. With activeOnly, inactive forms are left out.
func (s *Store) ListForms(ctx context.Context, activeOnly bool) ([]model.Form, error) {
	query := `
		SELECT f.id, f.title, f.description, f.is_active, f.created_at,
			(SELECT COUNT(*) FROM response r WHERE r.form_id = f.id)
		FROM form f`
	if activeOnly {
		query += ` WHERE f.is_active`
	}
	query += ` ORDER BY f.created_at DESC, f.id`

	rows, err := s.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "db.list_forms")
	}
	forms := []model.Form{}
	index := map[string]int{}
	for rows.Next() {
		f := model.Form{Questions: []model.Question{}}
		err = rows.Scan(&f.ID, &f.Title, &f.Description, &f.IsActive, &f.CreatedAt, &f.ResponseCount)
		if err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "db.list_forms.scan")
		}
		index[f.ID] = len(forms)
		forms = append(forms, f)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "db.list_forms.rows")
	}
	if len(forms) == 0 {
		return forms, nil
	}

	rows, err = s.QueryContext(ctx, `
		SELECT form_id, id, text, type, options, required, position
		FROM question
		ORDER BY form_id, position, rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "db.list_forms.questions")
	}
	defer rows.Close()
	for rows.Next() {
		var formID string
		q, err := scanQuestion(rows, &formID)
		if err != nil {
			return nil, err
		}
		if i, ok := index[formID]; ok {
			forms[i].Questions = append(forms[i].Questions, q)
		}
	}
	return forms, errors.Wrap(rows.Err(), "db.list_forms.questions.rows")
}

// GetForm returns the form regardless of its active flag, or
// model.ErrNotFound.
func (s *Store) GetForm(ctx context.Context, id string) (*model.Form, error) {
	f := model.Form{Questions: []model.Question{}}
	err := s.QueryRowContext(ctx, `
		SELECT f.id, f.title, f.description, f.is_active, f.created_at,
			(SELECT COUNT(*) FROM response r WHERE r.form_id = f.id)
		FROM form f
		WHERE f.id = ?`,
		id,
	).Scan(&f.ID, &f.Title, &f.Description, &f.IsActive, &f.CreatedAt, &f.ResponseCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "db.get_form")
	}

	rows, err := s.QueryContext(ctx, `
		SELECT form_id, id, text, type, options, required, position
		FROM question
		WHERE form_id = ?
		ORDER BY position, rowid`,
		id,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_form.questions")
	}
	defer rows.Close()
	for rows.Next() {
		var formID string
		q, err := scanQuestion(rows, &formID)
		if err != nil {
			return nil, err
		}
		f.Questions = append(f.Questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "db.get_form.questions.rows")
	}
	return &f, nil
}

func scanQuestion(rows *sql.Rows, formID *string) (model.Question, error) {
	var (
		q    model.Question
		typ  string
		opts string
	)
	if err := rows.Scan(formID, &q.ID, &q.Text, &typ, &opts, &q.Required, &q.Order); err != nil {
		return q, errors.Wrap(err, "db.question.scan")
	}
	q.Type = model.QuestionType(typ)
	q.Options = []string{}
	if opts != "" {
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return q, errors.Wrap(err, "db.question.parse_options")
		}
	}
	return q, nil
}

func (s *Store) SetFormActive(ctx context.Context, id string, active bool) error {
	res, err := s.ExecContext(ctx, `UPDATE form SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return errors.Wrap(err, "db.toggle_form")
	}
	return expectRow(res, "db.toggle_form")
}

// DeleteForm removes the form together with its questions, responses and
// answers.
func (s *Store) DeleteForm(ctx context.Context, id string) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "db.begin_tx")
	}
	defer tx.Rollback()

	steps := []struct{ code, query string }{
		{"db.delete_form.answers", `DELETE FROM answer WHERE response_id IN (SELECT id FROM response WHERE form_id = ?)`},
		{"db.delete_form.responses", `DELETE FROM response WHERE form_id = ?`},
		{"db.delete_form.questions", `DELETE FROM question WHERE form_id = ?`},
	}
	for _, step := range steps {
		if _, err = tx.ExecContext(ctx, step.query, id); err != nil {
			return errors.Wrap(err, step.code)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "db.delete_form")
	}
	if err = expectRow(res, "db.delete_form"); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "db.delete_form.commit")
}

func expectRow(res sql.Result, code string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, code+".verify")
	}
	if n < 1 {
		return model.ErrNotFound
	}
	return nil
}
