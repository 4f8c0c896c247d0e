// Package builder assembles a form locally and creates it in one call.
//
// Questions being edited are addressed by DraftID, a counter local to the
// Builder. Draft ids are never sent to the server and never reused; the ids
// the server assigns on Save are the only persistent ones.
package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/model"
)

var (
	ErrNotChoice   = errors.New("question type has no options")
	ErrOptionIndex = errors.New("option index out of range")
)

type DraftID int

// Draft is a question under construction.
type Draft struct {
	ID       DraftID
	Text     string
	Type     model.QuestionType
	Options  []string
	Required bool
	Order    int
}

// Creator persists a complete form and returns it with server ids.
type Creator interface {
	CreateForm(ctx context.Context, f model.Form) (*model.Form, error)
}

type Builder struct {
	mu          sync.Mutex
	title       string
	description string
	drafts      []Draft
	nextID      DraftID
	saving      bool
}

func New() *Builder {
	return &Builder{nextID: 1}
}

func (b *Builder) SetTitle(title string) {
	b.mu.Lock()
	b.title = title
	b.mu.Unlock()
}

func (b *Builder) SetDescription(description string) {
	b.mu.Lock()
	b.description = description
	b.mu.Unlock()
}

// AddQuestion appends a required=false short_text question with no options,
// placed after the existing ones. Its order equals the number of questions
// until one is deleted, and stays past the highest order after that.
func (b *Builder) AddQuestion() DraftID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.drafts = append(b.drafts, Draft{
		ID:      id,
		Type:    model.ShortText,
		Options: []string{},
		Order:   b.nextOrder(),
	})
	return id
}

func (b *Builder) nextOrder() int {
	order := len(b.drafts)
	for _, d := range b.drafts {
		order = max(order, d.Order+1)
	}
	return order
}

// Questions returns a copy of the drafts in the sequence they were added.
func (b *Builder) Questions() []Draft {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Draft, len(b.drafts))
	for i, d := range b.drafts {
		out[i] = d
		out[i].Options = append([]string{}, d.Options...)
	}
	return out
}

func (b *Builder) Question(id DraftID) (Draft, bool) {
	for _, d := range b.Questions() {
		if d.ID == id {
			return d, true
		}
	}
	return Draft{}, false
}

func (b *Builder) SetText(id DraftID, text string) error {
	return b.edit(id, func(d *Draft) error {
		d.Text = text
		return nil
	})
}

// SetType changes the question type. Options are kept when switching to a
// type without options so switching back restores them; they are not saved
// for such types.
func (b *Builder) SetType(id DraftID, t model.QuestionType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownQuestion, t)
	}
	return b.edit(id, func(d *Draft) error {
		d.Type = t
		return nil
	})
}

func (b *Builder) SetRequired(id DraftID, required bool) error {
	return b.edit(id, func(d *Draft) error {
		d.Required = required
		return nil
	})
}

func (b *Builder) SetOrder(id DraftID, order int) error {
	return b.edit(id, func(d *Draft) error {
		d.Order = order
		return nil
	})
}

// DeleteQuestion removes a question. Remaining questions keep their order
// values, gaps included.
func (b *Builder) DeleteQuestion(id DraftID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.drafts {
		if b.drafts[i].ID == id {
			b.drafts = append(b.drafts[:i], b.drafts[i+1:]...)
			return nil
		}
	}
	return notFound(id)
}

func (b *Builder) AddOption(id DraftID, option string) error {
	return b.editOptions(id, func(opts []string) ([]string, error) {
		return append(opts, option), nil
	})
}

func (b *Builder) EditOption(id DraftID, index int, option string) error {
	return b.editOptions(id, func(opts []string) ([]string, error) {
		if index < 0 || index >= len(opts) {
			return nil, ErrOptionIndex
		}
		opts[index] = option
		return opts, nil
	})
}

// RemoveOption deletes the option at index; later options shift down by one.
func (b *Builder) RemoveOption(id DraftID, index int) error {
	return b.editOptions(id, func(opts []string) ([]string, error) {
		if index < 0 || index >= len(opts) {
			return nil, ErrOptionIndex
		}
		return append(opts[:index], opts[index+1:]...), nil
	})
}

// Form is the create payload for the current state.
func (b *Builder) Form() model.Form {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.form()
}

// Save creates the form in a single call. Without canManage nothing is sent.
// On failure the builder is left as it was so the call can be retried; on
// success it is cleared for the next form and the created form is returned.
func (b *Builder) Save(ctx context.Context, creator Creator, canManage bool) (*model.Form, error) {
	if !canManage {
		return nil, model.ErrForbidden
	}

	b.mu.Lock()
	if b.saving {
		b.mu.Unlock()
		return nil, model.ErrSubmitInProgress
	}
	b.saving = true
	payload := b.form()
	b.mu.Unlock()

	created, err := creator.CreateForm(ctx, payload)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.saving = false
	if err != nil {
		log.Debugf("builder.save: %s", err)
		return nil, err
	}
	b.title, b.description, b.drafts = "", "", nil
	return created, nil
}

func (b *Builder) form() model.Form {
	questions := make([]model.Question, 0, len(b.drafts))
	for _, d := range b.drafts {
		opts := []string{}
		if d.Type.HasOptions() {
			opts = append(opts, d.Options...)
		}
		questions = append(questions, model.Question{
			Text:     d.Text,
			Type:     d.Type,
			Options:  opts,
			Required: d.Required,
			Order:    d.Order,
		})
	}
	return model.Form{
		Title:       b.title,
		Description: b.description,
		Questions:   questions,
	}
}

func (b *Builder) edit(id DraftID, fn func(*Draft) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.drafts {
		if b.drafts[i].ID == id {
			return fn(&b.drafts[i])
		}
	}
	return notFound(id)
}

func (b *Builder) editOptions(id DraftID, fn func([]string) ([]string, error)) error {
	return b.edit(id, func(d *Draft) error {
		if !d.Type.HasOptions() {
			return fmt.Errorf("question %d (%s): %w", d.ID, d.Type, ErrNotChoice)
		}
		opts, err := fn(append([]string{}, d.Options...))
		if err != nil {
			return err
		}
		d.Options = opts
		return nil
	})
}

func notFound(id DraftID) error {
	return fmt.Errorf("draft question %d: %w", id, model.ErrNotFound)
}
