package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/avollaro/formsmith/model"
)

type FormStore struct {
	db *sql.DB
}

func NewFormStore(db *sql.DB) *FormStore {
	return &FormStore{db}
}

const formColumns = `
	id, title, description, slug,
	is_published, is_active, limit_one_response, collect_emails,
	is_anonymous, is_favorite,
	questions, created_at, updated_at`

// Create persists a new form. The id and timestamps are assigned here; a
// slug collision yields ErrSlugTaken.
func (s *FormStore) Create(ctx context.Context, form *model.Form) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	form.ID = id.String()

	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now

	questions, err := json.Marshal(form.Questions)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO form (`+formColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		form.ID, form.Title, form.Description, form.Slug,
		form.IsPublished, form.IsActive, form.LimitOneResponse, form.CollectEmails,
		form.IsAnonymous, form.IsFavorite,
		string(questions), form.CreatedAt, form.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	return err
}

// List returns all forms newest first, each with the number of submissions
// currently referencing it.
func (s *FormStore) List(ctx context.Context) ([]model.FormWithCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+formColumns+`,
			(SELECT COUNT(*) FROM submission sub WHERE sub.form_id = form.id)
		FROM form
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forms := []model.FormWithCount{}
	for rows.Next() {
		f := model.FormWithCount{}
		var questions string
		err = rows.Scan(
			&f.ID, &f.Title, &f.Description, &f.Slug,
			&f.IsPublished, &f.IsActive, &f.LimitOneResponse, &f.CollectEmails,
			&f.IsAnonymous, &f.IsFavorite,
			&questions, &f.CreatedAt, &f.UpdatedAt,
			&f.ResponseCount,
		)
		if err != nil {
			return nil, err
		}

		err = json.Unmarshal([]byte(questions), &f.Questions)
		if err != nil {
			return nil, err
		}

		forms = append(forms, f)
	}
	return forms, rows.Err()
}

func (s *FormStore) GetByID(ctx context.Context, id string) (*model.Form, error) {
	return s.getWhere(ctx, "id = ?", id)
}

// GetBySlug resolves a form by slug regardless of its publication state.
// Submission intake uses this: an inactive form must answer "inactive" even
// when it was never published.
func (s *FormStore) GetBySlug(ctx context.Context, slug string) (*model.Form, error) {
	return s.getWhere(ctx, "slug = ?", slug)
}

// GetPublishedBySlug is the public read. An absent or unpublished form is
// ErrNotFound; a published but deactivated one is ErrInactive.
func (s *FormStore) GetPublishedBySlug(ctx context.Context, slug string) (*model.Form, error) {
	form, err := s.getWhere(ctx, "slug = ?", slug)
	if err != nil {
		return nil, err
	}
	if !form.IsPublished {
		return nil, ErrNotFound
	}
	if !form.IsActive {
		return nil, ErrInactive
	}
	return form, nil
}

func (s *FormStore) getWhere(ctx context.Context, cond string, arg any) (*model.Form, error) {
	f := model.Form{}
	var questions string
	err := s.db.QueryRowContext(ctx, `
		SELECT `+formColumns+`
		FROM form
		WHERE `+cond,
		arg,
	).Scan(
		&f.ID, &f.Title, &f.Description, &f.Slug,
		&f.IsPublished, &f.IsActive, &f.LimitOneResponse, &f.CollectEmails,
		&f.IsAnonymous, &f.IsFavorite,
		&questions, &f.CreatedAt, &f.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal([]byte(questions), &f.Questions)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Update applies a partial merge: only fields present in the patch change.
func (s *FormStore) Update(ctx context.Context, id string, patch model.FormPatch) (*model.Form, error) {
	form, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(form)
	form.UpdatedAt = time.Now().UTC()

	questions, err := json.Marshal(form.Questions)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE form
		SET title = ?, description = ?, slug = ?,
			is_published = ?, is_active = ?, limit_one_response = ?, collect_emails = ?,
			is_anonymous = ?, is_favorite = ?,
			questions = ?, updated_at = ?
		WHERE id = ?`,
		form.Title, form.Description, form.Slug,
		form.IsPublished, form.IsActive, form.LimitOneResponse, form.CollectEmails,
		form.IsAnonymous, form.IsFavorite,
		string(questions), form.UpdatedAt,
		id,
	)
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, err
	}
	return form, nil
}

// Delete removes a form and its submissions in one transaction.
func (s *FormStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM submission WHERE form_id = ?`, id)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrNotFound
	}

	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
