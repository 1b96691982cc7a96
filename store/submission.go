package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"

	"github.com/avollaro/formsmith/model"
)

// Guard names the one-response-per-respondent policy applied on insert.
type Guard int

const (
	GuardNone Guard = iota
	GuardByIP
	GuardByEmail
)

type SubmissionStore struct {
	db *sql.DB
}

func NewSubmissionStore(db *sql.DB) *SubmissionStore {
	return &SubmissionStore{db}
}

// Create persists a submission. With a guard, the duplicate check and the
// insert are a single conditional INSERT so two concurrent submissions from
// the same respondent cannot both get through.
func (s *SubmissionStore) Create(ctx context.Context, sub *model.Submission, guard Guard) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	sub.ID = id.String()
	sub.CreatedAt = time.Now().UTC()

	if sub.Answers == nil {
		sub.Answers = map[string]any{}
	}
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}

	var cond string
	var condArg any
	switch guard {
	case GuardByIP:
		cond, condArg = "ip_address = ?", sub.IPAddress
	case GuardByEmail:
		cond, condArg = "email = ?", sub.Email
	default:
		cond, condArg = "1 = 0", nil
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO submission (id, form_id, ip_address, name, email, answers, created_at)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM submission
			WHERE form_id = ? AND `+cond+`
		)`,
		sub.ID, sub.FormID, sub.IPAddress, sub.Name, sub.Email, string(answers), sub.CreatedAt,
		sub.FormID, condArg,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		switch guard {
		case GuardByIP:
			return ErrDuplicateByIP
		case GuardByEmail:
			return ErrDuplicateByEmail
		}
	}
	return nil
}

// ListByForm returns a form's submissions newest first.
func (s *SubmissionStore) ListByForm(ctx context.Context, formID string) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, form_id, ip_address, name, email, answers, created_at
		FROM submission
		WHERE form_id = ?
		ORDER BY created_at DESC, rowid DESC`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		sub := model.Submission{}
		var answers string
		err = rows.Scan(&sub.ID, &sub.FormID, &sub.IPAddress, &sub.Name, &sub.Email, &answers, &sub.CreatedAt)
		if err != nil {
			return nil, err
		}

		err = json.Unmarshal([]byte(answers), &sub.Answers)
		if err != nil {
			return nil, err
		}

		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CountsByForm maps each form id to its submission count.
func (s *SubmissionStore) CountsByForm(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT form_id, COUNT(*)
		FROM submission
		GROUP BY form_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var formID string
		var n int
		err = rows.Scan(&formID, &n)
		if err != nil {
			return nil, err
		}
		counts[formID] = n
	}
	return counts, rows.Err()
}
