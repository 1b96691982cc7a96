package model

import (
	"strconv"
	"strings"
	"time"
)

// Question types supported by the form builder. A section is a visual
// divider and never carries an answer of its own.
const (
	TypeText     = "text"
	TypeTextarea = "textarea"
	TypeSelect   = "select"
	TypeCheckbox = "checkbox"
	TypeRadio    = "radio"
	TypeDate     = "date"
	TypeEmail    = "email"
	TypeNumber   = "number"
	TypeRating   = "rating"
	TypeFile     = "file"
	TypeSection  = "section"
)

type Form struct {
	ID               string     `json:"id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Slug             string     `json:"slug"`
	IsPublished      bool       `json:"isPublished"`
	IsActive         bool       `json:"isActive"`
	LimitOneResponse bool       `json:"limitOneResponse"`
	CollectEmails    bool       `json:"collectEmails"`
	IsAnonymous      bool       `json:"isAnonymous"`
	IsFavorite       bool       `json:"isFavorite"`
	Questions        []Question `json:"questions"`
	CreatedAt        time.Time  `json:"createdAt,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt,omitempty"`
}

type Question struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
	Order       int      `json:"order"`
}

func (q Question) IsSection() bool {
	return q.Type == TypeSection
}

// HasOptions reports whether the question type carries a fixed option list.
func (q Question) HasOptions() bool {
	switch q.Type {
	case TypeSelect, TypeCheckbox, TypeRadio:
		return true
	}
	return false
}

// FormWithCount is a form annotated with its current number of submissions,
// computed at read time by the store.
type FormWithCount struct {
	Form
	ResponseCount int `json:"responseCount"`
}

// FormPatch carries a partial form update: only non-nil fields are applied.
type FormPatch struct {
	Title            *string     `json:"title"`
	Description      *string     `json:"description"`
	Slug             *string     `json:"slug"`
	IsPublished      *bool       `json:"isPublished"`
	IsActive         *bool       `json:"isActive"`
	LimitOneResponse *bool       `json:"limitOneResponse"`
	CollectEmails    *bool       `json:"collectEmails"`
	IsAnonymous      *bool       `json:"isAnonymous"`
	IsFavorite       *bool       `json:"isFavorite"`
	Questions        *[]Question `json:"questions"`
}

// Apply merges the patch into the form.
func (p FormPatch) Apply(f *Form) {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Slug != nil {
		f.Slug = *p.Slug
	}
	if p.IsPublished != nil {
		f.IsPublished = *p.IsPublished
	}
	if p.IsActive != nil {
		f.IsActive = *p.IsActive
	}
	if p.LimitOneResponse != nil {
		f.LimitOneResponse = *p.LimitOneResponse
	}
	if p.CollectEmails != nil {
		f.CollectEmails = *p.CollectEmails
	}
	if p.IsAnonymous != nil {
		f.IsAnonymous = *p.IsAnonymous
	}
	if p.IsFavorite != nil {
		f.IsFavorite = *p.IsFavorite
	}
	if p.Questions != nil {
		f.Questions = *p.Questions
	}
}

// Submission holds one respondent's answers. The answer map is keyed by
// question id; values are scalar strings, numbers, string lists for checkbox
// questions, or stored file paths. Unknown keys pass through untouched.
type Submission struct {
	ID        string         `json:"id,omitempty"`
	FormID    string         `json:"formId"`
	IPAddress string         `json:"ipAddress,omitempty"`
	Name      string         `json:"name,omitempty"`
	Email     string         `json:"email,omitempty"`
	Answers   map[string]any `json:"answers"`
	CreatedAt time.Time      `json:"createdAt,omitempty"`
}

// AnswerPresent reports whether a decoded answer value counts as given.
// Nil and the empty string do not; anything else does, including an empty
// option list.
func AnswerPresent(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// AnswerString renders a scalar answer the way it appears in reports.
func AnswerString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// AnswerList returns the answer as a list of option strings, reporting
// whether the underlying value was a list at all.
func AnswerList(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		opts := make([]string, 0, len(x))
		for _, o := range x {
			if s, ok := o.(string); ok {
				opts = append(opts, s)
			} else {
				opts = append(opts, AnswerString(o))
			}
		}
		return opts, true
	}
	return nil, false
}

// AnswerRating parses a rating answer. JSON numbers arrive as float64 and
// are truncated; numeric strings are accepted too. The ok result only means
// the value was numeric, not that it falls in the 1-5 range.
func AnswerRating(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
