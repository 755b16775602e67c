package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FormState controls who may read a form and submit responses to it.
type FormState string

const (
	// FormStatePrivate restricts the form to its owner.
	FormStatePrivate FormState = "Private"
	// FormStatePublic makes the form readable by any authenticated user.
	FormStatePublic FormState = "Public"
	// FormStateAnonymous additionally allows unauthenticated reads.
	FormStateAnonymous FormState = "Anonymous"
)

// QuestionKind is the closed set of question types. Validation dispatches
// exhaustively on it; adding a kind means adding a case to the validator.
type QuestionKind string

const (
	KindTextAnswer     QuestionKind = "TextAnswer"
	KindMultipleChoice QuestionKind = "MultipleChoice"
	KindCheckboxes     QuestionKind = "Checkboxes"
	KindDropdown       QuestionKind = "Dropdown"
	KindDate           QuestionKind = "Date"
	KindTime           QuestionKind = "Time"
)

// Question is one entry in a form's ordered question list. Number is
// 1-based and matches the question's position; answers are matched to
// questions by it.
type Question struct {
	Number  uint         `json:"number"`
	Text    string       `json:"text"`
	Kind    QuestionKind `json:"kind"`
	Options []string     `json:"options,omitempty"`
}

// QuestionList stores the ordered questions as a JSONB document.
type QuestionList []Question

func (q QuestionList) Value() (driver.Value, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q)
}

func (q *QuestionList) Scan(value interface{}) error {
	if value == nil {
		*q = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan QuestionList: %v", value)
	}
	return json.Unmarshal(bytes, q)
}

// Form is a survey definition owned by a single user.
type Form struct {
	ID          string       `json:"id" gorm:"primaryKey;size:32"`
	Owner       string       `json:"owner" gorm:"size:32;not null;index"`
	Title       string       `json:"title" gorm:"size:256;not null"`
	Description string       `json:"description" gorm:"type:text"`
	State       FormState    `json:"state" gorm:"size:16;not null;default:'Private'"`
	Questions   QuestionList `json:"questions" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Form) TableName() string {
	return "forms"
}

// ReadableBy reports whether the given user (empty for unauthenticated)
// may read the form definition.
func (f *Form) ReadableBy(userID string) bool {
	switch f.State {
	case FormStateAnonymous:
		return true
	case FormStatePublic:
		return userID != ""
	default:
		return userID != "" && userID == f.Owner
	}
}
