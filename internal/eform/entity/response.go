package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Answer is one respondent value for one question. Input carries free
// text, a single choice, a yyyy/mm/dd date or an hh:mm time depending on
// the question kind; SelectedOptions is used by Checkboxes questions only.
type Answer struct {
	Number          uint     `json:"number"`
	Input           *string  `json:"input,omitempty"`
	SelectedOptions []string `json:"selected_options,omitempty"`
}

// AnswerList stores the ordered answers as a JSONB document.
type AnswerList []Answer

func (a AnswerList) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *AnswerList) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan AnswerList: %v", value)
	}
	return json.Unmarshal(bytes, a)
}

// Response is one responder's complete set of answers to a form. Created
// once per submission and never updated; the form owner may delete it.
type Response struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	Responder string     `json:"responder" gorm:"size:32;not null"`
	FormID    string     `json:"form" gorm:"size:32;not null;index"`
	Answers   AnswerList `json:"answers" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Response) TableName() string {
	return "responses"
}
