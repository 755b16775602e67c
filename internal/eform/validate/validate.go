// Package validate checks a submitted answer list against a form's
// question definitions. Validation is a pure function: it fails fast on
// the first violation and names the offending answer number.
package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirreidlos/e-form/internal/eform/entity"
)

// ErrTooFewAnswers is returned when the form has more questions than the
// submission has answers. It is a whole-request failure rather than a
// per-answer one.
var ErrTooFewAnswers = errors.New("form has more questions than answers provided")

// AnswerError is a structural violation in a single answer.
type AnswerError struct {
	Number uint
	Reason string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("answer number %d %s", e.Number, e.Reason)
}

// Answers validates answers against questions in ordinal order. The i-th
// answer must carry the i-th question's number and satisfy the rule for
// that question's kind. Extra answers beyond the question list are
// ignored.
func Answers(questions []entity.Question, answers []entity.Answer) error {
	for i, question := range questions {
		if i >= len(answers) {
			return ErrTooFewAnswers
		}

		answer := answers[i]

		if answer.Number != question.Number {
			return &AnswerError{
				Number: answer.Number,
				Reason: fmt.Sprintf("does not match question number %d", question.Number),
			}
		}

		switch question.Kind {
		case entity.KindCheckboxes:
			if err := checkSelection(question, answer); err != nil {
				return err
			}
		case entity.KindDate:
			if answer.Input == nil {
				return missingInput(answer)
			}
			if reason := checkDate(*answer.Input); reason != "" {
				return &AnswerError{Number: answer.Number, Reason: reason}
			}
		case entity.KindTime:
			if answer.Input == nil {
				return missingInput(answer)
			}
			if reason := checkTime(*answer.Input); reason != "" {
				return &AnswerError{Number: answer.Number, Reason: reason}
			}
		default:
			// TextAnswer, MultipleChoice, Dropdown: a declared option set
			// makes the input mandatory and restricts it to the set. With
			// no option set any input is accepted, including none.
			if len(question.Options) == 0 {
				continue
			}
			if answer.Input == nil {
				return missingInput(answer)
			}
			if !contains(question.Options, *answer.Input) {
				return notInOptions(answer, *answer.Input, question.Options)
			}
		}
	}

	return nil
}

// checkSelection enforces the Checkboxes rule: every selected value must
// be a member of the question's option set. Duplicate selections are not
// rejected.
func checkSelection(question entity.Question, answer entity.Answer) error {
	if len(question.Options) == 0 {
		return nil
	}
	if answer.SelectedOptions == nil {
		return missingInput(answer)
	}
	for _, selected := range answer.SelectedOptions {
		if !contains(question.Options, selected) {
			return notInOptions(answer, selected, question.Options)
		}
	}
	return nil
}

// checkDate accepts yyyy/mm/dd with a non-negative year, month 1-12 and
// day 1-31. No calendar-validity check is performed: 2024/02/30 passes.
func checkDate(input string) string {
	parts := strings.Split(input, "/")
	if len(parts) != 3 {
		return fmt.Sprintf("input '%s' expected yyyy/mm/dd", input)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 0 {
		return fmt.Sprintf("input '%s' yyyy accepts a non-negative year", input)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return fmt.Sprintf("input '%s' mm accepts 01-12", input)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return fmt.Sprintf("input '%s' dd accepts 01-31", input)
	}

	return ""
}

// checkTime accepts hh:mm with hour 0-23 and minute 0-59.
func checkTime(input string) string {
	parts := strings.Split(input, ":")
	if len(parts) != 2 {
		return fmt.Sprintf("input '%s' expected hh:mm", input)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Sprintf("input '%s' hh accepts 00-23", input)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Sprintf("input '%s' mm accepts 00-59", input)
	}

	return ""
}

func missingInput(answer entity.Answer) error {
	return &AnswerError{Number: answer.Number, Reason: "is missing input"}
}

func notInOptions(answer entity.Answer, value string, options []string) error {
	return &AnswerError{
		Number: answer.Number,
		Reason: fmt.Sprintf("input '%s' is not in options %v", value, options),
	}
}

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
