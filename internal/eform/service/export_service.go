package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sirreidlos/e-form/internal/eform/entity"
	"github.com/sirreidlos/e-form/internal/eform/repository"
)

// ExportService renders a form's responses as an xlsx workbook.
type ExportService struct {
	forms     repository.FormStore
	responses repository.ResponseStore
}

// NewExportService creates the export service.
func NewExportService(forms repository.FormStore, responses repository.ResponseStore) *ExportService {
	return &ExportService{forms: forms, responses: responses}
}

// Export builds the workbook for the form owner: one column per
// question, one row per response.
func (s *ExportService) Export(ctx context.Context, formID, requester string) (*excelize.File, string, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, "", err
	}
	if form.Owner != requester {
		return nil, "", ErrForbidden
	}

	responses, err := s.responses.ListByForm(ctx, formID)
	if err != nil {
		return nil, "", fmt.Errorf("list responses: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Responses"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})

	headers := []string{"Response ID", "Responder", "Submitted At"}
	for _, question := range form.Questions {
		headers = append(headers, fmt.Sprintf("%d. %s", question.Number, question.Text))
	}
	for i, header := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s1", col)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, response := range responses {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), response.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), response.Responder)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), response.CreatedAt.Format("2006-01-02 15:04:05"))

		byNumber := make(map[uint]entity.Answer, len(response.Answers))
		for _, answer := range response.Answers {
			byNumber[answer.Number] = answer
		}
		for qIdx, question := range form.Questions {
			col, _ := excelize.ColumnNumberToName(qIdx + 4)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), answerCell(byNumber[question.Number]))
		}
	}

	filename := fmt.Sprintf("%s-responses.xlsx", sanitizeFilename(form.Title))
	return f, filename, nil
}

func answerCell(answer entity.Answer) string {
	if len(answer.SelectedOptions) > 0 {
		return strings.Join(answer.SelectedOptions, ", ")
	}
	if answer.Input != nil {
		return *answer.Input
	}
	return ""
}

func sanitizeFilename(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "form"
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "-", "<", "-", ">", "-", "|", "-")
	return replacer.Replace(title)
}
