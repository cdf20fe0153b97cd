package services

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/services/pdfco"
)

// worksheetRenderTimeout bounds the background PDF generation for one sheet
const worksheetRenderTimeout = 5 * time.Minute

// WorksheetService composes printable problem sheets and renders them to PDF
// through the conversion API.
type WorksheetService struct {
	db  *gorm.DB
	pdf *pdfco.Client
}

// NewWorksheetService creates a worksheet service
func NewWorksheetService(db *gorm.DB, pdf *pdfco.Client) *WorksheetService {
	return &WorksheetService{db: db, pdf: pdf}
}

// CreateWorksheet records the sheet and kicks off background rendering
func (w *WorksheetService) CreateWorksheet(ctx context.Context, academyID, createdBy uint, title, subject string, problemIDs []uint, withAnswer bool) (*model.Worksheet, error) {
	if w.pdf == nil {
		return nil, fmt.Errorf("no PDF generation service configured")
	}
	if len(problemIDs) == 0 {
		return nil, fmt.Errorf("worksheet needs at least one problem")
	}

	var problems []model.Problem
	err := w.db.WithContext(ctx).
		Where("id IN ? AND academy_id = ?", problemIDs, academyID).
		Find(&problems).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch problems: %w", err)
	}
	if len(problems) != len(problemIDs) {
		return nil, fmt.Errorf("worksheet references %d problems but only %d exist in this academy", len(problemIDs), len(problems))
	}

	// Preserve the requested problem order
	byID := make(map[uint]model.Problem, len(problems))
	for _, p := range problems {
		byID[p.ID] = p
	}
	ordered := make([]model.Problem, 0, len(problemIDs))
	for _, id := range problemIDs {
		ordered = append(ordered, byID[id])
	}

	encodedIDs, err := json.Marshal(problemIDs)
	if err != nil {
		return nil, err
	}

	worksheet := &model.Worksheet{
		AcademyID:  academyID,
		CreatedBy:  createdBy,
		Title:      title,
		Subject:    subject,
		ProblemIDs: datatypes.JSON(encodedIDs),
		WithAnswer: withAnswer,
		Status:     model.WorksheetPending,
	}
	if err := w.db.WithContext(ctx).Create(worksheet).Error; err != nil {
		return nil, fmt.Errorf("failed to create worksheet: %w", err)
	}

	go w.render(worksheet.ID, title, ordered, withAnswer)

	return worksheet, nil
}

// GetWorksheet loads a worksheet scoped to the academy
func (w *WorksheetService) GetWorksheet(ctx context.Context, academyID, worksheetID uint) (*model.Worksheet, error) {
	var worksheet model.Worksheet
	err := w.db.WithContext(ctx).
		Where("id = ? AND academy_id = ?", worksheetID, academyID).
		First(&worksheet).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch worksheet %d: %w", worksheetID, err)
	}
	return &worksheet, nil
}

// render generates the PDF in the background and stores the result URL
func (w *WorksheetService) render(worksheetID uint, title string, problems []model.Problem, withAnswer bool) {
	ctx, cancel := context.WithTimeout(context.Background(), worksheetRenderTimeout)
	defer cancel()

	htmlBody := buildWorksheetHTML(title, problems, withAnswer)
	url, err := w.pdf.GeneratePDF(ctx, htmlBody, fmt.Sprintf("worksheet-%d.pdf", worksheetID))

	update := map[string]interface{}{}
	if err != nil {
		update["status"] = model.WorksheetFailed
		update["error"] = err.Error()
		log.Printf("WorksheetService: rendering worksheet %d failed: %v", worksheetID, err)
	} else {
		update["status"] = model.WorksheetCompleted
		update["file_url"] = url
		update["error"] = ""
		log.Printf("WorksheetService: worksheet %d rendered", worksheetID)
	}

	if err := w.db.WithContext(ctx).Model(&model.Worksheet{}).Where("id = ?", worksheetID).Updates(update).Error; err != nil {
		log.Printf("WorksheetService: failed to update worksheet %d: %v", worksheetID, err)
	}
}

// buildWorksheetHTML lays out problems for print, with an optional answer
// key on a separate page.
func buildWorksheetHTML(title string, problems []model.Problem, withAnswer bool) string {
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html><html lang="ko"><head><meta charset="utf-8"><style>`)
	sb.WriteString(`body{font-family:'Malgun Gothic',sans-serif;margin:40px}`)
	sb.WriteString(`h1{font-size:20px;border-bottom:2px solid #333;padding-bottom:8px}`)
	sb.WriteString(`.problem{margin:24px 0;page-break-inside:avoid}`)
	sb.WriteString(`.num{font-weight:bold;margin-right:8px}`)
	sb.WriteString(`.meta{color:#888;font-size:11px;margin-left:8px}`)
	sb.WriteString(`.answers{page-break-before:always}`)
	sb.WriteString(`</style></head><body>`)
	sb.WriteString("<h1>" + html.EscapeString(title) + "</h1>")

	for i, p := range problems {
		sb.WriteString(`<div class="problem">`)
		sb.WriteString(fmt.Sprintf(`<span class="num">%d.</span>`, i+1))
		sb.WriteString(html.EscapeString(p.Content))
		sb.WriteString(fmt.Sprintf(`<span class="meta">[%s · %s]</span>`, html.EscapeString(p.Unit), p.Difficulty))
		sb.WriteString(`</div>`)
	}

	if withAnswer {
		sb.WriteString(`<div class="answers"><h1>정답 및 해설</h1>`)
		for i, p := range problems {
			sb.WriteString(`<div class="problem">`)
			sb.WriteString(fmt.Sprintf(`<span class="num">%d.</span>`, i+1))
			sb.WriteString("<b>" + html.EscapeString(p.Answer) + "</b>")
			if p.Explanation != "" {
				sb.WriteString("<br>" + html.EscapeString(p.Explanation))
			}
			sb.WriteString(`</div>`)
		}
		sb.WriteString(`</div>`)
	}

	sb.WriteString(`</body></html>`)
	return sb.String()
}
