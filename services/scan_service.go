package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/services/pdfco"
	"github.com/hakwonplus/hakwon-api/services/storage"
	"github.com/hakwonplus/hakwon-api/utils"
	"github.com/hakwonplus/hakwon-api/utils/pdfcheck"
)

// scanProcessTimeout bounds the whole background pipeline for one scan job
const scanProcessTimeout = 10 * time.Minute

// ScanService turns uploaded worksheet PDFs into reviewable problem drafts.
// The upload is validated synchronously; OCR and AI structuring run in the
// background while the client polls the job by key.
type ScanService struct {
	db       *gorm.DB
	spaces   *storage.SpacesClient
	pdf      *pdfco.Client
	generate GenerateTextFunc
}

// NewScanService creates a scan service. spaces and pdf may be nil when the
// deployment has no object store or OCR configured; jobs that need them fail
// with a clear error instead of hanging.
func NewScanService(db *gorm.DB, spaces *storage.SpacesClient, pdf *pdfco.Client, generate GenerateTextFunc) *ScanService {
	return &ScanService{db: db, spaces: spaces, pdf: pdf, generate: generate}
}

// CreateScanJob validates the upload, stores it, and kicks off background
// processing. The returned job carries the key the client polls with.
func (s *ScanService) CreateScanJob(ctx context.Context, academyID, uploaderID uint, fileName string, content []byte) (*model.ScanJob, error) {
	inspection, err := pdfcheck.Inspect(content)
	if err != nil {
		return nil, fmt.Errorf("invalid upload: %w", err)
	}

	job := &model.ScanJob{
		JobKey:     uuid.New().String(),
		AcademyID:  academyID,
		UploaderID: uploaderID,
		FileName:   fileName,
		PageCount:  inspection.PageCount,
		Searchable: inspection.Searchable,
		Status:     model.ScanPending,
	}

	if s.spaces != nil {
		key := fmt.Sprintf("scans/%d/%s%s", academyID, job.JobKey, filepath.Ext(fileName))
		url, err := s.spaces.UploadFile(ctx, key, bytes.NewReader(content), "application/pdf")
		if err != nil {
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		job.FileURL = url
	} else if !inspection.Searchable {
		return nil, fmt.Errorf("image-only PDF needs OCR but no object storage is configured")
	}

	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create scan job: %w", err)
	}

	go s.process(job.ID, inspection.Text)

	return job, nil
}

// GetJobByKey loads a scan job by its polling key, scoped to the academy
func (s *ScanService) GetJobByKey(ctx context.Context, academyID uint, jobKey string) (*model.ScanJob, error) {
	var job model.ScanJob
	err := s.db.WithContext(ctx).
		Where("job_key = ? AND academy_id = ?", jobKey, academyID).
		First(&job).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scan job %s: %w", jobKey, err)
	}
	return &job, nil
}

// process runs OCR (when needed) and AI structuring for one job. It owns its
// own context; the upload request has long since returned.
func (s *ScanService) process(jobID uint, localText string) {
	ctx, cancel := context.WithTimeout(context.Background(), scanProcessTimeout)
	defer cancel()

	var job model.ScanJob
	if err := s.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		log.Printf("ScanService: job %d vanished before processing: %v", jobID, err)
		return
	}

	job.Status = model.ScanProcessing
	if err := s.db.WithContext(ctx).Save(&job).Error; err != nil {
		log.Printf("ScanService: failed to mark job %d processing: %v", jobID, err)
		return
	}

	text := localText
	if text == "" {
		if s.pdf == nil {
			s.failJob(ctx, &job, "scanned PDF needs OCR but none is configured")
			return
		}
		result, err := s.pdf.ExtractText(ctx, job.FileURL)
		if err != nil {
			s.failJob(ctx, &job, fmt.Sprintf("OCR failed: %v", err))
			return
		}
		text = result.Text
		if result.PageCount > 0 {
			job.PageCount = result.PageCount
		}
	}

	if strings.TrimSpace(text) == "" {
		s.failJob(ctx, &job, "no text could be extracted from the PDF")
		return
	}

	drafts, err := s.extractProblems(ctx, text)
	if err != nil {
		s.failJob(ctx, &job, fmt.Sprintf("problem extraction failed: %v", err))
		return
	}

	job.RawText = text
	if err := job.SetDrafts(drafts); err != nil {
		s.failJob(ctx, &job, fmt.Sprintf("failed to encode drafts: %v", err))
		return
	}
	job.Status = model.ScanCompleted
	job.Error = ""
	if err := s.db.WithContext(ctx).Save(&job).Error; err != nil {
		log.Printf("ScanService: failed to complete job %d: %v", jobID, err)
		return
	}

	log.Printf("ScanService: job %d completed with %d problem drafts", jobID, len(drafts))
}

// extractProblems asks the model to structure raw worksheet text into
// problem drafts.
func (s *ScanService) extractProblems(ctx context.Context, text string) ([]model.ProblemDraft, error) {
	if s.generate == nil {
		return nil, fmt.Errorf("no generation service configured")
	}

	raw, err := s.generate(ctx, buildExtractionPrompt(text))
	if err != nil {
		return nil, err
	}

	var drafts []model.ProblemDraft
	if err := utils.ExtractJSONTo(raw, &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	cleaned := make([]model.ProblemDraft, 0, len(drafts))
	for _, d := range drafts {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		if !model.Difficulty(d.Difficulty).IsValid() {
			d.Difficulty = string(model.DifficultyMedium)
		}
		cleaned = append(cleaned, d)
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no problems found in the extracted text")
	}
	return cleaned, nil
}

func buildExtractionPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("다음은 학원 문제지에서 추출한 텍스트입니다. 개별 문제들을 JSON 배열로 구조화해 주세요.\n\n")
	sb.WriteString(truncateRunes(text, 12000))
	sb.WriteString("\n\nJSON 배열로만 응답하세요:\n")
	sb.WriteString(`[{"subject": "수학", "grade": "중3", "unit": "이차방정식", "content": "문제 본문", "answer": "정답", "explanation": "풀이", "difficulty": "medium", "problem_type": "short_answer", "tags": ["근의 공식"]}]`)
	sb.WriteString("\ndifficulty는 easy, medium, hard 중 하나입니다. 정답을 알 수 없으면 answer를 빈 문자열로 두세요.")
	return sb.String()
}

// CommitDrafts turns reviewed drafts into catalog problems. indices selects
// which drafts to commit; nil commits all of them.
func (s *ScanService) CommitDrafts(ctx context.Context, academyID uint, jobKey string, indices []int, createdBy uint) ([]model.Problem, error) {
	job, err := s.GetJobByKey(ctx, academyID, jobKey)
	if err != nil {
		return nil, err
	}
	if job.Status != model.ScanCompleted {
		return nil, fmt.Errorf("scan job %s is %s, drafts are only available on completed jobs", jobKey, job.Status)
	}

	drafts, err := job.DraftList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode drafts: %w", err)
	}

	if indices == nil {
		indices = make([]int, len(drafts))
		for i := range drafts {
			indices[i] = i
		}
	}

	problems := make([]model.Problem, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(drafts) {
			return nil, fmt.Errorf("draft index %d out of range", idx)
		}
		d := drafts[idx]
		tags, err := json.Marshal(d.Tags)
		if err != nil {
			return nil, err
		}
		problems = append(problems, model.Problem{
			AcademyID:   academyID,
			Subject:     d.Subject,
			Grade:       d.Grade,
			Unit:        d.Unit,
			Content:     d.Content,
			Answer:      d.Answer,
			Explanation: d.Explanation,
			Difficulty:  model.Difficulty(d.Difficulty),
			ProblemType: d.ProblemType,
			Tags:        datatypes.JSON(tags),
			Source:      "scan:" + job.JobKey,
			CreatedBy:   createdBy,
		})
	}
	if len(problems) == 0 {
		return nil, fmt.Errorf("no drafts selected")
	}

	if err := s.db.WithContext(ctx).Create(&problems).Error; err != nil {
		return nil, fmt.Errorf("failed to create problems from drafts: %w", err)
	}

	log.Printf("ScanService: committed %d problems from job %s", len(problems), jobKey)
	return problems, nil
}

func (s *ScanService) failJob(ctx context.Context, job *model.ScanJob, reason string) {
	job.Status = model.ScanFailed
	job.Error = reason
	if err := s.db.WithContext(ctx).Save(job).Error; err != nil {
		log.Printf("ScanService: failed to mark job %d failed: %v", job.ID, err)
		return
	}
	log.Printf("ScanService: job %d failed: %s", job.ID, reason)
}
