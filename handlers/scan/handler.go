package scan

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/services"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
)

// maxUploadSize caps worksheet PDF uploads at 20 MB
const maxUploadSize = 20 << 20

// ScanHandler handles worksheet PDF uploads and draft review
type ScanHandler struct {
	db   *gorm.DB
	scan *services.ScanService
}

// NewScanHandler creates a new scan handler
func NewScanHandler(db *gorm.DB, scan *services.ScanService) *ScanHandler {
	return &ScanHandler{db: db, scan: scan}
}

// CommitRequest selects which drafts to commit to the catalog
type CommitRequest struct {
	Indices []int `json:"indices,omitempty"` // Omit to commit every draft
}

// Upload accepts a worksheet PDF and starts a scan job
func (h *ScanHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "A PDF file is required in the 'file' field")
	}
	if fileHeader.Size > maxUploadSize {
		return response.BadRequest(c, "File exceeds the 20 MB limit")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return response.BadRequest(c, "Only PDF files are accepted")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read upload")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return response.InternalServerError(c, "Failed to read upload")
	}

	job, err := h.scan.CreateScanJob(c.Context(), middleware.AcademyID(c), middleware.UserID(c), fileHeader.Filename, content)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Created(c, job)
}

// List returns the academy's scan jobs, newest first
func (h *ScanHandler) List(c *fiber.Ctx) error {
	query := h.db.
		Where("academy_id = ?", middleware.AcademyID(c))
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var jobs []model.ScanJob
	if err := query.Order("created_at DESC").Limit(50).Find(&jobs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch scan jobs")
	}
	return response.Success(c, jobs)
}

// Get returns one scan job by its polling key
func (h *ScanHandler) Get(c *fiber.Ctx) error {
	job, err := h.scan.GetJobByKey(c.Context(), middleware.AcademyID(c), c.Params("key"))
	if err != nil {
		return response.NotFound(c, "Scan job not found")
	}
	return response.Success(c, job)
}

// Commit turns reviewed drafts into catalog problems
func (h *ScanHandler) Commit(c *fiber.Ctx) error {
	var req CommitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	problems, err := h.scan.CommitDrafts(c.Context(), middleware.AcademyID(c), c.Params("key"), req.Indices, middleware.UserID(c))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Created(c, problems)
}
