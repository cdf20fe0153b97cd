package class

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
	"github.com/hakwonplus/hakwon-api/utils/validation"
)

// ClassHandler handles class (분반) management and enrollment
type ClassHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewClassHandler creates a new class handler
func NewClassHandler(db *gorm.DB) *ClassHandler {
	return &ClassHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ScheduleSlot is one recurring time slot on a class schedule
type ScheduleSlot struct {
	Day   string `json:"day" validate:"required,oneof=mon tue wed thu fri sat sun"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// ClassRequest is the create/update payload for a class
type ClassRequest struct {
	Name      string         `json:"name" validate:"required,min=1,max=100"`
	Subject   string         `json:"subject,omitempty" validate:"max=50"`
	TeacherID uint           `json:"teacher_id,omitempty"`
	Room      string         `json:"room,omitempty" validate:"max=50"`
	Schedule  []ScheduleSlot `json:"schedule,omitempty" validate:"dive"`
}

// EnrollRequest adds students to a class
type EnrollRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1"`
}

// List returns the academy's classes
func (h *ClassHandler) List(c *fiber.Ctx) error {
	var classes []model.Class
	err := h.db.
		Where("academy_id = ?", middleware.AcademyID(c)).
		Preload("Teacher").
		Order("name ASC").
		Find(&classes).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch classes")
	}
	return response.Success(c, classes)
}

// Get returns one class with its enrollments
func (h *ClassHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid class id")
	}

	var class model.Class
	err = h.db.
		Where("id = ? AND academy_id = ?", id, middleware.AcademyID(c)).
		Preload("Teacher").
		Preload("Enrollments.Student").
		First(&class).Error
	if err != nil {
		return response.NotFound(c, "Class not found")
	}
	return response.Success(c, class)
}

// Create adds a class
func (h *ClassHandler) Create(c *fiber.Ctx) error {
	var req ClassRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	academyID := middleware.AcademyID(c)
	if req.TeacherID != 0 {
		if err := h.verifyTeacher(req.TeacherID, academyID); err != nil {
			return response.BadRequest(c, "Teacher does not belong to this academy")
		}
	}

	schedule, err := json.Marshal(req.Schedule)
	if err != nil {
		return response.BadRequest(c, "Invalid schedule")
	}

	class := model.Class{
		AcademyID: academyID,
		Name:      req.Name,
		Subject:   req.Subject,
		TeacherID: req.TeacherID,
		Room:      req.Room,
		Schedule:  datatypes.JSON(schedule),
	}
	if err := h.db.Create(&class).Error; err != nil {
		return response.InternalServerError(c, "Failed to create class")
	}

	return response.Created(c, class)
}

// Update modifies a class
func (h *ClassHandler) Update(c *fiber.Ctx) error {
	class, err := h.findClass(c)
	if err != nil {
		return response.NotFound(c, "Class not found")
	}

	var req ClassRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	if req.TeacherID != 0 {
		if err := h.verifyTeacher(req.TeacherID, class.AcademyID); err != nil {
			return response.BadRequest(c, "Teacher does not belong to this academy")
		}
	}

	schedule, err := json.Marshal(req.Schedule)
	if err != nil {
		return response.BadRequest(c, "Invalid schedule")
	}

	class.Name = req.Name
	class.Subject = req.Subject
	class.TeacherID = req.TeacherID
	class.Room = req.Room
	class.Schedule = datatypes.JSON(schedule)

	if err := h.db.Save(class).Error; err != nil {
		return response.InternalServerError(c, "Failed to update class")
	}

	return response.Success(c, class)
}

// Delete removes a class
func (h *ClassHandler) Delete(c *fiber.Ctx) error {
	class, err := h.findClass(c)
	if err != nil {
		return response.NotFound(c, "Class not found")
	}

	if err := h.db.Delete(class).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete class")
	}

	return response.SuccessWithMessage(c, "Class deleted", nil)
}

// Enroll adds students to a class. Students already enrolled are skipped.
func (h *ClassHandler) Enroll(c *fiber.Ctx) error {
	class, err := h.findClass(c)
	if err != nil {
		return response.NotFound(c, "Class not found")
	}

	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var count int64
	err = h.db.Model(&model.Student{}).
		Where("id IN ? AND academy_id = ?", req.StudentIDs, class.AcademyID).
		Count(&count).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to verify students")
	}
	if count != int64(len(req.StudentIDs)) {
		return response.BadRequest(c, "Some students do not belong to this academy")
	}

	enrolled := 0
	for _, studentID := range req.StudentIDs {
		enrollment := model.ClassEnrollment{ClassID: class.ID, StudentID: studentID}
		result := h.db.Where(enrollment).FirstOrCreate(&enrollment)
		if result.Error != nil {
			return response.InternalServerError(c, "Failed to enroll students")
		}
		if result.RowsAffected > 0 {
			enrolled++
		}
	}

	return response.SuccessWithMessage(c, "Students enrolled", fiber.Map{"enrolled": enrolled})
}

// Unenroll removes a student from a class
func (h *ClassHandler) Unenroll(c *fiber.Ctx) error {
	class, err := h.findClass(c)
	if err != nil {
		return response.NotFound(c, "Class not found")
	}

	studentID, err := strconv.ParseUint(c.Params("studentId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student id")
	}

	result := h.db.
		Where("class_id = ? AND student_id = ?", class.ID, studentID).
		Delete(&model.ClassEnrollment{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to unenroll student")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Enrollment not found")
	}

	return response.SuccessWithMessage(c, "Student unenrolled", nil)
}

func (h *ClassHandler) findClass(c *fiber.Ctx) (*model.Class, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, err
	}

	var class model.Class
	err = h.db.
		Where("id = ? AND academy_id = ?", id, middleware.AcademyID(c)).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (h *ClassHandler) verifyTeacher(teacherID, academyID uint) error {
	var teacher model.User
	return h.db.
		Where("id = ? AND academy_id = ?", teacherID, academyID).
		First(&teacher).Error
}
