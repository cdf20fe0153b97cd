package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/config"
	"github.com/hakwonplus/hakwon-api/handlers"
	academy_handlers "github.com/hakwonplus/hakwon-api/handlers/academy"
	analysis_handlers "github.com/hakwonplus/hakwon-api/handlers/analysis"
	assignment_handlers "github.com/hakwonplus/hakwon-api/handlers/assignment"
	auth_handlers "github.com/hakwonplus/hakwon-api/handlers/auth"
	class_handlers "github.com/hakwonplus/hakwon-api/handlers/class"
	dashboard_handlers "github.com/hakwonplus/hakwon-api/handlers/dashboard"
	exam_handlers "github.com/hakwonplus/hakwon-api/handlers/exam"
	notice_handlers "github.com/hakwonplus/hakwon-api/handlers/notice"
	problem_handlers "github.com/hakwonplus/hakwon-api/handlers/problem"
	scan_handlers "github.com/hakwonplus/hakwon-api/handlers/scan"
	student_handlers "github.com/hakwonplus/hakwon-api/handlers/student"
	worksheet_handlers "github.com/hakwonplus/hakwon-api/handlers/worksheet"
	"github.com/hakwonplus/hakwon-api/services"
	"github.com/hakwonplus/hakwon-api/services/gemini"
	"github.com/hakwonplus/hakwon-api/services/pdfco"
	"github.com/hakwonplus/hakwon-api/services/storage"
	"github.com/hakwonplus/hakwon-api/utils/auth"
	"github.com/hakwonplus/hakwon-api/utils/cache"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
)

// SetupRoutes wires every handler onto the Fiber app
func SetupRoutes(app *fiber.App, db *gorm.DB, getEnv *config.EnviornmentVariable) {
	if getEnv.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "hakwon-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        getEnv.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. AI quota enforcement and dashboard caching are disabled.", err)
		redisCache = nil
	}

	// AI-backed services. GenerateText stays nil without an API key; every
	// consumer then runs its deterministic path.
	var generate services.GenerateTextFunc
	if getEnv.GEMINI_API_KEY != "" {
		geminiClient := gemini.NewClient(gemini.Config{
			APIKey: getEnv.GEMINI_API_KEY,
			Model:  getEnv.GEMINI_MODEL,
		})
		generate = geminiClient.GenerateText
	} else {
		log.Println("Warning: GEMINI_API_KEY is not set, AI analysis paths are disabled")
	}

	var pdfClient *pdfco.Client
	if getEnv.PDFCO_API_KEY != "" {
		pdfClient = pdfco.NewClient(pdfco.Config{APIKey: getEnv.PDFCO_API_KEY})
	} else {
		log.Println("Warning: PDFCO_API_KEY is not set, OCR and worksheet rendering are disabled")
	}

	var spacesClient *storage.SpacesClient
	if getEnv.SPACES_ACCESS_KEY != "" {
		spacesClient, err = storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: getEnv.SPACES_ACCESS_KEY,
			SecretKey: getEnv.SPACES_SECRET_KEY,
			Bucket:    getEnv.SPACES_BUCKET,
			Region:    getEnv.SPACES_REGION,
			Endpoint:  getEnv.SPACES_ENDPOINT,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize object storage: %v. Scan uploads are limited to searchable PDFs.", err)
		}
	}

	// Domain services
	analysisRepo := services.NewGormAnalysisRepository(db)
	analysisService := services.NewAnalysisService(analysisRepo, generate)
	quotaService := services.NewQuotaService(redisCache, getEnv.AI_DAILY_QUOTA)
	gradingService := services.NewGradingService(db)
	scanService := services.NewScanService(db, spacesClient, pdfClient, generate)
	worksheetService := services.NewWorksheetService(db, pdfClient)
	dashboardService := services.NewDashboardService(db, redisCache, quotaService)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager)
	academyHandler := academy_handlers.NewAcademyHandler(db)
	studentHandler := student_handlers.NewStudentHandler(db)
	classHandler := class_handlers.NewClassHandler(db)
	noticeHandler := notice_handlers.NewNoticeHandler(db)
	problemHandler := problem_handlers.NewProblemHandler(db)
	assignmentHandler := assignment_handlers.NewAssignmentHandler(db, gradingService)
	examHandler := exam_handlers.NewExamHandler(db)
	scanHandler := scan_handlers.NewScanHandler(db, scanService)
	worksheetHandler := worksheet_handlers.NewWorksheetHandler(db, worksheetService)
	analysisHandler := analysis_handlers.NewAnalysisHandler(db, analysisService, quotaService)
	dashboardHandler := dashboard_handlers.NewDashboardHandler(dashboardService)

	app.Get("/health", healthHandler.Check)

	v1 := app.Group("/api/v1")

	// Public auth routes
	authGroup := v1.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)

	// Everything below requires a valid staff token
	protected := v1.Group("", authMiddleware.Required())

	academyGroup := protected.Group("/academy")
	academyGroup.Get("/", academyHandler.Get)
	academyGroup.Put("/", authMiddleware.AdminOnly(), academyHandler.Update)
	academyGroup.Get("/teachers", academyHandler.ListTeachers)
	academyGroup.Post("/teachers", authMiddleware.AdminOnly(), academyHandler.CreateTeacher)
	academyGroup.Delete("/teachers/:id", authMiddleware.AdminOnly(), academyHandler.DeleteTeacher)

	studentGroup := protected.Group("/students")
	studentGroup.Get("/", studentHandler.List)
	studentGroup.Post("/", studentHandler.Create)
	studentGroup.Get("/:id", studentHandler.Get)
	studentGroup.Put("/:id", studentHandler.Update)
	studentGroup.Post("/:id/deactivate", studentHandler.Deactivate)
	studentGroup.Delete("/:id", authMiddleware.AdminOnly(), studentHandler.Delete)

	// Weakness analysis endpoints
	studentGroup.Post("/:id/analysis", analysisHandler.Analyze)
	studentGroup.Post("/:id/action-plan", analysisHandler.ActionPlan)
	studentGroup.Get("/:id/wrong-answers", analysisHandler.WrongAnswers)

	classGroup := protected.Group("/classes")
	classGroup.Get("/", classHandler.List)
	classGroup.Post("/", classHandler.Create)
	classGroup.Get("/:id", classHandler.Get)
	classGroup.Put("/:id", classHandler.Update)
	classGroup.Delete("/:id", classHandler.Delete)
	classGroup.Post("/:id/enroll", classHandler.Enroll)
	classGroup.Delete("/:id/enroll/:studentId", classHandler.Unenroll)

	noticeGroup := protected.Group("/notices")
	noticeGroup.Get("/", noticeHandler.List)
	noticeGroup.Post("/", noticeHandler.Create)
	noticeGroup.Get("/:id", noticeHandler.Get)
	noticeGroup.Put("/:id", noticeHandler.Update)
	noticeGroup.Delete("/:id", noticeHandler.Delete)

	problemGroup := protected.Group("/problems")
	problemGroup.Get("/", problemHandler.List)
	problemGroup.Get("/units", problemHandler.Units)
	problemGroup.Post("/", problemHandler.Create)
	problemGroup.Get("/:id", problemHandler.Get)
	problemGroup.Put("/:id", problemHandler.Update)
	problemGroup.Delete("/:id", problemHandler.Delete)

	assignmentGroup := protected.Group("/assignments")
	assignmentGroup.Get("/", assignmentHandler.List)
	assignmentGroup.Post("/", assignmentHandler.Create)
	assignmentGroup.Get("/:id", assignmentHandler.Get)
	assignmentGroup.Get("/:id/submissions", assignmentHandler.Submissions)
	assignmentGroup.Post("/:id/submit", assignmentHandler.Submit)
	assignmentGroup.Post("/submissions/:submissionId/grade", assignmentHandler.Grade)

	examGroup := protected.Group("/exams")
	examGroup.Get("/", examHandler.List)
	examGroup.Post("/", examHandler.Create)
	examGroup.Get("/:id", examHandler.Get)
	examGroup.Delete("/:id", examHandler.Delete)
	examGroup.Post("/:id/results", examHandler.RecordResult)

	scanGroup := protected.Group("/scans")
	scanGroup.Get("/", scanHandler.List)
	scanGroup.Post("/", scanHandler.Upload)
	scanGroup.Get("/:key", scanHandler.Get)
	scanGroup.Post("/:key/commit", scanHandler.Commit)

	worksheetGroup := protected.Group("/worksheets")
	worksheetGroup.Get("/", worksheetHandler.List)
	worksheetGroup.Post("/", worksheetHandler.Create)
	worksheetGroup.Get("/:id", worksheetHandler.Get)

	protected.Get("/dashboard", dashboardHandler.Stats)
	protected.Get("/analysis/quota", analysisHandler.Quota)
}
