package router

import (
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/config"
	"github.com/sushmag0wda/Aims-Inventory/internal/handler"
	"github.com/sushmag0wda/Aims-Inventory/internal/infra"
	"github.com/sushmag0wda/Aims-Inventory/internal/middleware"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"
	"github.com/sushmag0wda/Aims-Inventory/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	locker := infra.NewLocker(rdb)
	retry := service.LockRetry{
		Attempts: cfg.LockRetryAttempts,
		Delay:    time.Duration(cfg.LockRetryDelayMS) * time.Millisecond,
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	tx := repository.NewTransactor(db, time.Duration(cfg.LockTimeoutMS)*time.Millisecond)
	departmentRepo := repository.NewDepartmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	itemRepo := repository.NewItemRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	pendingRepo := repository.NewPendingReportRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	stockLogRepo := repository.NewStockLogRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	helpRepo := repository.NewHelpRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	auditSvc := service.NewAuditService(activityRepo)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, dispatcher)
	authSvc := service.NewAuthService(userRepo, helpRepo, notificationSvc, cfg)
	helpSvc := service.NewHelpService(helpRepo, userRepo, notificationSvc, cfg.SuperAdminUsername)

	departmentSvc := service.NewDepartmentService(departmentRepo, auditSvc)
	studentSvc := service.NewStudentService(studentRepo, departmentRepo, enrollmentRepo, auditSvc, cfg.PhoneRegion)
	itemSvc := service.NewItemService(tx, itemRepo, stockLogRepo, auditSvc, retry)
	importSvc := service.NewImportService(tx, departmentRepo, studentRepo, enrollmentRepo, auditSvc, locker, service.ImportOptions{
		PhoneRegion: cfg.PhoneRegion,
		LockTTL:     time.Duration(cfg.ImportLockTTLSeconds) * time.Second,
	})
	issueSvc := service.NewIssueService(tx, studentRepo, departmentRepo, enrollmentRepo, itemRepo, issueRepo,
		stockLogRepo, pendingRepo, auditSvc, retry)
	ledgerSvc := service.NewLedgerService(tx, itemRepo, inventoryRepo, stockLogRepo, retry)
	requirementSvc := service.NewRequirementService(departmentRepo, itemRepo, requirementRepo, auditSvc)
	maintenanceSvc := service.NewMaintenanceService(tx, departmentRepo, studentRepo, enrollmentRepo, itemRepo,
		issueRepo, pendingRepo, auditSvc)
	dashboardSvc := service.NewDashboardService(departmentRepo, enrollmentRepo, itemRepo, issueRepo, inventoryRepo)
	reportSvc := service.NewReportService(studentRepo, departmentRepo, enrollmentRepo, issueRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	studentsH := handler.NewStudentsHandler(studentSvc, issueSvc, importSvc, reportSvc)
	departmentsH := handler.NewDepartmentsHandler(departmentSvc)
	itemsH := handler.NewItemsHandler(itemSvc)
	issuesH := handler.NewIssuesHandler(issueSvc)
	ledgerH := handler.NewLedgerHandler(ledgerSvc)
	requirementsH := handler.NewRequirementsHandler(requirementSvc)
	maintenanceH := handler.NewMaintenanceHandler(maintenanceSvc, reportSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc, auditSvc)
	notificationsH := handler.NewNotificationsHandler(notificationSvc)
	helpH := handler.NewHelpHandler(helpSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/register", middleware.LoginRateLimiter(), authH.Register)
	}

	// Protected routes: both roles unless declared per group
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleStationery)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), staff)
	{
		students := v1.Group("/students")
		{
			students.GET("", studentsH.List)
			students.POST("", studentsH.Create)
			students.POST("/bulk-upload", studentsH.BulkUpload)
			students.POST("/bulk-upload/xlsx", studentsH.BulkUploadXLSX)
			students.GET("/:usn", studentsH.Get)
			students.PUT("/:usn", studentsH.Update)
			students.DELETE("/:usn", studentsH.Delete)
			students.GET("/:usn/records", studentsH.Records)
			students.GET("/:usn/slip.pdf", studentsH.Slip)
		}
		v1.GET("/enrollments", studentsH.Enrollments)

		departments := v1.Group("/departments")
		{
			departments.GET("", departmentsH.List)
			departments.POST("", departmentsH.Create)
			departments.GET("/:id", departmentsH.Get)
			departments.PUT("/:id", departmentsH.Update)
			departments.DELETE("/:id", departmentsH.Delete)
		}

		items := v1.Group("/items")
		{
			items.GET("", itemsH.List)
			items.POST("", itemsH.Create)
			items.GET("/:id", itemsH.Get)
			items.PUT("/:id", itemsH.Update)
			items.DELETE("/:id", itemsH.Delete)
		}

		v1.POST("/issues", issuesH.Issue)
		v1.GET("/issues", issuesH.List)

		v1.GET("/pending-reports", maintenanceH.ListPendingReports)
		v1.GET("/pending-reports/export.xlsx", maintenanceH.ExportPendingReports)

		inv := v1.Group("/inventory")
		{
			inv.GET("/orders", ledgerH.ListOrders)
			inv.POST("/orders", ledgerH.PlaceOrder)
			inv.POST("/orders/:id/receive", ledgerH.ReceiveOrder)
			inv.GET("/receipts", ledgerH.ListReceipts)
			inv.POST("/receipts", ledgerH.RecordReceipt)
			inv.POST("/receipts/consume", ledgerH.Consume)
			inv.POST("/receipts/restore", ledgerH.Restore)
			inv.GET("/stock-logs", ledgerH.ListStockLogs)
			inv.POST("/stock-logs", ledgerH.CreateStockLog)
			inv.DELETE("/stock-logs/clear", adminOnly, ledgerH.ClearStockLogs)
		}

		v1.GET("/requirements", requirementsH.Get)
		v1.PUT("/requirements", adminOnly, requirementsH.Update)
		v1.POST("/requirements/backfill", adminOnly, requirementsH.Backfill)

		v1.GET("/dashboard/summary", dashboardH.Summary)
		v1.GET("/activity", dashboardH.Activity)

		maint := v1.Group("/maintenance", adminOnly)
		{
			maint.POST("/backfill-enrollments", maintenanceH.BackfillEnrollments)
			maint.POST("/purge-students", maintenanceH.PurgeStudents)
			maint.POST("/pending-reports", maintenanceH.GeneratePendingReports)
		}

		users := v1.Group("/users", adminOnly)
		{
			users.GET("", usersH.List)
			users.POST("/:id/decision", usersH.Decide)
		}

		v1.GET("/notifications", notificationsH.List)
		v1.POST("/notifications/:id/read", notificationsH.MarkRead)
		v1.DELETE("/notifications/:id", notificationsH.Delete)

		help := v1.Group("/help")
		{
			help.GET("/threads", adminOnly, helpH.ListThreads)
			help.GET("/thread", helpH.GetThread)
			help.POST("/thread/read", helpH.MarkRead)
			help.POST("/thread/clear", helpH.Clear)
			help.POST("/messages", helpH.Post)
			help.DELETE("/messages/:id", helpH.DeleteMessage)
		}
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
