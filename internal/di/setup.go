package di

import (
	"os"
	"time"

	"clinic-ai-service/internal/config"
	"clinic-ai-service/internal/dispatcher"
	"clinic-ai-service/internal/handler"
	"clinic-ai-service/internal/logs"
	"clinic-ai-service/internal/repository"
	"clinic-ai-service/internal/service"
	"clinic-ai-service/internal/utils"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and handlers and returns the
// ready-to-run router plus a shutdown hook.
func Setup() (*gin.Engine, func()) {
	logger := logs.NewLogger()
	rules := config.LoadRules()

	db := config.InitDatabase()
	cache := config.InitRedis(logger)
	notifier := config.NewKafkaProducer(os.Getenv("KAFKA_BROKER"), os.Getenv("KAFKA_TOPIC"))

	appointmentRepo := repository.NewAppointmentRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	recordRepo := repository.NewMedicalRecordRepository(db)
	modelRepo := repository.NewAIModelRepository(db)

	scorer := dispatcher.NewHTTPScorer(os.Getenv("SCORER_URL"), 5*time.Minute)
	disp := dispatcher.New(scorer, 5, 100, 5*time.Minute, logger)
	disp.Start()

	appointmentService := service.NewAppointmentService(appointmentRepo, notifier, rules, logger)
	quotaService := service.NewQuotaService(quotaRepo, notifier, rules, logger)
	recordService := service.NewRecordService(recordRepo, notifier, logger)
	modelService := service.NewModelService(modelRepo, cache, logger)
	inferenceService := service.NewInferenceService(recordRepo, modelRepo, quotaRepo, disp, notifier, rules, logger)

	scanDir := os.Getenv("SCAN_DIR")
	if scanDir == "" {
		scanDir = "scans"
	}

	appointmentHandler := handler.NewAppointmentHandler(appointmentService)
	inferenceHandler := handler.NewInferenceHandler(inferenceService, modelService, scanDir)
	recordHandler := handler.NewRecordHandler(recordService, scanDir)
	adminHandler := handler.NewAdminHandler(quotaService, modelService)

	scheduler := utils.StartScheduler(appointmentService)

	router := gin.Default()
	api := router.Group("/api", handler.RequireIdentity())
	{
		api.POST("/appointments", appointmentHandler.Create)
		api.GET("/appointments", appointmentHandler.List)
		api.GET("/appointments/:id", appointmentHandler.Get)
		api.PUT("/appointments/:id", appointmentHandler.Reschedule)
		api.DELETE("/appointments/:id", appointmentHandler.Cancel)

		api.POST("/inference", inferenceHandler.Submit)
		api.GET("/models", inferenceHandler.Models)

		api.POST("/records", recordHandler.SelfUpload)
		api.GET("/records", recordHandler.ListOwn)
		api.GET("/records/:id", recordHandler.Get)

		admin := api.Group("/admin")
		{
			admin.GET("/appointments", appointmentHandler.ListByStatus)
			admin.PATCH("/appointments/:id/status", appointmentHandler.Transition)

			admin.POST("/records", recordHandler.StaffUpload)
			admin.GET("/records", recordHandler.ListAll)
			admin.GET("/records/user/:user_id", recordHandler.ListForUser)

			admin.POST("/models", adminHandler.RegisterModel)
			admin.GET("/models", adminHandler.ListModels)
			admin.PATCH("/models/:id/status", adminHandler.UpdateModelStatus)

			admin.GET("/quota/:user_id", adminHandler.GetQuota)
			admin.POST("/quota/:user_id/grant", adminHandler.GrantQuota)
			admin.POST("/quota/:user_id/revoke", adminHandler.RevokeQuota)
		}
	}

	cleanup := func() {
		scheduler.Stop()
		disp.Stop()
		if err := notifier.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close kafka producer")
		}
	}
	return router, cleanup
}
