package bootstrap

import (
	"requirements-intake-be/internal/capture"
	"requirements-intake-be/internal/config"
	"requirements-intake-be/internal/controller"
	"requirements-intake-be/internal/pkg/logger"
	"requirements-intake-be/internal/repository/memory"
	"requirements-intake-be/internal/service"
	"requirements-intake-be/pkg/processing"
	"requirements-intake-be/pkg/textrules"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	IntakeController controller.IIntakeController
	HealthController controller.IHealthController

	// Background Services (Exposed for main.go to run)
	GenerationService service.IGenerationService
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	sessions := memory.NewSessionRepository(cfg.Intake.SessionTTL)
	policy := textrules.ParsePolicy(cfg.Intake.ValidationPolicy)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Remote Contracts
	processingClient := processing.NewClient(cfg.Processing.BaseURL)

	// 4. Capture Device (websocket-fed)
	streamDevice := capture.NewStreamDevice()

	// 5. Services
	intakeService := service.NewIntakeService(sessions, policy)
	recordingService := service.NewRecordingService(sessions, streamDevice, sysLogger)
	stagingService := service.NewStagingService(sessions, sysLogger)
	submissionService := service.NewSubmissionService(
		sessions,
		processingClient,
		pubSub,
		cfg.Processing.CompletedTopic,
		policy,
		sysLogger,
	)
	generationService := service.NewGenerationService(
		pubSub,
		cfg.Processing.CompletedTopic,
		sessions,
		processingClient,
		sysLogger,
	)

	// 6. Controllers
	intakeController := controller.NewIntakeController(
		intakeService,
		recordingService,
		stagingService,
		submissionService,
		streamDevice,
	)
	healthController := controller.NewHealthController(processingClient)

	return &Container{
		IntakeController:  intakeController,
		HealthController:  healthController,
		GenerationService: generationService,
	}
}
