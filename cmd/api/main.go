package main

import (
	"context"
	"fmt"
	common_api "go-permits/internal/common/api"
	"go-permits/internal/config"
	"go-permits/internal/database"
	"go-permits/internal/features/account"
	"go-permits/internal/features/auth"
	"go-permits/internal/features/certificate"
	"go-permits/internal/features/inspection"
	"go-permits/internal/features/notification"
	"go-permits/internal/features/oop"
	"go-permits/internal/features/permit"
	"go-permits/internal/features/report"
	"go-permits/internal/features/sequence"
	"go-permits/internal/features/system"
	"go-permits/internal/logger"
	"go-permits/internal/middleware"
	"go-permits/pkg/utils"
	"log"

	_ "go-permits/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// ConfigureSigning installs the JWT signing secret before any route handles
// a request.
func ConfigureSigning(cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)
}

// @title           Permit Workflow API
// @version         1.0
// @description     Regulatory permit application workflow backend using Fiber, Uber Fx, and MongoDB.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			sequence.NewCounterRepository,
			account.NewAccountRepository,
			notification.NewNotificationRepository,
			permit.NewPermitRepository,
			oop.NewOOPRepository,
			inspection.NewInspectionRepository,
			certificate.NewCertificateRepository,

			// Initialize Service
			sequence.NewGenerator,
			notification.NewMemoryBus,
			notification.NewRouter,
			auth.NewAuthService,
			permit.NewPermitService,
			oop.NewOOPService,
			inspection.NewInspectionService,
			certificate.NewCertificateService,
			certificate.NewSweeper,
			report.NewReportService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(b *notification.MemoryBus) notification.EventBus { return b },
			func(s permit.PermitService) oop.PermitWorkflow { return s },
			func(s permit.PermitService) inspection.PermitWorkflow { return s },
			func(s permit.PermitService) certificate.PermitWorkflow { return s },

			// Initialize Controller
			auth.NewAuthController,
			account.NewAccountController,
			notification.NewNotificationController,
			permit.NewPermitController,
			oop.NewOOPController,
			inspection.NewInspectionController,
			certificate.NewCertificateController,
			report.NewReportController,
			system.NewWebSocketController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(account.NewAccountApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(permit.NewPermitApi),
			AsRoute(oop.NewOOPApi),
			AsRoute(inspection.NewInspectionApi),
			AsRoute(certificate.NewCertificateApi),
			AsRoute(report.NewReportApi),
			AsRoute(system.NewWebSocketApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewHealthApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			ConfigureSigning,

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, sweeper *certificate.Sweeper) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return sweeper.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return sweeper.Stop()
					},
				})
			},
		),
	)

	app.Run()
}
