package http

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quickrollcall/rollcall/internal/application/rollcall"
	"github.com/quickrollcall/rollcall/internal/application/rollcall/usecases"
	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/cache"
	"github.com/quickrollcall/rollcall/internal/infrastructure/config"
	"github.com/quickrollcall/rollcall/internal/infrastructure/metrics"
	"github.com/quickrollcall/rollcall/internal/infrastructure/ratelimit"
	"github.com/quickrollcall/rollcall/internal/infrastructure/repository"
	"github.com/quickrollcall/rollcall/internal/infrastructure/token"
	"github.com/quickrollcall/rollcall/internal/interfaces/http/middleware"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

// Container wires the store, the session core, the handlers and the
// middlewares. The Redis connector is owned by the caller and outlives it.
type Container struct {
	engine *gin.Engine
	cfg    *config.Config
	log    logger.Interface

	connector *cache.Connector
	store     *cache.Store
	registry  *prometheus.Registry
	metrics   *metrics.Metrics

	tokens      token.Generator
	sessionRepo session.Repository
	manager     *rollcall.SessionManager
	exportUC    *usecases.ExportSessionUseCase
	previewUC   *usecases.PreviewSessionUseCase

	hdlrs *allHandlers

	ownerAuth       *middleware.OwnerAuthMiddleware
	submitRateLimit *middleware.SessionRateLimiter
	mintRateLimit   *middleware.SessionRateLimiter
}

// NewContainer builds every component for one HTTP server.
func NewContainer(cfg *config.Config, connector *cache.Connector, log logger.Interface) *Container {
	c := &Container{
		engine:    gin.New(),
		cfg:       cfg,
		log:       log,
		connector: connector,
	}

	c.initInfrastructure()
	c.initRollCall()
	c.initHandlers()
	c.initMiddlewares()

	return c
}

func (c *Container) initInfrastructure() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := utils.RegisterValidations(v); err != nil {
			c.log.Errorw("failed to register request validations", "error", err)
		}
	}

	c.registry = metrics.NewRegistry()
	c.metrics = metrics.New(c.registry)
	c.store = cache.NewStore(c.connector, c.log.Named("store"))
	c.tokens = token.NewGenerator()
	c.sessionRepo = repository.NewSessionRepository(c.store, c.cfg.Session.TTL())
}

func (c *Container) initRollCall() {
	c.manager = rollcall.NewSessionManager(c.sessionRepo, c.tokens, c.metrics, c.log.Named("sessions"))
	c.exportUC = usecases.NewExportSessionUseCase(c.manager, c.metrics, c.log.Named("export"))
	c.previewUC = usecases.NewPreviewSessionUseCase(c.manager, c.log.Named("export"))
}

func (c *Container) initMiddlewares() {
	c.ownerAuth = middleware.NewOwnerAuthMiddleware(c.manager, c.log)

	submitLimiter := ratelimit.NewSlidingWindowLimiter(c.store, ratelimit.PurposeSubmit, c.cfg.RateLimit.Submit, c.log)
	mintLimiter := ratelimit.NewSlidingWindowLimiter(c.store, ratelimit.PurposeMint, c.cfg.RateLimit.Mint, c.log)
	c.submitRateLimit = middleware.NewSessionRateLimiter(submitLimiter, ratelimit.PurposeSubmit, c.metrics, c.log)
	c.mintRateLimit = middleware.NewSessionRateLimiter(mintLimiter, ratelimit.PurposeMint, c.metrics, c.log)
}

// Engine returns the gin engine after SetupRoutes.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}
