package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

const (
	serviceName  = "Quick Roll Call"
	clientPrefix = "[client] "
)

type RedisStatusResponse struct {
	Active   bool   `json:"active"`
	Endpoint string `json:"endpoint"`
	Error    string `json:"error,omitempty"`
}

// SystemHandler serves health, connectivity, identity and client log routes.
type SystemHandler struct {
	redis      redisProbe
	identities identityGenerator
	logger     logger.Interface
	clientLog  logger.Interface
}

func NewSystemHandler(redis redisProbe, identities identityGenerator, logger logger.Interface) *SystemHandler {
	return &SystemHandler{
		redis:      redis,
		identities: identities,
		logger:     logger,
		clientLog:  logger.Named("client"),
	}
}

// Health handles GET /api/health.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
}

// RedisStatus handles GET /api/redis/status; 503 when Redis is unreachable.
func (h *SystemHandler) RedisStatus(c *gin.Context) {
	status := h.redis.Status(c.Request.Context())
	code := http.StatusOK
	if !status.Active {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, RedisStatusResponse{
		Active:   status.Active,
		Endpoint: h.redis.Endpoint(),
		Error:    status.Error,
	})
}

// Identity handles GET /api/identity, handing a browser a persistent id to
// send back as X-Client-ID.
func (h *SystemHandler) Identity(c *gin.Context) {
	id, err := h.identities.NewIdentity()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"id": id})
}

// ClientLog handles POST /api/logs, forwarding a browser log line into the
// server log.
func (h *SystemHandler) ClientLog(c *gin.Context) {
	var req ClientLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.ValidationError(err))
		return
	}

	msg := clientPrefix + utils.SanitizeText(req.Message)
	args := []any{"client_ip", c.ClientIP()}
	if len(req.Meta) > 0 {
		args = append(args, "meta", req.Meta)
	}

	switch req.Level {
	case "debug":
		h.clientLog.Debugw(msg, args...)
	case "warn":
		h.clientLog.Warnw(msg, args...)
	case "error":
		h.clientLog.Errorw(msg, args...)
	default:
		h.clientLog.Infow(msg, args...)
	}

	utils.SuccessResponse(c, http.StatusOK, "", nil)
}
