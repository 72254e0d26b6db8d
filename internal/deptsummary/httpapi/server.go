package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/deptsummary/internal/deptsummary/config"
	"github.com/yungbote/deptsummary/internal/deptsummary/source"
	"github.com/yungbote/deptsummary/internal/deptsummary/summary"
	"github.com/yungbote/deptsummary/internal/platform/logger"
)

// Summarizer runs one fetch-and-aggregate pass.
type Summarizer interface {
	Summarize(ctx context.Context) (*summary.Groups, error)
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func NewServer(cfg *config.Config, log *logger.Logger, s Summarizer) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           NewRouter(cfg, log, s),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
	}
}

func NewRouter(cfg *config.Config, log *logger.Logger, s Summarizer) *gin.Engine {
	if strings.HasPrefix(strings.ToLower(cfg.Env), "prod") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("deptsummary"))
	r.Use(AttachTraceContext())
	r.Use(RequestLogger(log))
	r.Use(CORS(cfg.HTTP.AllowOrigins))

	h := &DepartmentHandler{log: log, summarizer: s}

	r.GET("/healthcheck", HealthCheck)
	v1 := r.Group("/v1")
	{
		v1.GET("/departments", h.List)
		v1.GET("/departments/:name", h.Get)
	}
	return r
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type DepartmentHandler struct {
	log        *logger.Logger
	summarizer Summarizer
}

func (h *DepartmentHandler) List(c *gin.Context) {
	groups, ok := h.summarize(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *DepartmentHandler) Get(c *gin.Context) {
	groups, ok := h.summarize(c)
	if !ok {
		return
	}
	name := c.Param("name")
	dept, found := groups.Get(name)
	if !found {
		RespondError(c, http.StatusNotFound, "department_not_found", errors.New("department "+name+" not found"))
		return
	}
	c.JSON(http.StatusOK, dept)
}

func (h *DepartmentHandler) summarize(c *gin.Context) (*summary.Groups, bool) {
	groups, err := h.summarizer.Summarize(c.Request.Context())
	if err == nil {
		return groups, true
	}
	var ferr *source.FetchError
	if errors.As(err, &ferr) {
		RespondError(c, http.StatusBadGateway, "fetch_failed", err)
	} else {
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
	return nil, false
}
