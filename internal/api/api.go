// Package api exposes the translation pipeline over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valpere/peredoc/internal/document"
	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/profile"
	"github.com/valpere/peredoc/internal/service"
	"github.com/valpere/peredoc/internal/stage"
)

// MaxUploadBytes bounds uploaded documents.
const MaxUploadBytes = 20 << 20

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{svc: svc, logger: logger}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	r.MaxMultipartMemory = MaxUploadBytes

	r.GET("/healthz", h.Health)
	api := r.Group("/api")
	{
		api.GET("/profiles", h.Profiles)
		api.POST("/translate", h.Translate)
		api.POST("/upload", h.Upload)
		api.POST("/chat", h.Chat)
		api.GET("/ws", h.Stream)
	}
	return r
}

// ErrorResponse is the body of every non-2xx reply that has no Result.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": h.svc.Backend()})
}

// ProfileInfo describes a profile for API clients.
type ProfileInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	DefaultTarget string `json:"default_target"`
	Glossary      bool   `json:"glossary"`
}

func (h *Handler) Profiles(c *gin.Context) {
	var out []ProfileInfo
	for _, name := range profile.Names() {
		p, err := profile.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, ProfileInfo{
			Name:          p.Name,
			Description:   p.Description,
			DefaultTarget: p.DefaultTarget,
			Glossary:      p.Glossary != nil,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Translate runs a JSON request to completion and replies with the Result.
func (h *Handler) Translate(c *gin.Context) {
	var req service.Request
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, req)
}

// bindJSON decodes a request body of at most MaxUploadBytes into obj and
// writes the error reply when that fails.
func bindJSON(c *gin.Context, obj any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}
	return true
}

// ChatResponse is the reply to a document question.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// Chat answers a question about a document and its translation.
func (h *Handler) Chat(c *gin.Context) {
	var req service.AskRequest
	if !bindJSON(c, &req) {
		return
	}
	answer, err := h.svc.Ask(c.Request.Context(), req)
	if err != nil {
		c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Answer: answer})
}

// Upload accepts a multipart document ("file") with optional
// target_language and profile form fields.
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing file"})
		return
	}
	if fh.Size > MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	defer f.Close()

	text, err := document.ExtractReader(f, filepath.Ext(fh.Filename))
	if err != nil {
		var unsupported *document.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	h.run(c, service.Request{
		Input: pipeline.Input{
			Text:           text,
			TargetLanguage: c.PostForm("target_language"),
		},
		Profile:    c.PostForm("profile"),
		SourceName: fh.Filename,
	})
}

func (h *Handler) run(c *gin.Context, req service.Request) {
	res, err := h.svc.Translate(c.Request.Context(), req, nil)
	if err != nil {
		c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(statusOf(res), res)
}

// errorStatus maps a service error to an HTTP status. Store failures are
// the server's, stage failures the model's, anything else the client's.
func errorStatus(err error) int {
	var ve *stage.ValidationError
	switch {
	case errors.Is(err, service.ErrStore):
		return http.StatusServiceUnavailable
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case stage.StageOf(err) != "":
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// statusOf maps a run outcome to an HTTP status: empty input is the
// client's fault, any other stage failure is an upstream model failure.
func statusOf(res *pipeline.Result) int {
	if !res.Failed() {
		return http.StatusOK
	}
	var ve *stage.ValidationError
	if errors.As(res.Err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
