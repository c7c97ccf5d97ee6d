// Package server exposes the frontend over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"jtalkfront/ingest"
	"jtalkfront/jtalk"
	"jtalkfront/logger"
	"jtalkfront/model"
	"jtalkfront/render"
)

// Frontend is the analysis surface the handlers need. *jtalk.AnalyzerHandle
// implements it.
type Frontend interface {
	G2P(ctx context.Context, text string, opts jtalk.G2POptions) (render.Result, error)
	RunFrontend(ctx context.Context, text string, runMarine bool) ([]model.FeatureNode, error)
}

// Options tune the handlers.
type Options struct {
	MaxTextLength int
	// DumpDir receives a JSON dump of every /frontend result when set.
	DumpDir string
}

type g2pRequest struct {
	Text    string `json:"text"`
	Kana    bool   `json:"kana"`
	Join    *bool  `json:"join"`
	Prosody bool   `json:"prosody"`
	Marine  bool   `json:"marine"`
}

type frontendRequest struct {
	Text   string `json:"text"`
	Marine bool   `json:"marine"`
}

type frontendResponse struct {
	ID    string              `json:"id"`
	Nodes []model.FeatureNode `json:"nodes"`
}

type handlers struct {
	fe   Frontend
	opts Options
}

// NewEngine returns the gin engine serving GET /health, POST /g2p and
// POST /frontend.
func NewEngine(fe Frontend, opts Options) *gin.Engine {
	h := &handlers{fe: fe, opts: opts}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.POST("/g2p", h.g2p)
	engine.POST("/frontend", h.frontend)
	return engine
}

func (h *handlers) checkText(c *gin.Context, text string) bool {
	if h.opts.MaxTextLength > 0 && utf8.RuneCountInString(text) > h.opts.MaxTextLength {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "text too long"})
		return false
	}
	return true
}

func (h *handlers) g2p(c *gin.Context) {
	var req g2pRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.checkText(c, req.Text) {
		return
	}
	join := req.Join == nil || *req.Join
	res, err := h.fe.G2P(c.Request.Context(), req.Text, jtalk.G2POptions{
		Kana: req.Kana, Join: join, Prosody: req.Prosody, Marine: req.Marine,
	})
	if err != nil {
		internalError(c, err)
		return
	}
	if join {
		c.JSON(http.StatusOK, gin.H{"text": res.Text})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": res.Tokens})
}

func (h *handlers) frontend(c *gin.Context) {
	var req frontendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.checkText(c, req.Text) {
		return
	}
	s := ingest.NewSentence(req.Text)
	nodes, err := h.fe.RunFrontend(c.Request.Context(), s.Text, req.Marine)
	if err != nil {
		internalError(c, err)
		return
	}
	if nodes == nil {
		nodes = []model.FeatureNode{}
	}
	if h.opts.DumpDir != "" {
		dump := jtalk.Frontend{Sentence: s, Nodes: nodes}
		if err := logger.LogJSON(h.opts.DumpDir, s.ID, dump); err != nil {
			log.Warn().Err(err).Str("id", s.ID).Msg("failed to dump frontend result")
		}
	}
	c.JSON(http.StatusOK, frontendResponse{ID: s.ID, Nodes: nodes})
}

func internalError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// Run serves handler on addr until ctx is done, then shuts down within
// shutdownTimeout.
func Run(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}
	return nil
}
