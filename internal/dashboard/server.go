// Package dashboard serves the exploration, model comparison and prediction
// pages over HTTP.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/YuminosukeSato/crimescope/internal/analysis"
	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/features"
	"github.com/YuminosukeSato/crimescope/internal/training"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
	"github.com/YuminosukeSato/crimescope/pkg/log"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed content/intro.md
var introMarkdown []byte

// ModelMissingMessage is shown wherever a page needs the trained model.
const ModelMissingMessage = "model not found, run `crimescope train` first"

var pages = []string{"index", "eda", "modeling", "predict"}

// Server holds the dataset and model for the lifetime of the process.
type Server struct {
	frame   *dataset.Frame
	summary dataset.Summary
	bundle  *training.Bundle

	// targetMean is the dataset mean of the victims total, the baseline a
	// prediction is compared against.
	targetMean float64

	templates map[string]*template.Template
	intro     template.HTML
	router    *gin.Engine
	logger    log.Logger
}

// New builds a Server around a loaded frame. bundle may be nil, in which
// case the model pages show ModelMissingMessage. Rate columns are added to
// frame when absent.
func New(frame *dataset.Frame, bundle *training.Bundle) (*Server, error) {
	if frame == nil {
		return nil, errors.NewValueError("dashboard.New", "nil dataset")
	}
	if len(features.RateColumns(frame)) == 0 {
		if err := features.AddRatesPer100k(frame); err != nil {
			return nil, err
		}
	}
	tmpls, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		frame:      frame,
		summary:    frame.Summary(),
		bundle:     bundle,
		targetMean: targetMean(frame),
		templates:  tmpls,
		intro:      renderMarkdown(introMarkdown),
		logger:     log.GetLogger().With(log.ComponentKey, "dashboard"),
	}
	s.router = s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/", s.handleIndex)
	r.GET("/eda", s.handleEDA)
	r.GET("/modeling", s.handleModeling)
	r.GET("/predict", s.handlePredictForm)
	r.POST("/predict", s.handlePredictSubmit)
	r.GET("/charts/:name", s.handleChart)

	api := r.Group("/api")
	api.GET("/summary", s.handleAPISummary)
	api.GET("/results", s.handleAPIResults)
	api.POST("/predict", s.handleAPIPredict)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "model_loaded": s.bundle != nil})
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("dashboard shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func targetMean(frame *dataset.Frame) float64 {
	values, _ := frame.Numeric(dataset.ColTotalVictims)
	return analysis.Describe(values).Mean
}

func parseTemplates() (map[string]*template.Template, error) {
	base, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse layout")
	}
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, errors.Wrap(err, "clone layout")
		}
		if _, err := t.ParseFS(templateFS, "templates/"+page+".html"); err != nil {
			return nil, errors.Wrapf(err, "parse %s", page)
		}
		out[page] = t
	}
	return out, nil
}

func renderMarkdown(md []byte) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return template.HTML(markdown.ToHTML(md, p, r))
}

// render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (s *Server) render(c *gin.Context, status int, page string, data any) {
	t, ok := s.templates[page]
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown page " + page})
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error("template failed", err, "page", page)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
