// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

type testConnectionBody struct {
	Provider string `json:"provider"`
}

type previewBody struct {
	Article *types.ArticleInput `json:"article"`
	types.PICOCriteria
}

type screenBody struct {
	Article   *types.ArticleInput `json:"article"`
	Provider  string              `json:"provider"`
	Model     string              `json:"model"`
	ProjectID string              `json:"projectId"`
	ArticleID string              `json:"articleId"`
	types.PICOCriteria
}

type ingestBody struct {
	Database string            `json:"database"`
	Query    string            `json:"query"`
	Records  []types.RawRecord `json:"records"`
}

type batchBody struct {
	ProjectID string `json:"projectId"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	types.PICOCriteria
}

func (s *Server) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": s.providers.Providers()})
}

func (s *Server) listModels(c *gin.Context) {
	models := s.providers.Models()
	if models == nil {
		models = []llm.ModelInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (s *Server) testConnection(c *gin.Context) {
	var body testConnectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if body.Provider == "" {
		badRequest(c, "provider is required")
		return
	}

	p, err := s.providers.Get(body.Provider)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if !p.Available() {
		badRequest(c, (&llm.ConfigurationError{Provider: body.Provider, Reason: "has no API key configured"}).Error())
		return
	}
	c.JSON(http.StatusOK, p.TestConnection(c.Request.Context()))
}

func (s *Server) previewPrompt(c *gin.Context) {
	var body previewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if body.Article == nil || strings.TrimSpace(body.Question) == "" {
		badRequest(c, "article and pico_question are required")
		return
	}

	prompt, err := s.screener.PreviewPrompt(*body.Article, body.PICOCriteria)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": prompt})
}

// screenSingle screens one article without persisting the result.
func (s *Server) screenSingle(c *gin.Context) {
	body, ok := bindScreenBody(c)
	if !ok {
		return
	}
	v, err := s.screener.ScreenArticle(c.Request.Context(), screen.Request{
		Article:  *body.Article,
		Criteria: body.PICOCriteria,
		Provider: body.Provider,
		Model:    body.Model,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": v})
}

// screenAndSave screens one article and, when projectId is set, records the
// verdict against articleId.
func (s *Server) screenAndSave(c *gin.Context) {
	body, ok := bindScreenBody(c)
	if !ok {
		return
	}
	req := screen.Request{
		Article:  *body.Article,
		Criteria: body.PICOCriteria,
		Provider: body.Provider,
		Model:    body.Model,
	}

	var (
		v   types.Verdict
		err error
	)
	switch {
	case body.ProjectID == "":
		v, err = s.screener.ScreenArticle(c.Request.Context(), req)
	case body.ArticleID == "":
		badRequest(c, "articleId is required with projectId")
		return
	default:
		v, err = s.orch.ScreenAndRecord(c.Request.Context(), body.ProjectID, body.ArticleID, req)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": v})
}

func bindScreenBody(c *gin.Context) (screenBody, bool) {
	var body screenBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return body, false
	}
	if body.Article == nil || body.Provider == "" || strings.TrimSpace(body.Question) == "" {
		badRequest(c, "article, provider and pico_question are required")
		return body, false
	}
	return body, true
}

// batchScreen validates the request, then streams the batch as
// server-sent events. Once the stream is open, failures are reported as
// fatal_error events rather than status codes. A client disconnect
// cancels the request context, which stops the batch.
func (s *Server) batchScreen(c *gin.Context) {
	var body batchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if body.ProjectID == "" || body.Provider == "" || strings.TrimSpace(body.Question) == "" {
		badRequest(c, "projectId, provider and pico_question are required")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sink := screen.SinkFunc(func(ctx context.Context, ev screen.Event) error {
		c.SSEvent(string(ev.Type), ev)
		c.Writer.Flush()
		return ctx.Err()
	})

	err := s.orch.Run(c.Request.Context(), screen.BatchRequest{
		ProjectID: body.ProjectID,
		Provider:  body.Provider,
		Model:     body.Model,
		Criteria:  body.PICOCriteria,
	}, sink)
	if err != nil {
		s.logger.Warn("batch screening ended early", zap.String("project", body.ProjectID), zap.Error(err))
	}
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if projects == nil {
		projects = []types.Project{}
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) listArticles(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")
	status := types.ScreeningStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "invalid status filter")
		return
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		s.fail(c, err)
		return
	}
	articles, err := s.store.ListProjectArticles(ctx, projectID, status)
	if err != nil {
		s.fail(c, err)
		return
	}
	if articles == nil {
		articles = []types.ProjectArticle{}
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// ingestSearch stores one database's search results for a project.
func (s *Server) ingestSearch(c *gin.Context) {
	var body ingestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Database) == "" {
		badRequest(c, "database is required")
		return
	}

	sum, err := s.resolver.Ingest(c.Request.Context(), c.Param("id"), body.Database, body.Query, body.Records)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"searchId":   sum.SearchID,
		"saved":      sum.Saved,
		"duplicates": sum.Duplicates,
		"failed":     sum.Failed,
		"total":      sum.Total(),
	})
}

func (s *Server) listScreenings(c *gin.Context) {
	events, err := s.store.ListScreeningEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if events == nil {
		events = []types.ScreeningEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"screenings": events})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// fail maps err onto a status code and writes it as {"error": ...}.
func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
	s.logger.Warn("request failed", zap.String("path", c.FullPath()), zap.Error(err))
}

func statusFor(err error) int {
	var cfgErr *llm.ConfigurationError
	var provErr *llm.ProviderError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &provErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
