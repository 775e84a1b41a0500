package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	fixpoint "github.com/njchilds90/gofixpoint"
)

var validate = validator.New()

// SearchRequest is the body of /calculate and /analyze. Omitted budget
// fields take the searcher's defaults.
type SearchRequest struct {
	Func      string   `json:"func" validate:"required,max=4096"`
	MaxIter   *int     `json:"max_iter,omitempty" validate:"omitempty,gt=0"`
	Tolerance *float64 `json:"tolerance,omitempty" validate:"omitempty,gt=0"`
}

func (s *Server) handleCalculate(c *gin.Context) {
	req, ok := s.bindSearch(c)
	if !ok {
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	roots, err := s.searcher.Search(ctx, req.Func, *req.MaxIter, *req.Tolerance)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": roots})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	req, ok := s.bindSearch(c)
	if !ok {
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	rep, err := s.searcher.Analyze(ctx, req.Func, *req.MaxIter, *req.Tolerance)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": rep})
}

func (s *Server) handleTool(c *gin.Context) {
	var req fixpoint.ToolRequest
	if err := decodeStrict(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	resp := s.searcher.HandleToolCall(ctx, req)
	if err := ctx.Err(); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", []byte(fixpoint.ToolSpec()))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// bindSearch decodes and validates a search body, filling in defaults. On
// failure it has already written a 400.
func (s *Server) bindSearch(c *gin.Context) (*SearchRequest, bool) {
	var req SearchRequest
	if err := decodeStrict(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return nil, false
	}
	defaults := s.searcher.Options()
	if req.MaxIter == nil {
		req.MaxIter = &defaults.DefaultMaxIter
	}
	if req.Tolerance == nil {
		req.Tolerance = &defaults.DefaultTolerance
	}
	return &req, true
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(c *gin.Context, v any) error {
	if c.Request.Body == nil {
		return errors.New("empty request body")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.opts.RequestTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

// fail maps a search error to its status: cancellation and timeouts are
// 503, everything else the caller can fix is 400.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusBadRequest
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	s.logger.Debug("request failed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("outcome", fixpoint.Outcome(err)),
		zap.Error(err),
	)
	c.JSON(status, gin.H{"error": err.Error()})
}
