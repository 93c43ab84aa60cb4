package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/edugen/internal/questiongen"
	"github.com/abhisek/edugen/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

type createDocumentRequest struct {
	Title    string `json:"title" binding:"required"`
	Language string `json:"language"`
	Content  string `json:"content" binding:"required"`
}

func (s *Server) handleCreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	doc, err := s.documents.Create(c.Request.Context(), req.Title, req.Language, req.Content)
	if err != nil {
		s.internalError(c, "failed to create document", err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(c *gin.Context) {
	opts, ok := queryOpts(c)
	if !ok {
		return
	}
	docs, err := s.documents.List(c.Request.Context(), opts)
	if err != nil {
		s.internalError(c, "failed to list documents", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(docs))
}

func (s *Server) handleGetDocument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := s.documents.Get(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, "document", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// handleGenerate answers 200 with the stored questions, which may be an
// empty list when the model produced nothing usable or an identical run is
// already in progress.
func (s *Server) handleGenerate(c *gin.Context) {
	documentID, err := strconv.ParseInt(c.Query("documentId"), 10, 64)
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "documentId query parameter must be a positive integer"})
		return
	}

	var req questiongen.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	if _, err := s.documents.Get(c.Request.Context(), documentID); err != nil {
		s.storeError(c, "document", err)
		return
	}

	// A disconnecting client does not abort a run that is already writing.
	ctx := context.WithoutCancel(c.Request.Context())
	questions, err := s.generator.Generate(ctx, documentID, req)
	if err != nil {
		if errors.Is(err, questiongen.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.internalError(c, "question generation failed", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(questions))
}

func (s *Server) handleListQuestions(c *gin.Context) {
	opts, ok := queryOpts(c)
	if !ok {
		return
	}
	questions, err := s.questions.List(c.Request.Context(), opts)
	if err != nil {
		s.internalError(c, "failed to list questions", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(questions))
}

func (s *Server) handleGetQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	q, err := s.questions.Get(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, "question", err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleDeleteQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.questions.Delete(c.Request.Context(), id); err != nil {
		s.storeError(c, "question", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleQuestionsByDocument(c *gin.Context) {
	id, ok := pathID(c, "documentId")
	if !ok {
		return
	}
	questions, err := s.questions.ListByDocument(c.Request.Context(), id)
	if err != nil {
		s.internalError(c, "failed to list questions", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(questions))
}

func (s *Server) handleQuestionsByType(c *gin.Context) {
	qt, ok := questiongen.ParseType(c.Param("type"))
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown question type: " + c.Param("type")})
		return
	}
	questions, err := s.questions.ListByType(c.Request.Context(), string(qt))
	if err != nil {
		s.internalError(c, "failed to list questions", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(questions))
}

func (s *Server) storeError(c *gin.Context, what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: what + " not found"})
		return
	}
	s.internalError(c, "failed to load "+what, err)
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, zap.Error(err), zap.String("request_id", c.GetString("request_id")))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: msg})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

// queryOpts reads limit, after and before query parameters.
func queryOpts(c *gin.Context) (store.QueryOpts, bool) {
	var opts store.QueryOpts
	for name, dst := range map[string]*int64{"after": &opts.After, "before": &opts.Before} {
		if v := c.Query(name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, errorResponse{Error: name + " must be a non-negative integer"})
				return opts, false
			}
			*dst = n
		}
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return opts, false
		}
		opts.Limit = n
	}
	return opts, true
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
