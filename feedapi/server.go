// Package feedapi serves the item store over HTTP.
package feedapi

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"charm.land/log/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/grantfeed/classify"
	"github.com/pevans/grantfeed/store"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// Config holds the settings of an APIServer.
type Config struct {
	// Annotate posted candidates with a category and tier
	Classify bool
	Logger   *log.Logger
}

// APIServer serves the items of one store. It holds the current items in
// memory; every merge and persist goes through mu so there is a single
// writer.
type APIServer struct {
	store    *store.Store
	classify bool
	logger   *log.Logger

	mu    sync.RWMutex
	items []store.Item
}

// NewAPIServer loads st and creates a server over its items.
func NewAPIServer(ctx context.Context, st *store.Store, config *Config) *APIServer {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &APIServer{
		store:    st,
		classify: config.Classify,
		logger:   logger,
		items:    st.Load(ctx),
	}
}

// SetupRouter configures the gin router with all item routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1/items")
	api.GET("", s.HandleListItems)
	api.GET("/:id", s.HandleGetItem)
	api.POST("", s.HandleMergeItems)

	return router
}

func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Handled request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// ListItemsResponse is the body of GET /api/v1/items.
type ListItemsResponse struct {
	Items  []store.Item `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// MergeRequest is the body of POST /api/v1/items.
type MergeRequest struct {
	Candidates []CandidateRequest `json:"candidates" binding:"required"`
}

// CandidateRequest is one posted listing.
type CandidateRequest struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Detail   string `json:"detail,omitempty"`
	Category string `json:"category,omitempty"`
	Tier     string `json:"tier,omitempty"`
}

// MergeResponse is the body returned by POST /api/v1/items.
type MergeResponse struct {
	NewCount int `json:"new_count"`
	Total    int `json:"total"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// HandleListItems handles GET /api/v1/items. Items keep store order, newest
// block first.
func (s *APIServer) HandleListItems(c *gin.Context) {
	s.mu.RLock()
	items := s.items
	s.mu.RUnlock()

	if param := c.Query("category"); param != "" {
		category, ok := classify.ParseCategory(param)
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid_parameter", "Unknown category: "+param)
			return
		}
		items = filterByCategory(items, string(category))
	}

	if since := c.Query("since"); since != "" {
		if _, err := time.Parse(store.DateLayout, since); err != nil {
			writeError(c, http.StatusBadRequest, "invalid_parameter",
				"Invalid since parameter: must be YYYY-MM-DD")
			return
		}
		items = filterBySince(items, since)
	}

	total := len(items)

	limit := defaultLimit
	if param := c.Query("limit"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed < 1 {
			writeError(c, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = min(parsed, maxLimit)
	}

	offset := 0
	if param := c.Query("offset"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed < 0 {
			writeError(c, http.StatusBadRequest, "invalid_parameter", "Invalid offset parameter")
			return
		}
		offset = parsed
	}

	c.JSON(http.StatusOK, ListItemsResponse{
		Items:  paginate(items, offset, limit),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleGetItem handles GET /api/v1/items/:id.
func (s *APIServer) HandleGetItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_id", "Invalid item ID: "+err.Error())
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			c.JSON(http.StatusOK, item)
			return
		}
	}

	writeError(c, http.StatusNotFound, "not_found", "Item with ID "+id.String()+" not found")
}

// HandleMergeItems handles POST /api/v1/items. The merge is kept in memory
// even when persisting it fails.
func (s *APIServer) HandleMergeItems(c *gin.Context) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}

	candidates := make([]store.Candidate, 0, len(req.Candidates))
	for _, cr := range req.Candidates {
		candidate := store.Candidate{
			Title:    cr.Title,
			Link:     cr.Link,
			Detail:   cr.Detail,
			Category: cr.Category,
			Tier:     cr.Tier,
		}
		if s.classify && candidate.Category == "" {
			cl := classify.Classify(candidate.Title + " " + candidate.Detail)
			candidate.Category = string(cl.Category)
			candidate.Tier = string(cl.Tier)
		}
		candidates = append(candidates, candidate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged, newCount := s.store.Merge(s.items, candidates)
	s.items = merged

	if err := s.store.Persist(c.Request.Context(), merged); err != nil {
		s.logger.Error("Merged items not saved", "new", newCount, "err", err)
		writeError(c, http.StatusInternalServerError, "persist_failed", err.Error())
		return
	}

	s.logger.Info("Merged posted candidates", "candidates", len(candidates), "new", newCount, "total", len(merged))
	c.JSON(http.StatusOK, MergeResponse{NewCount: newCount, Total: len(merged)})
}

func filterByCategory(items []store.Item, category string) []store.Item {
	filtered := []store.Item{}
	for _, item := range items {
		if item.Category == category {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// filterBySince keeps items discovered on or after since. Dates in
// DateLayout order lexically.
func filterBySince(items []store.Item, since string) []store.Item {
	filtered := []store.Item{}
	for _, item := range items {
		if item.DiscoveredDate >= since {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// paginate returns a slice of items for the given offset and limit.
func paginate(items []store.Item, offset, limit int) []store.Item {
	if offset >= len(items) {
		return []store.Item{}
	}

	end := min(offset+limit, len(items))

	return items[offset:end]
}
