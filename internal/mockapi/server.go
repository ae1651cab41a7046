package mockapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"peoplecatalog/internal/api/dto/common"
	"peoplecatalog/internal/api/dto/v1/person"
	"peoplecatalog/internal/logging"
)

// Server is an in-memory stand-in for the People Catalog backend. It
// implements the four /api/persons endpoints with the same wire shapes
// and problem-body convention, so the client can be run and
// integration-tested without the real service.
type Server struct {
	engine *gin.Engine
	store  *memStore
	logger *logging.Logger
}

// RateLimit defines the fixture's token-bucket settings.
type RateLimit struct {
	RPS   int
	Burst int
}

// NewServer creates a fixture server. A zero RateLimit disables
// throttling, which tests rely on.
func NewServer(logger *logging.Logger, limit RateLimit) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		store:  newMemStore(),
		logger: logger,
	}

	if logger != nil {
		engine.Use(requestLogger(logger))
	}
	if limit.RPS > 0 {
		engine.Use(rateLimitMiddleware(limit))
	}

	engine.GET("/api/persons", s.listPersons)
	engine.POST("/api/persons", s.createPerson)
	engine.PUT("/api/persons/:personId", s.updatePerson)
	engine.DELETE("/api/persons/:personId", s.deletePerson)

	return s
}

// Engine exposes the router for httptest.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves on the given address until the listener fails.
func (s *Server) Run(addr string) error {
	if s.logger != nil {
		s.logger.Info("Fixture persons API listening on %s", addr)
	}
	return s.engine.Run(addr)
}

// Seed inserts records directly into the store.
func (s *Server) Seed(people ...person.Person) {
	for _, p := range people {
		s.store.insert(p)
	}
}

// Persons returns a snapshot of the stored records, for test assertions.
func (s *Server) Persons() []person.Person {
	return s.store.snapshot()
}

func (s *Server) listPersons(c *gin.Context) {
	query := person.ListQuery{Page: 1, PageSize: 10}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			problem(c, http.StatusBadRequest, "Bad request", "Invalid page parameter")
			return
		}
		query.Page = page
	}
	if raw := c.Query("pageSize"); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil || pageSize < 1 {
			problem(c, http.StatusBadRequest, "Bad request", "Invalid pageSize parameter")
			return
		}
		query.PageSize = pageSize
	}
	if raw := c.Query("isActive"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			problem(c, http.StatusBadRequest, "Bad request", "Invalid isActive parameter")
			return
		}
		query.IsActive = &isActive
	}
	query.Search = c.Query("search")

	c.JSON(http.StatusOK, s.store.list(query))
}

func (s *Server) createPerson(c *gin.Context) {
	var req person.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingProblem(c, err)
		return
	}

	created, err := s.store.create(req)
	if err != nil {
		if errors.Is(err, ErrDuplicateDocument) {
			problem(c, http.StatusConflict, "Conflict", "Document number already exists")
			return
		}
		problem(c, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) updatePerson(c *gin.Context) {
	var req person.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingProblem(c, err)
		return
	}

	err := s.store.update(c.Param("personId"), req)
	switch {
	case errors.Is(err, ErrNotFound):
		problem(c, http.StatusNotFound, "Not found", "Person not found")
	case errors.Is(err, ErrDuplicateDocument):
		problem(c, http.StatusConflict, "Conflict", "Document number already exists")
	case err != nil:
		problem(c, http.StatusInternalServerError, "Internal error", err.Error())
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) deletePerson(c *gin.Context) {
	err := s.store.softDelete(c.Param("personId"))
	switch {
	case errors.Is(err, ErrNotFound):
		problem(c, http.StatusNotFound, "Not found", "Person not found")
	case err != nil:
		problem(c, http.StatusInternalServerError, "Internal error", err.Error())
	default:
		c.Status(http.StatusNoContent)
	}
}

func problem(c *gin.Context, status int, title, detail string) {
	c.JSON(status, common.NewProblem(status, title, detail))
}

// bindingProblem renders a malformed or invalid payload as a problem
// body with field-scoped errors where the validator provides them.
func bindingProblem(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fieldErrors := make(map[string][]string, len(validationErrors))
		for _, e := range validationErrors {
			fieldErrors[e.Field()] = append(fieldErrors[e.Field()], e.Tag())
		}
		c.JSON(http.StatusBadRequest, common.NewValidationProblem(http.StatusBadRequest, "Invalid payload", fieldErrors))
		return
	}
	problem(c, http.StatusBadRequest, "Bad request", "Invalid payload")
}

// requestLogger logs each request through the shared logger.
func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogHTTPRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start).String(),
		)
	}
}

// rateLimitMiddleware throttles the fixture with a token bucket.
func rateLimitMiddleware(limit RateLimit) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(limit.RPS), limit.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				common.NewProblem(http.StatusTooManyRequests, "Too many requests", "Rate limit exceeded. Please try again later."))
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.RPS))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		c.Next()
	}
}
