// Package server exposes report generation over a gin HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"reportgen/internal/account"
	"reportgen/internal/archive"
	"reportgen/internal/decoder"
	"reportgen/internal/domain"
	"reportgen/internal/logging"
	"reportgen/internal/service"
)

const (
	// SessionHeader carries the token returned by /api/login.
	SessionHeader = "X-Session-Token"

	userKey = "user"

	msgDecodeFailed = "There was an error processing the PDF. Please try again."
	msgExportFailed = "There was an error generating the PDF. Please try again."
)

// Accounts is the account store as used by the API.
type Accounts interface {
	SignUp(name, email, password string) (*account.User, error)
	Authenticate(email, password string) (*account.User, error)
	StartSession(email string) (*account.Session, error)
	Session(token string) (*account.User, error)
	EndSession(token string) error
}

// Reports is the report service as used by the API.
type Reports interface {
	Generate(ctx context.Context, req service.GenerateRequest) (*domain.Report, error)
	ExportReport(rep *domain.Report, dir string) (string, error)
	History(ctx context.Context, owner string, limit int) ([]domain.Report, error)
	Find(ctx context.Context, id string) (*domain.Report, error)
}

// Server routes API requests to the account store and report service.
type Server struct {
	engine   *gin.Engine
	accounts Accounts
	reports  Reports
	decoder  domain.Decoder
	logger   *logrus.Entry
}

// New builds the router.
func New(accounts Accounts, reports Reports, dec domain.Decoder, logger *logrus.Entry) *Server {
	s := &Server{
		engine:   gin.New(),
		accounts: accounts,
		reports:  reports,
		decoder:  dec,
		logger:   logging.Component(logger, "http"),
	}
	s.engine.Use(gin.Recovery(), requestLogger(s.logger))

	api := s.engine.Group("/api")
	api.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	api.POST("/signup", s.signUp)
	api.POST("/login", s.login)
	api.POST("/logout", s.logout)

	authed := api.Group("", s.requireSession)
	authed.POST("/reports", s.createReport)
	authed.GET("/reports", s.listReports)
	authed.GET("/reports/:id", s.getReport)
	authed.GET("/reports/:id/download", s.downloadReport)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("listening on http")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("request")
	}
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type reportResponse struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Matches   int       `json:"matches"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(r *domain.Report) reportResponse {
	return reportResponse{ID: r.ID, Prompt: r.Prompt, Source: r.Source, Content: r.Content, Matches: r.Matches, CreatedAt: r.CreatedAt}
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (s *Server) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, domain.UserMessage(account.ErrMissingFields))
		return
	}
	user, err := s.accounts.SignUp(req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, account.ErrMissingFields):
		abortWithError(c, http.StatusBadRequest, domain.UserMessage(err))
	case errors.Is(err, account.ErrEmailTaken):
		abortWithError(c, http.StatusConflict, domain.UserMessage(err))
	case err != nil:
		s.internalError(c, "sign up", err)
	default:
		c.JSON(http.StatusCreated, gin.H{"name": user.Name, "email": user.Email})
	}
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, domain.UserMessage(account.ErrInvalidCredentials))
		return
	}
	user, err := s.accounts.Authenticate(req.Email, req.Password)
	if errors.Is(err, account.ErrInvalidCredentials) {
		abortWithError(c, http.StatusUnauthorized, domain.UserMessage(err))
		return
	}
	if err != nil {
		s.internalError(c, "authenticate", err)
		return
	}
	sess, err := s.accounts.StartSession(user.Email)
	if err != nil {
		s.internalError(c, "start session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "name": user.Name, "email": user.Email})
}

func (s *Server) logout(c *gin.Context) {
	if token := c.GetHeader(SessionHeader); token != "" {
		if err := s.accounts.EndSession(token); err != nil {
			s.internalError(c, "end session", err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) requireSession(c *gin.Context) {
	user, err := s.accounts.Session(c.GetHeader(SessionHeader))
	if errors.Is(err, account.ErrSessionNotFound) {
		abortWithError(c, http.StatusUnauthorized, "Please log in.")
		return
	}
	if err != nil {
		s.internalError(c, "resolve session", err)
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func currentUser(c *gin.Context) *account.User {
	return c.MustGet(userKey).(*account.User)
}

func (s *Server) createReport(c *gin.Context) {
	prompt := strings.TrimSpace(c.PostForm("prompt"))
	if prompt == "" {
		abortWithError(c, http.StatusBadRequest, domain.UserMessage(service.ErrPromptRequired))
		return
	}
	fh, err := c.FormFile("document")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, domain.UserMessage(service.ErrDocumentRequired))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.internalError(c, "open upload", err)
		return
	}
	defer f.Close()

	doc, err := s.decoder.Decode(c.Request.Context(), f, fh.Size, filepath.Base(fh.Filename))
	if errors.Is(err, decoder.ErrUnsupportedFormat) {
		abortWithError(c, http.StatusUnsupportedMediaType, domain.UserMessage(service.ErrDocumentRequired))
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("document", fh.Filename).Warn("decode upload")
		abortWithError(c, http.StatusUnprocessableEntity, msgDecodeFailed)
		return
	}

	rep, err := s.reports.Generate(c.Request.Context(), service.GenerateRequest{
		Prompt:   prompt,
		Document: &doc,
		Owner:    currentUser(c).Email,
	})
	if err != nil {
		s.internalError(c, "generate report", err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(rep))
}

func (s *Server) listReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	reports, err := s.reports.History(c.Request.Context(), currentUser(c).Email, limit)
	if err != nil {
		s.internalError(c, "list reports", err)
		return
	}
	out := make([]reportResponse, len(reports))
	for i := range reports {
		out[i] = toResponse(&reports[i])
	}
	c.JSON(http.StatusOK, out)
}

// ownedReport loads the :id report, answering 404 for missing reports and
// reports of other users.
func (s *Server) ownedReport(c *gin.Context) (*domain.Report, bool) {
	rep, err := s.reports.Find(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, archive.ErrNotFound), errors.Is(err, service.ErrNoReport):
	case err != nil:
		s.internalError(c, "find report", err)
		return nil, false
	case rep.Owner == currentUser(c).Email:
		return rep, true
	}
	abortWithError(c, http.StatusNotFound, domain.UserMessage(service.ErrNoReport))
	return nil, false
}

func (s *Server) getReport(c *gin.Context) {
	if rep, ok := s.ownedReport(c); ok {
		c.JSON(http.StatusOK, toResponse(rep))
	}
}

func (s *Server) downloadReport(c *gin.Context) {
	rep, ok := s.ownedReport(c)
	if !ok {
		return
	}
	dir, err := os.MkdirTemp("", "reportgen-download-")
	if err != nil {
		s.internalError(c, "create temp dir", err)
		return
	}
	defer os.RemoveAll(dir)

	path, err := s.reports.ExportReport(rep, dir)
	if err != nil {
		s.logger.WithError(err).WithField("report", rep.ID).Error("export report")
		abortWithError(c, http.StatusInternalServerError, msgExportFailed)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.WithError(err).Error(op)
	abortWithError(c, http.StatusInternalServerError, "internal error")
}
