// Package api exposes the public application form and the admin console
// over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"recruitment-portal/internal/common/auth"
	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/observability"
	"recruitment-portal/internal/dashboard"
	"recruitment-portal/internal/intake"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/search"
	"recruitment-portal/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TokenValidator checks operator bearer tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.TokenInfo, error)
}

// Authenticator signs operators in and out.
type Authenticator interface {
	TokenValidator
	Login(ctx context.Context, username, password string) (*auth.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Submitter stores a completed application form.
type Submitter interface {
	Submit(ctx context.Context, f *intake.Form) (*intake.Result, error)
}

// ApplicantRepository is the operator-facing side of the applicant table.
type ApplicantRepository interface {
	Get(ctx context.Context, id int64) (*models.Applicant, error)
	GetMany(ctx context.Context, ids []int64) ([]models.Applicant, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) error
	UpdateNotes(ctx context.Context, id int64, notes string) error
	UpdateFields(ctx context.Context, id int64, edit models.ApplicantEdit) error
	Delete(ctx context.Context, id int64) error
	BulkUpdateStatus(ctx context.Context, ids []int64, status models.Status) (int64, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
}

// MasterRepository manages clients, positions and placements.
type MasterRepository interface {
	Load(ctx context.Context) (models.MasterData, error)
	CreateClient(ctx context.Context, name string) (*models.JobClient, error)
	CreatePosition(ctx context.Context, clientID int64, name string) (*models.JobPosition, error)
	CreatePlacement(ctx context.Context, positionID int64, location, recruiterPhone string) (*models.JobPlacement, error)
	RenameClient(ctx context.Context, id int64, name string) error
	RenamePosition(ctx context.Context, id int64, name string) error
	UpdatePlacement(ctx context.Context, id int64, location, recruiterPhone string) error
	SetActive(ctx context.Context, kind store.MasterKind, id int64, active bool) error
	DeleteClient(ctx context.Context, id int64) (store.DeletionPlan, error)
	DeletePosition(ctx context.Context, id int64) (store.DeletionPlan, error)
	DeletePlacement(ctx context.Context, id int64) (store.DeletionPlan, error)
}

// Searcher is the full-text applicant index.
type Searcher interface {
	Search(ctx context.Context, q string, from, size int) (*search.Result, error)
	Put(ctx context.Context, doc search.Document) error
	Remove(ctx context.Context, ids ...int64) error
}

// ChangeNotifier announces table changes to live consoles.
type ChangeNotifier interface {
	Notify(ctx context.Context, table, op string, ids ...int64)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Deps are the collaborators of the HTTP layer. Search, Notifier, Changes,
// Observability, Checks and Location are optional.
type Deps struct {
	Config        *config.Config
	Auth          Authenticator
	Intake        Submitter
	Applicants    ApplicantRepository
	Master        MasterRepository
	Dashboard     *dashboard.Service
	Search        Searcher
	Notifier      ChangeNotifier
	Changes       dashboard.ChangeSource
	Observability *observability.Observability
	Checks        map[string]ReadinessCheck
	Location      *time.Location
	Logger        logger.Logger
}

// Server holds the handlers.
type Server struct {
	deps   Deps
	logger logger.Logger
	now    func() time.Time
}

func NewServer(deps Deps) *Server {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &Server{
		deps:   deps,
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(s.logger), Metrics())
	r.Use(cors.New(corsConfig(s.deps.Config.HTTP.AllowedOrigins)))

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/applications", s.submitApplication)
		v1.GET("/options", s.publicOptions)
		v1.POST("/auth/login", s.login)
		v1.POST("/auth/logout", s.logout)
	}

	admin := v1.Group("/admin", RequireRole(s.deps.Auth, s.deps.Config.Auth.Keycloak.AdminRole))
	{
		admin.GET("/applicants", s.listApplicants)
		admin.POST("/applicants/view", s.reduceView)
		admin.GET("/applicants/:id", s.getApplicant)
		admin.PATCH("/applicants/:id", s.editApplicant)
		admin.PATCH("/applicants/:id/status", s.updateStatus)
		admin.PATCH("/applicants/:id/notes", s.updateNotes)
		admin.DELETE("/applicants/:id", s.deleteApplicant)
		admin.POST("/applicants/:id/message", s.composeMessage)
		admin.POST("/applicants/bulk/status", s.bulkStatus)
		admin.POST("/applicants/bulk/delete", s.bulkDelete)
		admin.POST("/applicants/export", s.exportApplicants)
		admin.GET("/search", s.searchApplicants)
		admin.GET("/stats", s.stats)
		admin.GET("/messages/templates", s.messageTemplates)
		admin.GET("/live", s.live)

		admin.GET("/master", s.masterData)
		admin.POST("/master/:kind", s.createMaster)
		admin.PATCH("/master/:kind/:id", s.updateMaster)
		admin.PATCH("/master/:kind/:id/active", s.setMasterActive)
		admin.DELETE("/master/:kind/:id", s.deleteMaster)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", HeaderRequestID}
	cfg.ExposeHeaders = []string{HeaderRequestID, "Content-Disposition"}
	return cfg
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.deps.Config.App.Version})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": checks})
}
