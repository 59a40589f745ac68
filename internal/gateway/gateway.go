// Package gateway serves the TalentFlow REST API from an in-process store.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"talentflow/internal/blob"
	"talentflow/internal/store"
	"talentflow/internal/talentflow"
)

// Options holds the gateway's collaborators. Zero values are replaced with
// working defaults in New.
type Options struct {
	Clock  talentflow.Clock
	IDs    talentflow.IDGenerator
	Faults talentflow.FaultPolicy
	Logger talentflow.Logger

	// Blobs receives the raw assessment submissions.
	Blobs talentflow.BlobStore

	// Session identifies the acting user for stage changes and notes.
	Session talentflow.SessionStore

	// Auth serves the /api/auth routes. When nil, an AuthService over the
	// gateway's own store and Session is used.
	Auth *talentflow.AuthService

	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
	AllowOrigins   []string
}

// Gateway answers API requests from its store. Every request runs to
// completion under one mutex, so at most one handler touches the store at a time.
type Gateway struct {
	db      *store.Store
	clock   talentflow.Clock
	ids     talentflow.IDGenerator
	faults  talentflow.FaultPolicy
	logger  talentflow.Logger
	blobs   talentflow.BlobStore
	session talentflow.SessionStore
	auth    *talentflow.AuthService

	mu     sync.Mutex
	engine *gin.Engine
}

// New builds a gateway over db and registers every route.
func New(db *store.Store, opts Options) *Gateway {
	if opts.Clock == nil {
		opts.Clock = talentflow.RealClock{}
	}
	if opts.IDs == nil {
		opts.IDs = talentflow.UUIDGenerator{}
	}
	if opts.Faults == nil {
		opts.Faults = talentflow.NewRandomFaults(0.1, nil)
	}
	if opts.Logger == nil {
		opts.Logger = talentflow.NewNopLogger()
	}
	if opts.Blobs == nil {
		opts.Blobs = blob.NewMemoryStore()
	}
	if opts.Session == nil {
		opts.Session = talentflow.NewBlobSession(opts.Blobs)
	}
	if opts.Auth == nil {
		opts.Auth = talentflow.NewAuthService(db.Users(), opts.Session, opts.Clock, opts.Logger)
	}

	g := &Gateway{
		db:      db,
		clock:   opts.Clock,
		ids:     opts.IDs,
		faults:  opts.Faults,
		logger:  opts.Logger.With("component", "gateway"),
		blobs:   opts.Blobs,
		session: opts.Session,
		auth:    opts.Auth,
	}

	r := gin.New()
	r.Use(g.recovery(), g.requestLogger())
	if len(opts.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Accept", "Content-Type"},
		}))
	}
	if opts.RateLimitRPS > 0 {
		r.Use(newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).middleware())
	}
	g.routes(r)
	g.engine = r
	return g
}

func (g *Gateway) routes(r *gin.Engine) {
	r.GET("/health", g.health)

	api := r.Group("/api", g.serialize())
	{
		jobs := api.Group("/jobs")
		jobs.GET("", g.listJobs)
		jobs.POST("", g.createJob)
		jobs.GET("/:id", g.getJob)
		jobs.PATCH("/:id", g.patchJob)
		jobs.DELETE("/:id", g.deleteJob)
		jobs.PATCH("/:id/reorder", g.reorderJob)

		candidates := api.Group("/candidates")
		candidates.GET("", g.listCandidates)
		candidates.POST("", g.createCandidate)
		candidates.GET("/:id", g.getCandidate)
		candidates.PATCH("/:id", g.patchCandidate)
		candidates.GET("/:id/timeline", g.candidateTimeline)
		candidates.POST("/:id/notes", g.addCandidateNote)

		assessments := api.Group("/assessments")
		assessments.GET("/:jobId", g.getAssessment)
		assessments.PUT("/:jobId", g.putAssessment)
		assessments.GET("/:jobId/questions", g.assessmentQuestions)
		assessments.POST("/:jobId/submit", g.submitAssessment)

		auth := api.Group("/auth")
		auth.POST("/login", g.login)
		auth.POST("/signup", g.signup)
		auth.POST("/logout", g.logout)
		auth.GET("/session", g.currentSession)

		api.GET("/users", g.listUsers)
		api.GET("/stats", g.stats)
	}
}

// Handler returns the gateway as an http.Handler.
func (g *Gateway) Handler() http.Handler {
	return g.engine
}

// NewMirror copies every record of src into a fresh in-memory store.
// Writes to the mirror are not seen by src, and the reverse.
func NewMirror(ctx context.Context, src *store.Store) (*store.Store, error) {
	snap, err := src.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting local store: %w", err)
	}
	mirror, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("opening mirror: %w", err)
	}
	if err := mirror.Import(ctx, snap); err != nil {
		mirror.Close()
		return nil, fmt.Errorf("loading mirror: %w", err)
	}
	return mirror, nil
}

func (g *Gateway) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// actingUser returns the logged-in user's id, or 0.
func (g *Gateway) actingUser(ctx context.Context) int64 {
	id, ok, err := g.session.UserID(ctx)
	if err != nil {
		g.logger.Warn("reading session failed", "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	return id
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
