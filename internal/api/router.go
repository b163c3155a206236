package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/scopeforge/engine/internal/api/handlers"
	mw "github.com/scopeforge/engine/internal/api/middleware"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/metrics"
)

type Dependencies struct {
	Tokens      *auth.TokenIssuer
	Metrics     *metrics.Metrics
	RateLimiter *mw.RateLimiter
	CORSOrigins []string
	SwaggerURL  string

	HealthHandler        *handlers.HealthHandler
	AuthHandler          *handlers.AuthHandler
	OrganizationsHandler *handlers.OrganizationsHandler
	ProjectsHandler      *handlers.ProjectsHandler
	ArtifactsHandler     *handlers.ArtifactsHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging(dep.Metrics))
	r.Use(mw.CORS(dep.CORSOrigins))
	if dep.RateLimiter != nil {
		r.Use(dep.RateLimiter.Middleware)
	}
	r.Use(chimid.Compress(5))

	r.Get("/healthz", dep.HealthHandler.Liveness)
	r.Get("/readyz", dep.HealthHandler.Readiness)
	if dep.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", dep.Metrics.Handler())
	}

	swaggerURL := dep.SwaggerURL
	if swaggerURL == "" {
		swaggerURL = "/docs/doc.json"
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", dep.AuthHandler.Register)
			ar.Post("/login", dep.AuthHandler.Login)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.Tokens))

			protected.Get("/auth/me", dep.AuthHandler.Me)

			protected.Route("/organizations", func(or chi.Router) {
				or.Get("/", dep.OrganizationsHandler.List)
				or.Post("/", dep.OrganizationsHandler.Create)
				or.Post("/{orgID}/invitations", dep.OrganizationsHandler.Invite)
				or.Post("/{orgID}/invitations/accept", dep.OrganizationsHandler.Accept)
				or.Post("/{orgID}/invitations/decline", dep.OrganizationsHandler.Decline)
			})

			protected.Route("/projects", func(pr chi.Router) {
				pr.Get("/", dep.ProjectsHandler.List)
				pr.Post("/", dep.ProjectsHandler.Create)

				pr.Route("/{projectID}", func(p chi.Router) {
					p.Get("/", dep.ProjectsHandler.Get)
					p.Get("/members", dep.ProjectsHandler.ListMembers)
					p.Post("/members", dep.ProjectsHandler.AddMember)
					p.Get("/inputs", dep.ProjectsHandler.ListInputs)
					p.Post("/inputs", dep.ProjectsHandler.AddInput)
					p.Get("/activities", dep.ProjectsHandler.ListActivities)
					p.Get("/ai-runs", dep.ProjectsHandler.ListAIRuns)
					dep.ArtifactsHandler.Mount(p)
				})
			})
		})
	})

	return r
}
