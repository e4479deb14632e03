package handlers

import (
	"net/http"
	"strings"

	"github.com/nkiryanov/realestate/internal/handlers/middleware"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/models"
)

const APIPrefix = "/api/v1"

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	// Directory uploaded files are stored in and URL prefix they are served at
	UploadsDir string
	UploadsURL string

	CORS middleware.CORSConfig

	// Limiter of login and refresh attempts, not limited if nil
	AuthLimiter *middleware.RateLimiter

	Logger logger.Logger
}

func NewRouter(
	authService authService,
	appointmentService appointmentService,
	propertyService propertyService,
	userService userService,
	c RouterConfig,
) http.Handler {
	l := c.Logger
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	auth := NewAuth(authService, l)
	appointments := NewAppointment(appointmentService, l)
	properties := NewProperty(propertyService, l)
	users := NewUser(userService, l)

	withAuth := middleware.AuthMiddleware(authService, l)
	withAdmin := func(h http.Handler) http.Handler {
		return chain(h, withAuth, middleware.RoleMiddleware(authService, models.RoleAdmin))
	}
	withLimit := func(h http.Handler) http.Handler { return h }
	if c.AuthLimiter != nil {
		withLimit = middleware.RateLimitMiddleware(c.AuthLimiter)
	}

	api := http.NewServeMux()

	api.Handle("POST /auth/login", withLimit(http.HandlerFunc(auth.login)))
	api.Handle("POST /auth/refresh", withLimit(http.HandlerFunc(auth.refresh)))
	api.Handle("GET /auth/me", withAuth(http.HandlerFunc(auth.me)))

	api.HandleFunc("POST /appointments", appointments.create)
	api.Handle("GET /appointments", withAuth(http.HandlerFunc(appointments.list)))
	api.Handle("PATCH /appointments/{id}/status", withAuth(http.HandlerFunc(appointments.updateStatus)))

	api.HandleFunc("GET /properties", properties.list)
	api.HandleFunc("GET /properties/featured", properties.featured)
	api.HandleFunc("GET /properties/{id}", properties.get)
	api.Handle("POST /properties", withAdmin(http.HandlerFunc(properties.create)))
	api.Handle("PUT /properties/{id}", withAdmin(http.HandlerFunc(properties.update)))
	api.Handle("DELETE /properties/{id}", withAdmin(http.HandlerFunc(properties.delete)))
	api.Handle("PATCH /properties/{id}/featured", withAdmin(http.HandlerFunc(properties.setFeatured)))
	api.Handle("PATCH /properties/{id}/status", withAdmin(http.HandlerFunc(properties.setStatus)))

	api.HandleFunc("GET /users", users.list)
	api.HandleFunc("GET /users/agents", users.agents)
	api.HandleFunc("GET /users/{id}", users.get)
	api.Handle("POST /users", withAdmin(http.HandlerFunc(users.create)))
	api.Handle("PUT /users/{id}", withAdmin(http.HandlerFunc(users.update)))
	api.Handle("DELETE /users/{id}", withAdmin(http.HandlerFunc(users.delete)))
	api.Handle("PATCH /users/me/profile", withAuth(http.HandlerFunc(users.updateProfile)))

	root := http.NewServeMux()
	root.Handle(APIPrefix+"/", http.StripPrefix(APIPrefix, api))
	if c.UploadsDir != "" {
		prefix := strings.TrimSuffix(c.UploadsURL, "/") + "/"
		root.Handle("GET "+prefix, http.StripPrefix(prefix, noDirListing(http.FileServer(http.Dir(c.UploadsDir)))))
	}

	handler := chain(root,
		middleware.LoggerMiddleware(l),
		middleware.CORSMiddleware(c.CORS),
	)

	return handler
}

// Serve files only, directories are not listed
func noDirListing(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
