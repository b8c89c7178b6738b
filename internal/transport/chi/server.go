package chi

import (
	"encoding/json"
	"net/http"
	"net/url"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/tosarchive/internal/logger"
	cataloguc "github.com/kailas-cloud/tosarchive/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/tosarchive/internal/usecase/health"
	resolveruc "github.com/kailas-cloud/tosarchive/internal/usecase/resolver"
	scanneruc "github.com/kailas-cloud/tosarchive/internal/usecase/scanner"
	statsuc "github.com/kailas-cloud/tosarchive/internal/usecase/stats"
)

// Server serves the archive API over a chi router.
type Server struct {
	resolver      *resolveruc.Service
	scanner       *scanneruc.Service
	stats         *statsuc.Service
	catalog       *cataloguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	basePath      string
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	resolver *resolveruc.Service,
	scanner *scanneruc.Service,
	stats *statsuc.Service,
	catalog *cataloguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		resolver:      resolver,
		scanner:       scanner,
		stats:         stats,
		catalog:       catalog,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithBasePath mounts the API routes under prefix (e.g. "/api/open-document-archive").
func (s *Server) WithBasePath(prefix string) *Server {
	s.basePath = prefix
	return s
}

// Register adds the API routes under the base path and the health and metrics endpoints at the root.
func (s *Server) Register(r gochi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllow, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	if s.basePath == "" {
		s.routes(r)
		return
	}
	r.Route(s.basePath, s.routes)
}

func (s *Server) routes(r gochi.Router) {
	r.Get("/", s.Index)
	r.Get("/version", s.Version)
	r.Get("/get_version_at_date/v1/{service}/{document_type}/{date}", s.GetVersionAtDate)
	r.Get("/first_occurence/v1/{term}", s.FirstOccurrence)
	r.Get("/all_occurences/v1/{term}", s.AllOccurrences)
	r.Get("/list_services/v1/", s.ListServices)
	r.Get("/stats/v1/", s.Stats)
	r.Get("/graph_services/v1/", s.GraphServices)
	r.Get("/list_documentTypes/v1/", s.ListDocumentTypes)
}

// Index handles GET / by redirecting to the version endpoint.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.basePath+"/version", http.StatusTemporaryRedirect)
}

// Version handles GET /version.
func (s *Server) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoToDTO(s.catalog.Info()))
}

// GetVersionAtDate handles GET /get_version_at_date/v1/{service}/{document_type}/{date}.
func (s *Server) GetVersionAtDate(w http.ResponseWriter, r *http.Request) {
	var service, documentType, date string
	params := []struct {
		name string
		dst  *string
	}{
		{"service", &service},
		{"document_type", &documentType},
		{"date", &date},
	}
	for _, p := range params {
		if err := bindPathParam(r, p.name, p.dst); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter "+p.name+": "+err.Error())
			return
		}
	}

	v, err := s.resolver.ResolveDate(r.Context(), service, documentType, date)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionAtDateToDTO(v))
}

// FirstOccurrence handles GET /first_occurence/v1/{term}.
func (s *Server) FirstOccurrence(w http.ResponseWriter, r *http.Request) {
	var term string
	if err := bindPathParam(r, "term", &term); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter term: "+err.Error())
		return
	}

	r = withLogFields(r, zap.String("terms", term))
	idx, err := s.scanner.FirstOccurrence(r.Context(), term)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

// AllOccurrences handles GET /all_occurences/v1/{term}.
func (s *Server) AllOccurrences(w http.ResponseWriter, r *http.Request) {
	var term string
	if err := bindPathParam(r, "term", &term); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter term: "+err.Error())
		return
	}

	r = withLogFields(r, zap.String("terms", term))
	idx, err := s.scanner.AllOccurrences(r.Context(), term)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, allOccurrencesToDTO(idx))
}

// ListServicesParams holds the query parameters of GET /list_services.
type ListServicesParams struct {
	MultipleVersionsOnly *bool `form:"multiple_versions_only,omitempty" json:"multiple_versions_only,omitempty"`
}

// ListServices handles GET /list_services/v1/.
func (s *Server) ListServices(w http.ResponseWriter, r *http.Request) {
	var params ListServicesParams
	err := runtime.BindQueryParameter("form", true, false, "multiple_versions_only", r.URL.Query(), &params.MultipleVersionsOnly)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			"Invalid format for parameter multiple_versions_only: "+err.Error())
		return
	}

	services, err := s.catalog.ListServices(r.Context(), derefBool(params.MultipleVersionsOnly))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// Stats handles GET /stats/v1/.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	rows, err := s.stats.Snapshots(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToDTO(rows))
}

// GraphServices handles GET /graph_services/v1/.
func (s *Server) GraphServices(w http.ResponseWriter, r *http.Request) {
	months, err := s.stats.Monthly(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, monthlyToDTO(months))
}

// ListDocumentTypes handles GET /list_documentTypes/v1/ by relaying the
// published taxonomy unchanged.
func (s *Server) ListDocumentTypes(w http.ResponseWriter, r *http.Request) {
	t, err := s.catalog.DocumentTypes(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", t.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(t.Body)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthToDTO(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bindPathParam(r *http.Request, name string, dst *string) error {
	raw := gochi.URLParam(r, name)
	// chi matched on the decoded path, so the value must be escaped again
	// before the binder unescapes it.
	if r.URL.RawPath == "" {
		raw = url.PathEscape(raw)
	}
	//nolint:wrapcheck // the caller prefixes the parameter name
	return runtime.BindStyledParameterWithOptions("simple", name, raw, dst,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// withLogFields adds fields to the request logger installed by the logging
// middleware. Requests without one are returned unchanged.
func withLogFields(r *http.Request, fields ...zap.Field) *http.Request {
	if _, ok := logpkg.Lookup(r.Context()); !ok {
		return r
	}
	return r.WithContext(logpkg.With(r.Context(), fields...))
}
