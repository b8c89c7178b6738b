package chi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tosarchive/internal/domain"
	logpkg "github.com/kailas-cloud/tosarchive/internal/logger"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

// Error codes returned in the "code" field.
const (
	CodeBadRequest     ErrorCode = "bad_request"
	CodeMalformedDate  ErrorCode = "malformed_date"
	CodeUnknownPair    ErrorCode = "unknown_service_or_document_type"
	CodeInvalidTerms   ErrorCode = "invalid_terms"
	CodeRateLimited    ErrorCode = "rate_limited"
	CodeUpstreamError  ErrorCode = "upstream_error"
	CodeCorpusError    ErrorCode = "corpus_error"
	CodeInternalError  ErrorCode = "internal_error"
	CodeNotFound       ErrorCode = "not_found"
	CodeMethodNotAllow ErrorCode = "method_not_allowed"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		clientErrorHandler(domain.ErrMalformedUserDate, CodeMalformedDate),
		clientErrorHandler(domain.ErrUnknownServiceOrDocumentType, CodeUnknownPair),
		clientErrorHandler(domain.ErrInvalidTerms, CodeInvalidTerms),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, CodeUpstreamError),
	}
}

// clientErrorHandler answers 400 with the full error text. Client errors only
// ever describe the request, so the message is safe to echo back.
func clientErrorHandler(sentinel error, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return true
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error
// and answers with the sentinel text only.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// corpusSentinels are server-side failures: logged in full, reported by
// category only, since the wrapped error names paths on disk.
var corpusSentinels = []error{
	domain.ErrInvalidCorpusRoot,
	domain.ErrMalformedSnapshotName,
	domain.ErrCorpusRead,
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log, ok := logpkg.Lookup(r.Context())
	if !ok {
		log = s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	}
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	for _, sentinel := range corpusSentinels {
		if errors.Is(err, sentinel) {
			log.Error("corpus error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, CodeCorpusError, sentinel.Error())
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
