package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/patthub/impact-measurement-tool/internal/api/middleware"
	"github.com/patthub/impact-measurement-tool/internal/impact"
)

const (
	// DefaultLimit is the page size used when a request sets no limit.
	DefaultLimit = 50

	// MaxLimit is the largest page size a request may ask for.
	MaxLimit = 200
)

// paramError is a query parameter validation failure.
type paramError struct {
	param string
	msg   string
}

func (e *paramError) Error() string {
	return "Invalid parameter '" + e.param + "': " + e.msg
}

// parsePage reads skip (>= 0, default 0) and limit (1..MaxLimit, default DefaultLimit).
func parsePage(r *http.Request) (skip, limit int, err error) {
	q := r.URL.Query()

	skip, limit = 0, DefaultLimit

	if v := q.Get("skip"); v != "" {
		skip, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, &paramError{param: "skip", msg: "must be a valid integer"}
		}

		if skip < 0 {
			return 0, 0, &paramError{param: "skip", msg: "must be >= 0"}
		}
	}

	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, &paramError{param: "limit", msg: "must be a valid integer"}
		}

		if limit <= 0 || limit > MaxLimit {
			return 0, 0, &paramError{param: "limit", msg: "must be between 1 and " + strconv.Itoa(MaxLimit)}
		}
	}

	return skip, limit, nil
}

// optionalQuery returns nil for an absent or blank query parameter.
func optionalQuery(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil
	}

	return &v
}

// handleListImpacts handles GET /api/v1/impacts.
//
// Query parameters:
//   - skip: >= 0 (default 0)
//   - limit: 1-200 (default 50)
//   - institution_uuid, discipline_code: exact-match filters, AND-combined
func (s *Server) handleListImpacts(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parsePage(r)
	if err != nil {
		badRequest(w, r, s.logger, err.Error())

		return
	}

	filter := impact.Filter{
		InstitutionUUID: optionalQuery(r, "institution_uuid"),
		DisciplineCode:  optionalQuery(r, "discipline_code"),
	}

	items, total, ok := s.listPage(w, r, filter, skip, limit)
	if !ok {
		return
	}

	s.writeJSON(w, r, http.StatusOK, ImpactListResponse{
		Items: toImpactResponses(items),
		Total: total,
		Skip:  skip,
		Limit: limit,
	})
}

// handleGetImpact handles GET /api/v1/impacts/{id}.
func (s *Server) handleGetImpact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	c, err := s.impacts.Get(r.Context(), id)

	switch {
	case errors.Is(err, impact.ErrNotFound):
		notFound(w, r, s.logger, "Impact not found")
	case errors.Is(err, impact.ErrValidation):
		badRequest(w, r, s.logger, "Invalid impact ID")
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Failed to get impact",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("impact_id", id),
			slog.String("error", err.Error()),
		)
		internalError(w, r, s.logger, "Failed to get impact")
	default:
		s.writeJSON(w, r, http.StatusOK, toImpactResponse(&c))
	}
}

// handleInstitutionImpacts handles GET /api/v1/institutions/{uuid}/impacts.
// An institution without stored impacts yields an empty page, not 404.
func (s *Server) handleInstitutionImpacts(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parsePage(r)
	if err != nil {
		badRequest(w, r, s.logger, err.Error())

		return
	}

	institution := r.PathValue("uuid")

	items, total, ok := s.listPage(w, r, impact.Filter{InstitutionUUID: &institution}, skip, limit)
	if !ok {
		return
	}

	set := impact.NewInstitutionImpactSet(institution, items)

	s.writeJSON(w, r, http.StatusOK, InstitutionImpactsResponse{
		InstitutionUUID: set.InstitutionUUID,
		InstitutionName: set.InstitutionName,
		Impacts:         toImpactResponses(set.Cases),
		Total:           total,
		Skip:            skip,
		Limit:           limit,
	})
}

// handleInstitutionEvaluation handles GET /api/v1/institutions/{uuid}/evaluation.
func (s *Server) handleInstitutionEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.evaluations == nil {
		notFound(w, r, s.logger, "Evaluation not found")

		return
	}

	institution := r.PathValue("uuid")

	e, err := s.evaluations.GetEvaluation(r.Context(), institution)

	switch {
	case errors.Is(err, impact.ErrNotFound), errors.Is(err, impact.ErrValidation):
		notFound(w, r, s.logger, "Evaluation not found")
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Failed to get evaluation",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("institution_uuid", institution),
			slog.String("error", err.Error()),
		)
		internalError(w, r, s.logger, "Failed to get evaluation")
	default:
		s.writeJSON(w, r, http.StatusOK, toEvaluationResponse(&e))
	}
}

// listPage runs the list and count queries, writing a 500 and returning ok=false on failure.
func (s *Server) listPage(
	w http.ResponseWriter,
	r *http.Request,
	filter impact.Filter,
	skip, limit int,
) ([]impact.ImpactCase, int, bool) {
	ctx := r.Context()

	items, err := s.impacts.List(ctx, impact.ListFilter{Filter: filter, Skip: skip, Limit: limit})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list impacts",
			slog.String("request_id", middleware.GetRequestID(ctx)),
			slog.String("error", err.Error()),
		)
		internalError(w, r, s.logger, "Failed to list impacts")

		return nil, 0, false
	}

	total, err := s.impacts.Count(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to count impacts",
			slog.String("request_id", middleware.GetRequestID(ctx)),
			slog.String("error", err.Error()),
		)
		internalError(w, r, s.logger, "Failed to count impacts")

		return nil, 0, false
	}

	return items, total, true
}
