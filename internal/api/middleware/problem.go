package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ProblemTypeBase prefixes the RFC 7807 problem type URI; the status code is appended.
const ProblemTypeBase = "https://imeto.patthub.org/problems/"

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Instance  string `json:"instance"`
	RequestID string `json:"request_id"` //nolint:tagliatelle
}

// NewProblem builds a problem for status on the request path.
func NewProblem(r *http.Request, status int, detail string) Problem {
	return Problem{
		Type:      fmt.Sprintf("%s%d", ProblemTypeBase, status),
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Instance:  r.URL.Path,
		RequestID: GetRequestID(r.Context()),
	}
}

// WriteProblem writes p as application/problem+json.
func WriteProblem(w http.ResponseWriter, p Problem) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)

	return json.NewEncoder(w).Encode(p)
}
