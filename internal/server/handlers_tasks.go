package server

import (
	"errors"
	"net/http"

	"github.com/teemow/todoist-daily/internal/daily"
	"github.com/teemow/todoist-daily/internal/logging"
	"github.com/teemow/todoist-daily/internal/todoist"
)

// Error messages returned by /api/tasks.
const (
	MsgNoTokenCookie  = "No TODOIST_TOKEN cookie"
	MsgTokenRejected  = "Todoist rejected the stored token"
	MsgLoadTasksError = "Unable to load tasks from Todoist"
)

// ErrorResponse is the JSON body of a failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// reportError is a report failure mapped to an HTTP status and a message
// that is safe to show the user.
type reportError struct {
	status  int
	message string
}

// loadReport builds the report for the token in the request cookie.
// An upstream authorization failure clears the cookie.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (daily.Report, *reportError) {
	token, ok := s.readToken(r)
	if !ok {
		return daily.Report{}, &reportError{status: http.StatusForbidden, message: MsgNoTokenCookie}
	}

	logger := logging.WithOperation(s.requestLogger(r), "daily.report")
	aggregator := daily.NewAggregator(s.newSource(r.Context(), token),
		daily.WithProjectName(s.cfg.ProjectName),
		daily.WithLocation(s.cfg.Location),
		daily.WithClock(s.now),
		daily.WithConcurrency(s.cfg.FetchConcurrency),
		daily.WithMetrics(s.metrics),
		daily.WithLogger(logger),
	)

	report, err := aggregator.Build(r.Context())
	if err == nil {
		return report, nil
	}

	var notFound *daily.ProjectNotFoundError
	switch {
	case errors.As(err, &notFound):
		logger.Warn("project not found", logging.Project(notFound.Name))
		return daily.Report{}, &reportError{status: http.StatusInternalServerError, message: notFound.Error()}
	case errors.Is(err, todoist.ErrUnauthorized):
		logger.Info("todoist rejected token, clearing cookie", logging.Err(err))
		s.clearTokenCookie(w)
		return daily.Report{}, &reportError{status: http.StatusUnauthorized, message: MsgTokenRejected}
	default:
		logger.Error("failed to build report", logging.Err(err))
		return daily.Report{}, &reportError{status: http.StatusInternalServerError, message: MsgLoadTasksError}
	}
}

// handleTasks answers with the report as JSON.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	report, rerr := s.loadReport(w, r)
	if rerr != nil {
		writeJSON(w, rerr.status, ErrorResponse{Error: rerr.message})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleIndex renders the report page. Without a usable token the browser
// is sent to the OAuth start route.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	report, rerr := s.loadReport(w, r)
	if rerr != nil {
		switch rerr.status {
		case http.StatusForbidden, http.StatusUnauthorized:
			http.Redirect(w, r, s.cfg.BasePath+"/api/auth/start", http.StatusTemporaryRedirect)
		default:
			s.renderPage(w, r, rerr.status, pageData{Error: rerr.message})
		}
		return
	}
	s.renderPage(w, r, http.StatusOK, newPageData(report))
}
