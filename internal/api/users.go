package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/iotnatural/poolwatch-core/internal/account"
	"github.com/iotnatural/poolwatch-core/internal/datasource"
	"github.com/iotnatural/poolwatch-core/internal/export"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
	"github.com/iotnatural/poolwatch-core/internal/metrics"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkUserRequest is the request body for POST /check-user.
// Email must be present but may be any string, including empty; the lookup decides.
type checkUserRequest struct {
	Email *string `json:"email" validate:"required"`
}

// checkUserResponse is the response body for POST /check-user.
type checkUserResponse struct {
	Exists  bool      `json:"exists"`
	Message string    `json:"message"`
	Token   string    `json:"token,omitempty"`
	Data    *userData `json:"data,omitempty"`
}

// userData is the public view of a user and their controllers.
type userData struct {
	User        database.Record   `json:"user"`
	Controllers []database.Record `json:"controllers"`
}

// refreshResponse is the response body for GET /refresh-data.
type refreshResponse struct {
	Controllers []database.Record `json:"controllers"`
}

// handleCheckUser resolves a user by email, gathers their controllers and
// opens a session.
func (s *Server) handleCheckUser(w http.ResponseWriter, r *http.Request) {
	var req checkUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeBadRequest(w, validationDetail(err))
		return
	}

	email := *req.Email

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	var data userData
	err := datasource.With(ctx, s.provider, func(q database.Querier) error {
		user, err := s.accounts.FindByEmail(ctx, q, email)
		if err != nil {
			return err
		}
		controllers, err := s.aggregator.FetchForUser(ctx, q, s.accounts.UserID(user))
		if err != nil {
			return err
		}
		data = userData{User: user, Controllers: controllers}
		return nil
	})

	switch {
	case errors.Is(err, account.ErrUserNotFound):
		metrics.RecordCheckUser(metrics.OutcomeNotFound)
		writeJSON(w, http.StatusOK, checkUserResponse{Exists: false, Message: msgUserNotFound})
		return
	case errors.Is(err, account.ErrEmailColumnNotFound):
		metrics.RecordCheckUser(metrics.OutcomeError)
		s.logger.Error("users table has no email column", "error", err)
		writeInternalError(w, msgEmailColumnMissing)
		return
	case err != nil:
		metrics.RecordCheckUser(metrics.OutcomeError)
		s.writeUpstreamError(w, r, "check-user failed", err)
		return
	}

	userID := s.accounts.UserID(data.User)
	sess, err := s.sessions.Create(email, userID)
	if err != nil {
		metrics.RecordCheckUser(metrics.OutcomeError)
		s.logger.Error("creating session", "error", err)
		writeInternalError(w, msgInternal)
		return
	}
	metrics.RecordCheckUser(metrics.OutcomeFound)

	s.dumpUserData(data)
	s.publishSnapshot(r.Context(), userID, data.Controllers)

	s.logger.Info("user session opened",
		"user_id", userID,
		"controllers", len(data.Controllers),
		"token", tokenPrefix(sess.Token),
		"request_id", r.Context().Value(ctxKeyRequestID),
	)

	writeJSON(w, http.StatusOK, checkUserResponse{
		Exists:  true,
		Message: msgUserFound,
		Token:   sess.Token,
		Data:    &data,
	})
}

// handleRefreshData re-reads the controllers of the session's user.
// The session's expiry is left untouched.
func (s *Server) handleRefreshData(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	var controllers []database.Record
	err := datasource.With(ctx, s.provider, func(q database.Querier) error {
		var err error
		controllers, err = s.aggregator.FetchForUser(ctx, q, sess.UserID)
		return err
	})
	if err != nil {
		s.writeUpstreamError(w, r, "refresh-data failed", err)
		return
	}

	s.publishSnapshot(r.Context(), sess.UserID, controllers)
	writeJSON(w, http.StatusOK, refreshResponse{Controllers: controllers})
}

// publishSnapshot hands the controllers to the exporter, if one is configured.
func (s *Server) publishSnapshot(ctx context.Context, userID any, controllers []database.Record) {
	s.exporter.Publish(ctx, export.Snapshot{
		UserID:      userID,
		Controllers: controllers,
		At:          time.Now(),
	})
}

// validationDetail renders validator errors as "field: rule" pairs.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+": "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
