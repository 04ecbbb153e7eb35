// Package account looks up users in the controller database.
package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/config"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
)

// emailHint is matched case-insensitively against column names when no email column is configured.
const emailHint = "mail"

// Denylist holds the user attributes never exposed to clients.
var Denylist = []string{
	"UserParent", "UserType", "AppType", "City", "State", "Country", "Birthdate",
	"LastSession", "TokenId", "Enabled", "Phone", "ConfirmToken", "ConfirmDate",
	"RecoverToken", "TimeZone", "RecoverDate", "Language",
}

// Config names the users table and its key columns.
type Config struct {
	Table    string
	IDColumn string

	// EmailColumn is used as-is when set; otherwise it is discovered from the table's columns.
	EmailColumn string
}

// ConfigFrom extracts the account settings from the schema configuration.
func ConfigFrom(schema config.SchemaConfig) Config {
	return Config{
		Table:       schema.UsersTable,
		IDColumn:    schema.UserIDColumn,
		EmailColumn: schema.EmailColumn,
	}
}

// Service resolves users by email.
type Service struct {
	cfg Config
}

// NewService creates a user lookup service.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// FindByEmail returns the user whose email column equals email exactly.
//
// Parameters:
//   - ctx: Context for query cancellation
//   - q: Connection to query
//   - email: Address to match; no normalisation is applied
//
// Returns:
//   - database.Record: The user with Denylist fields removed
//   - error: ErrUserNotFound, ErrEmailColumnNotFound, database.ErrInvalidIdentifier or a query error
func (s *Service) FindByEmail(ctx context.Context, q database.Querier, email string) (database.Record, error) {
	if err := database.ValidateIdentifier(s.cfg.Table); err != nil {
		return nil, fmt.Errorf("users table: %w", err)
	}

	column, err := s.EmailColumn(ctx, q)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + s.cfg.Table + " WHERE " + column + " = ? LIMIT 1"
	rec, err := database.QueryRecord(ctx, q, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return rec.Without(s.denylist(column)), nil
}

// EmailColumn returns the configured email column, or the first users column
// whose lower-cased name contains "mail".
func (s *Service) EmailColumn(ctx context.Context, q database.Querier) (string, error) {
	if s.cfg.EmailColumn != "" {
		if err := database.ValidateIdentifier(s.cfg.EmailColumn); err != nil {
			return "", fmt.Errorf("email column: %w", err)
		}
		return s.cfg.EmailColumn, nil
	}

	cols, err := database.Columns(ctx, q, s.cfg.Table)
	if err != nil {
		return "", fmt.Errorf("inspecting users table: %w", err)
	}
	for _, c := range cols {
		if strings.Contains(strings.ToLower(c), emailHint) {
			if err := database.ValidateIdentifier(c); err != nil {
				return "", fmt.Errorf("email column: %w", err)
			}
			return c, nil
		}
	}
	return "", fmt.Errorf("%w in table %s", ErrEmailColumnNotFound, s.cfg.Table)
}

// UserID returns the identifier of a user record.
func (s *Service) UserID(user database.Record) any {
	return user[s.cfg.IDColumn]
}

// denylist returns Denylist minus the identifier and email columns, which are always exposed.
func (s *Service) denylist(emailColumn string) []string {
	out := make([]string, 0, len(Denylist))
	for _, f := range Denylist {
		if f == s.cfg.IDColumn || f == emailColumn {
			continue
		}
		out = append(out, f)
	}
	return out
}
