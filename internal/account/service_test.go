package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
)

// setupTestDB creates an in-memory users table.
func setupTestDB(t *testing.T, schema string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

const usersSchema = `
	CREATE TABLE Users (
		UserId INTEGER PRIMARY KEY,
		Name TEXT,
		Email TEXT,
		Password TEXT,
		UserParent INTEGER, UserType INTEGER, AppType INTEGER,
		City TEXT, State TEXT, Country TEXT, Birthdate TEXT,
		LastSession TEXT, TokenId TEXT, Enabled INTEGER, Phone TEXT,
		ConfirmToken TEXT, ConfirmDate TEXT, RecoverToken TEXT,
		TimeZone TEXT, RecoverDate TEXT, Language TEXT
	);
	INSERT INTO Users VALUES (
		7, 'Ana', 'ana@x.io', 'hash',
		1, 2, 3,
		'Valencia', 'VC', 'ES', '1990-01-01',
		'2026-01-01', 'tok', 1, '600000000',
		'ct', '2026-01-01', 'rt',
		'Europe/Madrid', '2026-01-01', 'es'
	);
`

func defaultConfig() Config {
	return Config{Table: "Users", IDColumn: "UserId"}
}

func TestFindByEmail(t *testing.T) {
	db := setupTestDB(t, usersSchema)
	svc := NewService(defaultConfig())

	user, err := svc.FindByEmail(context.Background(), db, "ana@x.io")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}

	if user["UserId"] != int64(7) {
		t.Errorf("UserId = %#v, want 7", user["UserId"])
	}
	if user["Email"] != "ana@x.io" {
		t.Errorf("Email = %#v, want ana@x.io", user["Email"])
	}
	if user["Name"] != "Ana" {
		t.Errorf("Name = %#v, want Ana", user["Name"])
	}
	if svc.UserID(user) != int64(7) {
		t.Errorf("UserID() = %#v, want 7", svc.UserID(user))
	}

	for _, field := range Denylist {
		if _, ok := user[field]; ok {
			t.Errorf("denylisted field %q exposed", field)
		}
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	db := setupTestDB(t, usersSchema)
	svc := NewService(defaultConfig())

	_, err := svc.FindByEmail(context.Background(), db, "nobody@x.io")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("FindByEmail() error = %v, want ErrUserNotFound", err)
	}
}

func TestFindByEmail_ExactMatch(t *testing.T) {
	db := setupTestDB(t, usersSchema)
	svc := NewService(defaultConfig())

	tests := []string{"ANA@x.io", " ana@x.io", "ana@x.io "}
	for _, email := range tests {
		t.Run(email, func(t *testing.T) {
			_, err := svc.FindByEmail(context.Background(), db, email)
			if !errors.Is(err, ErrUserNotFound) {
				t.Errorf("FindByEmail(%q) error = %v, want ErrUserNotFound", email, err)
			}
		})
	}
}

func TestFindByEmail_NoEmailColumn(t *testing.T) {
	db := setupTestDB(t, `CREATE TABLE Users (UserId INTEGER PRIMARY KEY, Name TEXT);`)
	svc := NewService(defaultConfig())

	_, err := svc.FindByEmail(context.Background(), db, "ana@x.io")
	if !errors.Is(err, ErrEmailColumnNotFound) {
		t.Errorf("FindByEmail() error = %v, want ErrEmailColumnNotFound", err)
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Error("configuration error reported as not found")
	}
}

func TestFindByEmail_InvalidTable(t *testing.T) {
	db := setupTestDB(t, usersSchema)
	svc := NewService(Config{Table: "Users; DROP TABLE Users", IDColumn: "UserId"})

	_, err := svc.FindByEmail(context.Background(), db, "ana@x.io")
	if !errors.Is(err, database.ErrInvalidIdentifier) {
		t.Errorf("FindByEmail() error = %v, want ErrInvalidIdentifier", err)
	}
}

func TestEmailColumn(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		cfg     Config
		want    string
		wantErr error
	}{
		{
			name:   "heuristic picks first mail column",
			schema: `CREATE TABLE Users (UserId INTEGER, Name TEXT, UserMail TEXT, BackupEmail TEXT);`,
			cfg:    defaultConfig(),
			want:   "UserMail",
		},
		{
			name:   "heuristic is case-insensitive",
			schema: `CREATE TABLE Users (UserId INTEGER, EMAIL_ADDRESS TEXT);`,
			cfg:    defaultConfig(),
			want:   "EMAIL_ADDRESS",
		},
		{
			name:   "explicit column wins",
			schema: `CREATE TABLE Users (UserId INTEGER, Mail TEXT, Login TEXT);`,
			cfg:    Config{Table: "Users", IDColumn: "UserId", EmailColumn: "Login"},
			want:   "Login",
		},
		{
			name:    "explicit column must be an identifier",
			schema:  `CREATE TABLE Users (UserId INTEGER, Email TEXT);`,
			cfg:     Config{Table: "Users", IDColumn: "UserId", EmailColumn: "Email OR 1=1"},
			wantErr: database.ErrInvalidIdentifier,
		},
		{
			name:    "no candidate",
			schema:  `CREATE TABLE Users (UserId INTEGER, Login TEXT);`,
			cfg:     defaultConfig(),
			wantErr: ErrEmailColumnNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t, tt.schema)
			got, err := NewService(tt.cfg).EmailColumn(context.Background(), db)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("EmailColumn() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("EmailColumn() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EmailColumn() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDenylist_NeverHidesKeys(t *testing.T) {
	// A schema whose identifier is named like a denylisted attribute.
	svc := NewService(Config{Table: "Users", IDColumn: "TokenId"})

	for _, f := range svc.denylist("Phone") {
		if f == "TokenId" || f == "Phone" {
			t.Errorf("denylist contains key column %q", f)
		}
	}
}
