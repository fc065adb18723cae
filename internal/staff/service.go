package staff

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"botdeck/internal/models"
)

// Service handles staff account lifecycle.
type Service struct {
	db *sql.DB
}

// NewService builds a new staff service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Register creates a staff account with the supplied credentials.
func (s *Service) Register(ctx context.Context, username, password string) (*models.Staff, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	hash := hashPassword(password)
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO staff (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, hash, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create staff account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("staff id: %w", err)
	}
	return &models.Staff{ID: id, Username: username, PasswordHash: hash, CreatedAt: now}, nil
}

// Login validates credentials and returns the staff profile.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Staff, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM staff WHERE username = ?`, username,
	)
	var acct models.Staff
	if err := row.Scan(&acct.ID, &acct.Username, &acct.PasswordHash, &acct.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("invalid username or password")
		}
		return nil, fmt.Errorf("lookup staff account: %w", err)
	}
	if acct.PasswordHash != hashPassword(password) {
		return nil, errors.New("invalid username or password")
	}
	return &acct, nil
}

func hashPassword(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
