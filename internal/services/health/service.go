package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service reports process liveness and, when a database is wired, whether it
// is reachable.
type Service struct {
	db *sql.DB
}

// NewService constructs a health service without a database dependency.
func NewService() *Service {
	return &Service{}
}

// NewServiceWithDB constructs a health service that pings the database.
func NewServiceWithDB(db *sql.DB) *Service {
	return &Service{db: db}
}

// Status returns the health payload. The process is always "ok" if it can
// answer; "db" is only present when a database is configured.
func (s *Service) Status() map[string]bool {
	status := map[string]bool{"ok": true}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		status["db"] = s.db.PingContext(ctx) == nil
	}
	return status
}
