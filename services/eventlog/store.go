package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bridgechain/core/events"
	"bridgechain/core/types"
)

// ErrDSNRequired is returned when no archive DSN is configured.
var ErrDSNRequired = errors.New("eventlog: dsn must be configured")

// Store archives rendered bridge notifications in a SQL database.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	next uint64
}

// Open connects to the archive named by dsn. Supported schemes are sqlite://
// (any glebarez/sqlite DSN after the prefix) and postgres:// or postgresql://.
func Open(dsn string) (*Store, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrDSNRequired
	}
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(trimmed, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(trimmed, "sqlite://"))
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"):
		dialector = postgres.Open(trimmed)
	default:
		return nil, fmt.Errorf("eventlog: unsupported dsn scheme")
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("eventlog: open database: %w", err)
	}
	return New(db)
}

// New wraps an already opened gorm handle and applies the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("eventlog: database must not be nil")
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("eventlog: migrate: %w", err)
	}
	var last struct{ Max uint64 }
	if err := db.Model(&Record{}).Select("COALESCE(MAX(sequence), 0) AS max").Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("eventlog: load sequence: %w", err)
	}
	return &Store{db: db, logger: slog.Default(), now: time.Now, next: last.Max + 1}, nil
}

// SetLogger overrides the logger used for failed writes.
func (s *Store) SetLogger(l *slog.Logger) {
	if s != nil && l != nil {
		s.logger = l
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append stores one rendered event and returns the archived record.
func (s *Store) Append(ctx context.Context, evt *types.Event) (*Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("eventlog: store not configured")
	}
	if err := evt.Validate(); err != nil {
		return nil, fmt.Errorf("eventlog: %w", err)
	}
	attrs := evt.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("eventlog: encode attributes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := &Record{
		ID:         uuid.New(),
		Sequence:   s.next,
		Type:       evt.Type,
		MessageID:  evt.MessageID(),
		Attributes: string(encoded),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("eventlog: insert: %w", err)
	}
	s.next++
	return record, nil
}

// Emit implements events.Emitter. Events that cannot be rendered are archived
// with their type only. Write failures are logged and dropped.
func (s *Store) Emit(evt events.Event) {
	if s == nil || evt == nil {
		return
	}
	rendered := &types.Event{Type: evt.EventType()}
	if r, ok := evt.(events.Renderable); ok {
		if out := r.Event(); out != nil {
			rendered = out
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.Append(ctx, rendered); err != nil {
		s.logger.Error("archive bridge event",
			slog.String("type", rendered.Type),
			slog.String("error", err.Error()))
	}
}

// Query filters archived records.
type Query struct {
	Type      string
	MessageID string
	After     uint64
	Limit     int
}

const maxQueryLimit = 500

// List returns records matching q ordered by sequence.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("eventlog: store not configured")
	}
	limit := q.Limit
	if limit <= 0 || limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	tx := s.db.WithContext(ctx).Model(&Record{}).Where("sequence > ?", q.After)
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	if q.MessageID != "" {
		tx = tx.Where("message_id = ?", q.MessageID)
	}
	var out []Record
	if err := tx.Order("sequence ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("eventlog: list: %w", err)
	}
	return out, nil
}

// Decode returns the attribute map of a record.
func (r Record) Decode() (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(r.Attributes) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &out); err != nil {
		return nil, fmt.Errorf("eventlog: decode attributes: %w", err)
	}
	return out, nil
}
