package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrProgressNotFound indicates no watch progress is stored for an item.
var ErrProgressNotFound = errors.New("watch progress not found")

// Service stores per-item watch progress and play stats in SQLite: resume
// positions, last quality used, and play counts.
type Service struct {
	db              *sql.DB
	playedThreshold float64 // percent at which an item counts as finished
}

// NewService opens (or creates) the history database at dbPath and applies
// pending migrations.
func NewService(dbPath string, playedThresholdPercent float64) (*Service, error) {
	if playedThresholdPercent <= 0 || playedThresholdPercent > 100 {
		playedThresholdPercent = 90
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history directory: %w", err)
			}
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// Single writer keeps SQLite happy and makes :memory: databases usable.
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history migrations: %w", err)
	}

	log.Printf("[history] database ready at %s", dbPath)
	return &Service{db: db, playedThreshold: playedThresholdPercent}, nil
}

// Close releases the underlying database handle.
func (s *Service) Close() error {
	return s.db.Close()
}

// GetResumeState returns the stored resume position and last quality for an
// item. Items without history resume at zero; that is not an error.
func (s *Service) GetResumeState(ctx context.Context, itemID string) (models.ResumeInfo, error) {
	var info models.ResumeInfo
	var quality string
	err := s.db.QueryRowContext(ctx,
		`SELECT resume_time, last_quality FROM watch_progress WHERE item_id = ?`, itemID,
	).Scan(&info.ResumeTime, &quality)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ResumeInfo{}, nil
	}
	if err != nil {
		return models.ResumeInfo{}, fmt.Errorf("query resume state: %w", err)
	}
	info.LastQuality = models.QualityLevel(quality)
	return info, nil
}

// ReportQualityUsed records the quality selected for an item. Fire-and-forget
// from the caller's perspective; errors are the caller's to log.
func (s *Service) ReportQualityUsed(ctx context.Context, itemID string, quality models.QualityLevel) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_progress (item_id, last_quality, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			last_quality = excluded.last_quality,
			updated_at   = excluded.updated_at`,
		itemID, string(quality), now)
	if err != nil {
		return fmt.Errorf("report quality used: %w", err)
	}
	return nil
}

// SaveProgress upserts the resume position for an item.
func (s *Service) SaveProgress(ctx context.Context, itemID string, position, duration float64) error {
	if position < 0 {
		position = 0
	}
	percent := 0.0
	if duration > 0 {
		percent = position / duration * 100
		if percent > 100 {
			percent = 100
		}
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_progress (item_id, resume_time, duration, percent, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			resume_time = excluded.resume_time,
			duration    = excluded.duration,
			percent     = excluded.percent,
			updated_at  = excluded.updated_at`,
		itemID, position, duration, percent, now)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// IncrementPlayCount bumps the play counter for an item.
func (s *Service) IncrementPlayCount(ctx context.Context, itemID string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_progress (item_id, play_count, last_played_at, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			play_count     = watch_progress.play_count + 1,
			last_played_at = excluded.last_played_at,
			updated_at     = excluded.updated_at`,
		itemID, now, now)
	if err != nil {
		return fmt.Errorf("increment play count: %w", err)
	}
	return nil
}

// GetProgress returns the full stored progress row for an item.
func (s *Service) GetProgress(ctx context.Context, itemID string) (*models.WatchProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT item_id, resume_time, duration, percent, last_quality, play_count, last_played_at, updated_at
		FROM watch_progress WHERE item_id = ?`, itemID)
	p, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProgressNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	return p, nil
}

// ListProgress returns recent in-progress items, most recently updated first.
// Items past the played threshold are treated as finished and excluded.
func (s *Service) ListProgress(ctx context.Context, limit int) ([]models.WatchProgress, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, resume_time, duration, percent, last_quality, play_count, last_played_at, updated_at
		FROM watch_progress
		WHERE resume_time > 0 AND percent < ?
		ORDER BY updated_at DESC
		LIMIT ?`, s.playedThreshold, limit)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []models.WatchProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DeleteProgress removes the stored progress for an item.
func (s *Service) DeleteProgress(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watch_progress WHERE item_id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(r rowScanner) (*models.WatchProgress, error) {
	var p models.WatchProgress
	var quality string
	var lastPlayed sql.NullTime
	if err := r.Scan(&p.ItemID, &p.ResumeTime, &p.Duration, &p.Percent, &quality, &p.PlayCount, &lastPlayed, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.LastQuality = models.QualityLevel(quality)
	if lastPlayed.Valid {
		p.LastPlayedAt = lastPlayed.Time
	}
	return &p, nil
}
