package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweeparena/sweeparena/internal/dependencies/clock"
	"github.com/sweeparena/sweeparena/internal/model"
)

// Bounds applied to submitted rows. Values outside are clamped, not
// rejected: a buggy client's garbage should not block everyone else's
// standings.
const (
	MaxScore    = 1_000_000
	MaxDuration = 24 * time.Hour

	submitTimeout = 5 * time.Second
)

// Entry is one leaderboard row
type Entry struct {
	PlayerName string        `json:"player_name"`
	Score      int           `json:"score"`
	Mode       string        `json:"mode"`
	Difficulty string        `json:"difficulty"`
	Won        bool          `json:"won"`
	Duration   time.Duration `json:"duration_ms"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Service persists finished-game standings to Postgres. A nil pool
// disables it entirely; submissions become no-ops and reads return
// empty. Game flow never depends on it.
type Service struct {
	pool   *pgxpool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new leaderboard Service. pool may be nil.
func New(pool *pgxpool.Pool, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		pool:   pool,
		clock:  clk,
		logger: logger.With(slog.String("component", "leaderboard")),
	}
}

// Enabled reports whether a database is configured.
func (s *Service) Enabled() bool {
	return s.pool != nil
}

// EnsureSchema creates the leaderboard table if it does not exist.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS leaderboard (
			id          BIGSERIAL PRIMARY KEY,
			player_name TEXT NOT NULL,
			score       INTEGER NOT NULL,
			mode        TEXT NOT NULL,
			difficulty  TEXT NOT NULL,
			won         BOOLEAN NOT NULL,
			duration_ms BIGINT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		)`)
	return err
}

// Submit records a finished game's standings. Fire and forget: the
// write runs on its own goroutine with a timeout, and failures are
// logged, never surfaced to game flow.
func (s *Service) Submit(ctx context.Context, room *model.Room, session *model.GameSession, results []model.PlayerResult) {
	if !s.Enabled() || len(results) == 0 {
		return
	}

	duration := time.Duration(0)
	if session.EndedAt != nil {
		duration = session.EndedAt.Sub(session.StartedAt)
	}

	entries := make([]Entry, 0, len(results))
	recordedAt := s.clock.Now()
	for _, r := range results {
		entries = append(entries, Entry{
			PlayerName: r.DisplayName,
			Score:      clampScore(r.Score),
			Mode:       string(session.Mode),
			Difficulty: string(room.Difficulty),
			Won:        r.Won,
			Duration:   clampDuration(duration),
			RecordedAt: recordedAt,
		})
	}

	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()

		for _, e := range entries {
			_, err := s.pool.Exec(writeCtx, `
				INSERT INTO leaderboard (player_name, score, mode, difficulty, won, duration_ms, recorded_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				e.PlayerName, e.Score, e.Mode, e.Difficulty, e.Won, e.Duration.Milliseconds(), e.RecordedAt,
			)
			if err != nil {
				s.logger.Error("leaderboard write failed",
					slog.String("player", e.PlayerName),
					slog.String("error", err.Error()),
				)
				return
			}
		}
	}()
}

// Top returns the highest scores, optionally filtered by mode.
func (s *Service) Top(ctx context.Context, mode string, limit int) ([]Entry, error) {
	if !s.Enabled() {
		return []Entry{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	query := `
		SELECT player_name, score, mode, difficulty, won, duration_ms, recorded_at
		FROM leaderboard`
	args := []any{}
	if mode != "" {
		query += ` WHERE mode = $1`
		args = append(args, mode)
	}
	query += fmt.Sprintf(` ORDER BY score DESC, recorded_at ASC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMS int64
		if err := rows.Scan(&e.PlayerName, &e.Score, &e.Mode, &e.Difficulty, &e.Won, &durationMS, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxDuration {
		return MaxDuration
	}
	return d
}
