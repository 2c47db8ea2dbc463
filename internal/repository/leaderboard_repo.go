package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Scope выбирает метрику таблицы лидеров
type Scope string

const (
	ScopeWeekly Scope = "weekly" // weekly_score
	ScopeTotal  Scope = "total"  // total_coins
)

var ErrUnknownScope = errors.New("unknown leaderboard scope")

// LeaderboardEntry is one row of the top list.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	PlayerID  int64  `json:"player_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Score     int64  `json:"score"`
	Level     int64  `json:"level"`
}

type LeaderboardRepository struct {
	db *pgxpool.Pool
}

func NewLeaderboardRepository(db *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

func scoreColumn(scope Scope) (string, error) {
	// column name is selected from a fixed set, never from user input
	switch scope {
	case ScopeWeekly:
		return "weekly_score", nil
	case ScopeTotal:
		return "total_coins", nil
	default:
		return "", ErrUnknownScope
	}
}

// Top returns the first limit players, ordered by score desc with ties broken
// by ascending id so repeated calls always agree.
func (r *LeaderboardRepository) Top(ctx context.Context, scope Scope, limit int) ([]LeaderboardEntry, error) {
	col, err := scoreColumn(scope)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), `+col+`, level
		 FROM players
		 ORDER BY `+col+` DESC, id ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.FirstName, &e.Score, &e.Level); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		res = append(res, e)
	}
	return res, rows.Err()
}

// Rank returns the player's 1-based position: count of strictly greater
// scores plus one. Equal scores share a rank, matching the tie rule above.
func (r *LeaderboardRepository) Rank(ctx context.Context, scope Scope, playerID int64) (rank int, score int64, err error) {
	col, err := scoreColumn(scope)
	if err != nil {
		return 0, 0, err
	}

	err = r.db.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM players px WHERE px.`+col+` > p.`+col+`) + 1, p.`+col+`
		 FROM players p WHERE p.id = $1`, playerID,
	).Scan(&rank, &score)
	if err != nil {
		return 0, 0, err
	}
	return rank, score, nil
}
