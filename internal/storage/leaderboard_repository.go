package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/types"
)

// leaderboardChunkSize bounds rows per multi-value upsert
const leaderboardChunkSize = 100

// LeaderboardRepository handles leaderboard snapshot persistence
type LeaderboardRepository struct {
	db *PostgresDB
}

// NewLeaderboardRepository creates a new leaderboard repository
func NewLeaderboardRepository(db *PostgresDB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// UpsertBatch stores leaderboard rows keyed on (wallet, time_period)
func (r *LeaderboardRepository) UpsertBatch(ctx context.Context, rankings []*models.LeaderboardRanking) error {
	for start := 0; start < len(rankings); start += leaderboardChunkSize {
		end := start + leaderboardChunkSize
		if end > len(rankings) {
			end = len(rankings)
		}
		if err := r.upsertChunk(ctx, rankings[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *LeaderboardRepository) upsertChunk(ctx context.Context, rankings []*models.LeaderboardRanking) error {
	const cols = 10
	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO leaderboard_rankings (
			wallet, time_period, user_name, rank, pnl, volume,
			num_trades, profit_trades, loss_trades, fetched_at
		)
		VALUES `)

	args := make([]interface{}, 0, len(rankings)*cols)
	for i, lr := range rankings {
		if err := ValidateWallet(lr.Wallet); err != nil {
			return fmt.Errorf("invalid wallet %s: %w", lr.Wallet, err)
		}
		lr.Wallet = strings.ToLower(lr.Wallet)

		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
		args = append(args,
			lr.Wallet, string(lr.TimePeriod), lr.UserName, lr.Rank, lr.Pnl,
			lr.Volume, lr.NumTrades, lr.ProfitTrades, lr.LossTrades, lr.FetchedAt,
		)
	}

	sb.WriteString(`
		ON CONFLICT (wallet, time_period)
		DO UPDATE SET
			user_name = EXCLUDED.user_name,
			rank = EXCLUDED.rank,
			pnl = EXCLUDED.pnl,
			volume = EXCLUDED.volume,
			num_trades = EXCLUDED.num_trades,
			profit_trades = EXCLUDED.profit_trades,
			loss_trades = EXCLUDED.loss_trades,
			fetched_at = EXCLUDED.fetched_at
	`)

	if _, err := r.db.Pool().Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to upsert leaderboard rankings: %w", err)
	}
	return nil
}

// GetByPeriod returns the stored leaderboard for one time period
// ordered by rank
func (r *LeaderboardRepository) GetByPeriod(ctx context.Context, period types.TimePeriod) ([]*models.LeaderboardRanking, error) {
	query := `
		SELECT wallet, time_period, user_name, rank, pnl, volume,
			   num_trades, profit_trades, loss_trades, fetched_at
		FROM leaderboard_rankings
		WHERE time_period = $1
		ORDER BY rank ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, string(period))
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	return scanRankings(rows)
}

// GetByWallet returns the wallet's stored rankings across all time
// periods
func (r *LeaderboardRepository) GetByWallet(ctx context.Context, wallet string) ([]*models.LeaderboardRanking, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}

	query := `
		SELECT wallet, time_period, user_name, rank, pnl, volume,
			   num_trades, profit_trades, loss_trades, fetched_at
		FROM leaderboard_rankings
		WHERE wallet = $1
	`

	rows, err := r.db.Pool().Query(ctx, query, strings.ToLower(wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet rankings: %w", err)
	}
	defer rows.Close()

	return scanRankings(rows)
}

func scanRankings(rows pgx.Rows) ([]*models.LeaderboardRanking, error) {
	var rankings []*models.LeaderboardRanking
	for rows.Next() {
		var lr models.LeaderboardRanking
		err := rows.Scan(
			&lr.Wallet,
			&lr.TimePeriod,
			&lr.UserName,
			&lr.Rank,
			&lr.Pnl,
			&lr.Volume,
			&lr.NumTrades,
			&lr.ProfitTrades,
			&lr.LossTrades,
			&lr.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		rankings = append(rankings, &lr)
	}
	return rankings, rows.Err()
}
