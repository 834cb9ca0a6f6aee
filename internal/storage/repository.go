package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"gold-market-alerts/internal/alerting"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrNoCycles indicates the history table is empty.
	ErrNoCycles = errors.New("storage: no cycle history")
)

const (
	cycleColumns = `cycle_ts,
        gold_price_usd,
        dollar_price,
        shams_price,
        dollar_change_percent,
        shams_change_percent,
        fund_weighted_change_percent,
        fund_final_price_avg,
        fund_weighted_bubble_percent,
        sarane_kharid_weighted,
        sarane_forosh_weighted,
        ekhtelaf_sarane_weighted,
        pol_hagigi`

	appendCycleSQL = `INSERT INTO cycle_history (` + cycleColumns + `
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
    );`

	latestCycleSQL = `SELECT ` + cycleColumns + `, created_at
    FROM cycle_history
    ORDER BY cycle_ts DESC
    LIMIT 1;`

	listCyclesBetweenSQL = `SELECT ` + cycleColumns + `, created_at
    FROM cycle_history
    WHERE cycle_ts >= $1
      AND cycle_ts < $2
    ORDER BY cycle_ts;`

	listRecentCyclesSQL = `SELECT ` + cycleColumns + `, created_at
    FROM cycle_history
    ORDER BY cycle_ts DESC
    LIMIT $1;`

	getStatusesSQL = `SELECT class, status FROM alert_status;`

	upsertStatusSQL = `INSERT INTO alert_status (class, status, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (class) DO UPDATE
    SET status = EXCLUDED.status,
        updated_at = EXCLUDED.updated_at;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// HistoryStore defines operations on the append-only cycle history.
type HistoryStore interface {
	AppendCycle(ctx context.Context, record CycleRecord) error
	LatestCycle(ctx context.Context) (CycleRecord, error)
	ListCyclesBetween(ctx context.Context, from, to time.Time) ([]CycleRecord, error)
	ListRecentCycles(ctx context.Context, limit int) ([]CycleRecord, error)
}

// StatusStore persists the hysteresis class → state map.
type StatusStore interface {
	GetStatuses(ctx context.Context) (alerting.StatusMap, error)
	SetStatuses(ctx context.Context, statuses alerting.StatusMap) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to cycle history and alert status.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// AppendCycle appends one completed cycle to the history.
func (s *Store) AppendCycle(ctx context.Context, record CycleRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, appendCycleSQL,
		record.CycleTS,
		record.GoldPriceUSD.String(),
		record.DollarPrice.String(),
		record.ShamsPrice.String(),
		record.DollarChangePct.String(),
		record.ShamsChangePct.String(),
		record.FundWeightedChangePct.String(),
		record.FundFinalPriceAvg.String(),
		record.FundWeightedBubblePct.String(),
		record.SaraneKharidWeighted.String(),
		record.SaraneForoshWeighted.String(),
		record.EkhtelafSaraneWeighted.String(),
		record.PolHagigi.String(),
	)
	if execErr != nil {
		return fmt.Errorf("append cycle: %w", execErr)
	}
	return nil
}

// LatestCycle returns the most recent history row, or ErrNoCycles.
func (s *Store) LatestCycle(ctx context.Context) (CycleRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return CycleRecord{}, err
	}

	rows, queryErr := pool.Query(ctx, latestCycleSQL)
	if queryErr != nil {
		return CycleRecord{}, fmt.Errorf("latest cycle: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return CycleRecord{}, rows.Err()
		}
		return CycleRecord{}, ErrNoCycles
	}
	return scanCycleRecord(rows)
}

// ListCyclesBetween lists history rows within a time window.
func (s *Store) ListCyclesBetween(ctx context.Context, from, to time.Time) ([]CycleRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listCyclesBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list cycles between: %w", queryErr)
	}
	defer rows.Close()

	return collectCycles(rows, 0)
}

// ListRecentCycles lists the most recent rows ordered by descending cycle time.
func (s *Store) ListRecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentCyclesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent cycles: %w", queryErr)
	}
	defer rows.Close()

	return collectCycles(rows, limit)
}

// GetStatuses reads the persisted hysteresis map. Classes missing from the
// table read as normal so a fresh database starts neutral.
func (s *Store) GetStatuses(ctx context.Context) (alerting.StatusMap, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, getStatusesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("get statuses: %w", queryErr)
	}
	defer rows.Close()

	statuses := alerting.NewStatusMap()
	for rows.Next() {
		var class, status string
		if err := rows.Scan(&class, &status); err != nil {
			return nil, err
		}
		if _, tracked := statuses[alerting.Class(class)]; tracked {
			statuses[alerting.Class(class)] = alerting.State(status)
		}
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return statuses, nil
}

// SetStatuses upserts the full hysteresis map.
func (s *Store) SetStatuses(ctx context.Context, statuses alerting.StatusMap) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	for _, class := range alerting.Classes {
		status, ok := statuses[class]
		if !ok {
			continue
		}
		if _, execErr := pool.Exec(ctx, upsertStatusSQL, string(class), string(status)); execErr != nil {
			return fmt.Errorf("upsert status %s: %w", class, execErr)
		}
	}
	return nil
}

func collectCycles(rows pgx.Rows, sizeHint int) ([]CycleRecord, error) {
	records := make([]CycleRecord, 0, sizeHint)
	for rows.Next() {
		record, scanErr := scanCycleRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func scanCycleRecord(rows pgx.Rows) (CycleRecord, error) {
	var (
		record  CycleRecord
		numeric [12]string
	)

	if err := rows.Scan(
		&record.CycleTS,
		&numeric[0],
		&numeric[1],
		&numeric[2],
		&numeric[3],
		&numeric[4],
		&numeric[5],
		&numeric[6],
		&numeric[7],
		&numeric[8],
		&numeric[9],
		&numeric[10],
		&numeric[11],
		&record.CreatedAt,
	); err != nil {
		return CycleRecord{}, err
	}

	targets := []*decimal.Decimal{
		&record.GoldPriceUSD,
		&record.DollarPrice,
		&record.ShamsPrice,
		&record.DollarChangePct,
		&record.ShamsChangePct,
		&record.FundWeightedChangePct,
		&record.FundFinalPriceAvg,
		&record.FundWeightedBubblePct,
		&record.SaraneKharidWeighted,
		&record.SaraneForoshWeighted,
		&record.EkhtelafSaraneWeighted,
		&record.PolHagigi,
	}
	for i, raw := range numeric {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return CycleRecord{}, fmt.Errorf("parse cycle column %d: %w", i+1, err)
		}
		*targets[i] = parsed
	}

	return record, nil
}
