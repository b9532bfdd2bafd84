package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
	applogger "LottoStats/pkg/logger"
)

const resultColumns = "id, lottery_type, draw_date, numbers, power_number, jackpot1, jackpot2, process_time"

// CHResultStore implements ResultStore backed by ClickHouse.
type CHResultStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

// NewCHResultStore creates a result store over database.lottery_results.
func NewCHResultStore(db *sql.DB, database string) *CHResultStore {
	return &CHResultStore{
		db:    db,
		table: database + "." + ResultsTable,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger injects a structured logger.
func (s *CHResultStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHResultStore) Init(ctx context.Context) error {
	return s.Health(ctx) // schema init in pkg
}

func (s *CHResultStore) Save(ctx context.Context, r *models.LotteryResult) error {
	return s.SaveBatch(ctx, []*models.LotteryResult{r})
}

func (s *CHResultStore) SaveBatch(ctx context.Context, rs []*models.LotteryResult) error {
	if len(rs) == 0 {
		return nil
	}
	const chunkSize = 500
	ingested := s.now()
	for start := 0; start < len(rs); start += chunkSize {
		end := start + chunkSize
		if end > len(rs) {
			end = len(rs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, r := range rs[start:end] {
			if r == nil || r.ID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.ID,
				string(r.LotteryType),
				models.DateOnly(r.Date),
				toUint16s(r.Result),
				toUint8Ptr(r.PowerNumber),
				r.Jackpot1,
				r.Jackpot2,
				r.ProcessTime,
				ingested,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s, ingested_at) VALUES %s", s.table, resultColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.logError("clickhouse save_results error", err, applogger.Int("rows", len(values)))
			return fmt.Errorf("save results: %w", err)
		}
	}
	return nil
}

func (s *CHResultStore) Exists(ctx context.Context, t models.LotteryType, id string) (bool, error) {
	q := fmt.Sprintf("SELECT count() FROM %s FINAL WHERE lottery_type = ? AND id = ?", s.table)
	var n uint64
	if err := s.db.QueryRowContext(ctx, q, string(t), id).Scan(&n); err != nil {
		return false, fmt.Errorf("result exists: %w", err)
	}
	return n > 0, nil
}

func (s *CHResultStore) Get(ctx context.Context, t models.LotteryType, id string) (*models.LotteryResult, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE lottery_type = ? AND id = ? LIMIT 1", resultColumns, s.table)
	r, err := scanResult(s.db.QueryRowContext(ctx, q, string(t), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("result", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return r, nil
}

func (s *CHResultStore) List(ctx context.Context, t models.LotteryType, f domrepo.ResultFilter) ([]models.LotteryResult, error) {
	where, args := resultWhere(t, f)
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE %s ORDER BY draw_date DESC, id DESC", resultColumns, s.table, where)
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	return s.query(ctx, "list_results", q, args...)
}

func (s *CHResultStore) Count(ctx context.Context, t models.LotteryType, f domrepo.ResultFilter) (int64, error) {
	where, args := resultWhere(t, f)
	q := fmt.Sprintf("SELECT count() FROM %s FINAL WHERE %s", s.table, where)
	var n uint64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return int64(n), nil
}

func (s *CHResultStore) Latest(ctx context.Context, t models.LotteryType, n int) ([]models.LotteryResult, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE lottery_type = ? ORDER BY draw_date DESC, id DESC", resultColumns, s.table)
	args := []interface{}{string(t)}
	if n > 0 {
		q += " LIMIT ?"
		args = append(args, n)
	}
	return s.query(ctx, "latest_results", q, args...)
}

func (s *CHResultStore) Since(ctx context.Context, t models.LotteryType, from time.Time) ([]models.LotteryResult, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE lottery_type = ? AND draw_date >= ? ORDER BY draw_date DESC, id DESC", resultColumns, s.table)
	return s.query(ctx, "results_since", q, string(t), models.DateOnly(from))
}

func (s *CHResultStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHResultStore) Close() error {
	return nil // managed by pkg
}

func resultWhere(t models.LotteryType, f domrepo.ResultFilter) (string, []interface{}) {
	conds := []string{"lottery_type = ?"}
	args := []interface{}{string(t)}
	if !f.From.IsZero() {
		conds = append(conds, "draw_date >= ?")
		args = append(args, models.DateOnly(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "draw_date <= ?")
		args = append(args, models.DateOnly(f.To))
	}
	return strings.Join(conds, " AND "), args
}

func (s *CHResultStore) query(ctx context.Context, op, q string, args ...interface{}) ([]models.LotteryResult, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logError("clickhouse "+op+" query error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.LotteryResult, 0, 64)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			s.logError("clickhouse "+op+" scan error", err)
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse "+op+" ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (*models.LotteryResult, error) {
	var (
		r       models.LotteryResult
		lt      string
		numbers []uint16
		power   *uint8
	)
	if err := row.Scan(&r.ID, &lt, &r.Date, &numbers, &power, &r.Jackpot1, &r.Jackpot2, &r.ProcessTime); err != nil {
		return nil, err
	}
	r.LotteryType = models.LotteryType(lt)
	r.Date = models.DateOnly(r.Date)
	r.Result = toInts(numbers)
	r.PowerNumber = fromUint8Ptr(power)
	return &r, nil
}

func (s *CHResultStore) logError(msg string, err error, fields ...applogger.Field) {
	if s.l == nil {
		return
	}
	fields = append(fields, applogger.String("table", s.table), applogger.Error(err))
	s.l.Error(msg, fields...)
}

var _ domrepo.ResultStore = (*CHResultStore)(nil)
