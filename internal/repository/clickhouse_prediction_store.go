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

const predictionColumns = "id, lottery_type, algorithm, target_date, predicted_numbers, predicted_power, confidence, created_at, " +
	"actual_numbers, actual_power, matches, power_matched, accuracy, draw_id, evaluated_at"

// CHPredictionStore implements PredictionStore backed by ClickHouse.
// Enrichment writes a new row version, reads use FINAL so the latest one wins.
type CHPredictionStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

func NewCHPredictionStore(db *sql.DB, database string) *CHPredictionStore {
	return &CHPredictionStore{
		db:    db,
		table: database + "." + PredictionsTable,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger injects a structured logger.
func (s *CHPredictionStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPredictionStore) Save(ctx context.Context, p *models.PredictionRecord) error {
	return s.SaveBatch(ctx, []*models.PredictionRecord{p})
}

func (s *CHPredictionStore) SaveBatch(ctx context.Context, ps []*models.PredictionRecord) error {
	if len(ps) == 0 {
		return nil
	}
	updated := s.now()
	values := make([]string, 0, len(ps))
	args := make([]interface{}, 0, len(ps)*16)
	for _, p := range ps {
		if p == nil || p.ID == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			p.ID,
			string(p.LotteryType),
			p.Algorithm,
			models.DateOnly(p.TargetDate),
			toUint16s(p.PredictedNumbers),
			toUint8Ptr(p.PredictedPower),
			p.Confidence,
			p.CreatedAt,
			toUint16s(p.ActualNumbers),
			toUint8Ptr(p.ActualPower),
			toUint8Ptr(p.Matches),
			boolToUint8Ptr(p.PowerMatched),
			p.Accuracy,
			p.DrawID,
			p.EvaluatedAt,
			updated,
		)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (%s, updated_at) VALUES %s", s.table, predictionColumns, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse save_predictions error", applogger.Int("rows", len(values)), applogger.Error(err))
		}
		return fmt.Errorf("save predictions: %w", err)
	}
	return nil
}

func (s *CHPredictionStore) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE id = ? LIMIT 1", predictionColumns, s.table)
	p, err := scanPrediction(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("prediction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	return p, nil
}

func (s *CHPredictionStore) List(ctx context.Context, t models.LotteryType, f domrepo.PredictionFilter) ([]models.PredictionRecord, error) {
	conds := []string{"lottery_type = ?"}
	args := []interface{}{string(t)}
	if f.Algorithm != "" {
		conds = append(conds, "algorithm = ?")
		args = append(args, f.Algorithm)
	}
	switch f.Status {
	case models.PredictionPending:
		conds = append(conds, "evaluated_at IS NULL")
	case models.PredictionEvaluated:
		conds = append(conds, "evaluated_at IS NOT NULL")
	}
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE %s ORDER BY created_at DESC", predictionColumns, s.table, strings.Join(conds, " AND "))
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return s.query(ctx, q, args...)
}

func (s *CHPredictionStore) Pending(ctx context.Context, t models.LotteryType, date time.Time) ([]models.PredictionRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE lottery_type = ? AND target_date = ? AND evaluated_at IS NULL", predictionColumns, s.table)
	return s.query(ctx, q, string(t), models.DateOnly(date))
}

func (s *CHPredictionStore) ByAlgorithm(ctx context.Context, t models.LotteryType, algorithm string) ([]models.PredictionRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE lottery_type = ? AND algorithm = ?", predictionColumns, s.table)
	return s.query(ctx, q, string(t), algorithm)
}

func (s *CHPredictionStore) query(ctx context.Context, q string, args ...interface{}) ([]models.PredictionRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse predictions query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.PredictionRecord
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPrediction(row rowScanner) (*models.PredictionRecord, error) {
	var (
		p                 models.PredictionRecord
		lt                string
		predicted, actual []uint16
		predPower         *uint8
		actualPower       *uint8
		matches           *uint8
		powerMatched      *uint8
	)
	err := row.Scan(&p.ID, &lt, &p.Algorithm, &p.TargetDate, &predicted, &predPower, &p.Confidence, &p.CreatedAt,
		&actual, &actualPower, &matches, &powerMatched, &p.Accuracy, &p.DrawID, &p.EvaluatedAt)
	if err != nil {
		return nil, err
	}
	p.LotteryType = models.LotteryType(lt)
	p.TargetDate = models.DateOnly(p.TargetDate)
	p.PredictedNumbers = toInts(predicted)
	p.PredictedPower = fromUint8Ptr(predPower)
	if p.EvaluatedAt != nil {
		p.ActualNumbers = toInts(actual)
		p.ActualPower = fromUint8Ptr(actualPower)
		p.Matches = fromUint8Ptr(matches)
		if powerMatched != nil {
			hit := *powerMatched == 1
			p.PowerMatched = &hit
		}
	}
	return &p, nil
}

func boolToUint8Ptr(b *bool) *uint8 {
	if b == nil {
		return nil
	}
	var v uint8
	if *b {
		v = 1
	}
	return &v
}

var _ domrepo.PredictionStore = (*CHPredictionStore)(nil)
