package repository

import (
	"context"
	"fmt"
	"time"

	"handyhub/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountUsers(ctx context.Context) (total, active int64, err error)
	UsersByRole(ctx context.Context) ([]model.StatusCount, error)
	WorkersByStatus(ctx context.Context) ([]model.StatusCount, error)
	BookingsByStatus(ctx context.Context) ([]model.StatusCount, error)
	CountServices(ctx context.Context) (int64, error)
	CompletedRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	TopServices(ctx context.Context, limit int) ([]model.ServiceRanking, error)
	RevenueByMonth(ctx context.Context, start, end time.Time) ([]model.RevenuePoint, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountUsers(ctx context.Context) (int64, int64, error) {
	var total, active int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return total, active, nil
}

func (r *statisticsRepository) groupCount(ctx context.Context, table interface{}, column string) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	err := r.db.WithContext(ctx).Model(table).
		Select(column + " AS status, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by %s: %w", column, err)
	}
	return rows, nil
}

func (r *statisticsRepository) UsersByRole(ctx context.Context) ([]model.StatusCount, error) {
	return r.groupCount(ctx, &model.User{}, "role")
}

func (r *statisticsRepository) WorkersByStatus(ctx context.Context) ([]model.StatusCount, error) {
	return r.groupCount(ctx, &model.Worker{}, "application_status")
}

func (r *statisticsRepository) BookingsByStatus(ctx context.Context) ([]model.StatusCount, error) {
	return r.groupCount(ctx, &model.Booking{}, "status")
}

func (r *statisticsRepository) CountServices(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Service{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}
	return n, nil
}

// CompletedRevenue sums pricing totals of bookings completed for dates in [start, end)
func (r *statisticsRepository) CompletedRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var result struct {
		Value string
	}
	err := r.db.WithContext(ctx).Model(&model.Booking{}).
		Select("COALESCE(CAST(SUM((pricing->>'total')::numeric) AS TEXT), '0') AS value").
		Where("status = ? AND scheduled_date >= ? AND scheduled_date < ?", model.BookingCompleted, start.Format(dateLayout), end.Format(dateLayout)).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	value, err := decimal.NewFromString(result.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse revenue %q: %w", result.Value, err)
	}
	return value, nil
}

func (r *statisticsRepository) TopServices(ctx context.Context, limit int) ([]model.ServiceRanking, error) {
	var rankings []model.ServiceRanking
	err := r.db.WithContext(ctx).Table("bookings").
		Select(`services.id AS service_id, services.name AS service_name, services.category AS category,
			COUNT(bookings.id) AS booking_count,
			COALESCE(SUM(CASE WHEN bookings.status = ? THEN (bookings.pricing->>'total')::numeric ELSE 0 END), 0) AS revenue`, model.BookingCompleted).
		Joins("JOIN services ON services.id = bookings.service_id").
		Group("services.id, services.name, services.category").
		Order("booking_count DESC").
		Limit(limit).
		Scan(&rankings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top services: %w", err)
	}
	return rankings, nil
}

func (r *statisticsRepository) RevenueByMonth(ctx context.Context, start, end time.Time) ([]model.RevenuePoint, error) {
	query := `
		SELECT
			TO_CHAR(DATE_TRUNC('month', b.scheduled_date), 'YYYY-MM') AS period,
			COALESCE(SUM((b.pricing->>'total')::numeric), 0) AS revenue,
			COUNT(*) AS bookings
		FROM bookings b
		WHERE b.status = $1
		  AND b.scheduled_date >= $2::date
		  AND b.scheduled_date < $3::date
		GROUP BY DATE_TRUNC('month', b.scheduled_date)
		ORDER BY period
	`

	var rows []model.RevenuePoint
	if err := r.db.WithContext(ctx).Raw(query,
		model.BookingCompleted, start.Format(dateLayout), end.Format(dateLayout),
	).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue statistics: %w", err)
	}
	return rows, nil
}
