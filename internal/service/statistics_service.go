package service

import (
	"context"
	"time"

	"handyhub/internal/model"
	"handyhub/internal/repository"
	"handyhub/pkg/apperror"

	"golang.org/x/sync/errgroup"
)

const (
	topServicesLimit     = 5
	defaultRevenueMonths = 6
	maxRevenueMonths     = 24
)

type StatisticsService interface {
	// Dashboard aggregates platform counts and this month's revenue
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	// Revenue returns completed-booking revenue per month for the last months months, current month included
	Revenue(ctx context.Context, months int) ([]model.RevenuePoint, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
	now  Clock
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo, now: systemClock}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func sum(counts []model.StatusCount) int64 {
	var n int64
	for _, c := range counts {
		n += c.Count
	}
	return n
}

func (s *statisticsService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	start := monthStart(s.now())
	end := start.AddDate(0, 1, 0)

	// independent read-only queries
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalUsers, stats.ActiveUsers, err = s.repo.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.UsersByRole, err = s.repo.UsersByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.WorkersByStatus, err = s.repo.WorkersByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.BookingsByStatus, err = s.repo.BookingsByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalServices, err = s.repo.CountServices(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.MonthlyRevenue, err = s.repo.CompletedRevenue(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		stats.TopServices, err = s.repo.TopServices(gctx, topServicesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.TotalBookings = sum(stats.BookingsByStatus)
	for _, c := range stats.WorkersByStatus {
		if c.Status == string(model.ApplicationPending) {
			stats.PendingApplications = c.Count
		}
	}
	return &stats, nil
}

func (s *statisticsService) Revenue(ctx context.Context, months int) ([]model.RevenuePoint, error) {
	if months == 0 {
		months = defaultRevenueMonths
	}
	if months < 1 || months > maxRevenueMonths {
		return nil, apperror.Validation("months must be between 1 and 24", map[string]string{"months": "out of range"})
	}

	end := monthStart(s.now()).AddDate(0, 1, 0)
	start := end.AddDate(0, -months, 0)
	points, err := s.repo.RevenueByMonth(ctx, start, end)
	if err != nil {
		return nil, err
	}

	// fill months without completed bookings so the series is continuous
	byPeriod := make(map[string]model.RevenuePoint, len(points))
	for _, p := range points {
		byPeriod[p.Period] = p
	}
	series := make([]model.RevenuePoint, 0, months)
	for m := start; m.Before(end); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		if p, ok := byPeriod[key]; ok {
			series = append(series, p)
			continue
		}
		series = append(series, model.RevenuePoint{Period: key})
	}
	return series, nil
}
