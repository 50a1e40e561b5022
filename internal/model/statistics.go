package model

import "github.com/shopspring/decimal"

// StatusCount is one row of a GROUP BY status query
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ServiceRanking represents a catalog entry ranked by booking volume
type ServiceRanking struct {
	ServiceID    string          `json:"service_id"`
	ServiceName  string          `json:"service_name"`
	Category     string          `json:"category"`
	BookingCount int64           `json:"booking_count"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// RevenuePoint is the completed-booking revenue for one month
type RevenuePoint struct {
	Period   string          `json:"period"`
	Revenue  decimal.Decimal `json:"revenue"`
	Bookings int64           `json:"bookings"`
}

// DashboardStats aggregates the admin overview
type DashboardStats struct {
	TotalUsers          int64            `json:"total_users"`
	ActiveUsers         int64            `json:"active_users"`
	UsersByRole         []StatusCount    `json:"users_by_role"`
	WorkersByStatus     []StatusCount    `json:"workers_by_status"`
	TotalServices       int64            `json:"total_services"`
	BookingsByStatus    []StatusCount    `json:"bookings_by_status"`
	TotalBookings       int64            `json:"total_bookings"`
	MonthlyRevenue      decimal.Decimal  `json:"monthly_revenue"`
	TopServices         []ServiceRanking `json:"top_services"`
	PendingApplications int64            `json:"pending_applications"`
}
