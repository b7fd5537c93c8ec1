package queries

import "context"

type AnalyticsQueries interface {
	Dashboard(ctx context.Context) (*DashboardView, error)
	RecentActivity(ctx context.Context, limit int) ([]*LendingEventView, error)
}

type AnalyticsReadStore interface {
	CollectDashboard(ctx context.Context) (*DashboardView, error)
	RecentEvents(ctx context.Context, limit int32) ([]*LendingEventView, error)
}

type analyticsQueriesImpl struct {
	readStore AnalyticsReadStore
}

func NewAnalyticsQueries(readStore AnalyticsReadStore) AnalyticsQueries {
	return &analyticsQueriesImpl{readStore: readStore}
}

func (q *analyticsQueriesImpl) Dashboard(ctx context.Context) (*DashboardView, error) {
	return q.readStore.CollectDashboard(ctx)
}

func (q *analyticsQueriesImpl) RecentActivity(ctx context.Context, limit int) ([]*LendingEventView, error) {
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return q.readStore.RecentEvents(ctx, int32(limit))
}
