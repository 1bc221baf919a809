package service

import (
	"context"
	"sort"
	"time"

	"github.com/mferrant/casetrack/internal/domain"
)

// MonthBucket is one month of a contact's service trend.
type MonthBucket struct {
	Month       string `json:"month"` // "2006-01"
	ServiceDays int    `json:"serviceDays"`
	Minutes     int    `json:"minutes"`
}

// UserMetrics summarizes one worker's service to one contact. Counts are
// distinct service days, not raw entry counts.
type UserMetrics struct {
	ContactID        int64   `json:"contactId"`
	WorkerID         int64   `json:"workerId"`
	ServiceDays      int     `json:"serviceDays"`
	TotalMinutes     int     `json:"totalMinutes"`
	AvgMinutesPerDay float64 `json:"avgMinutesPerDay"`
	FirstService     string  `json:"firstService"` // earliest entry date, empty if none
	LastService      string  `json:"lastService"`
	MonthServiceDays int     `json:"monthServiceDays"` // current-month subset
	MonthMinutes     int     `json:"monthMinutes"`
}

// ContactSummary is the cross-worker rollup for a contact.
type ContactSummary struct {
	ContactID       int64         `json:"contactId"`
	ServiceDays     int           `json:"serviceDays"`
	TotalHours      float64       `json:"totalHours"`
	ActiveWorkers   int           `json:"activeWorkers"`
	LastServiceDate string        `json:"lastServiceDate"`
	LastWorkerID    int64         `json:"lastWorkerId"`
	Trend           []MonthBucket `json:"trend"` // trailing 6 months, oldest first, dense
}

// WorkerRank is one row of the top-workers ranking.
type WorkerRank struct {
	WorkerID     int64 `json:"workerId"`
	ServiceDays  int   `json:"serviceDays"`
	TotalMinutes int   `json:"totalMinutes"`
}

// MetricsService derives summaries from service log snapshots on demand.
// Nothing is cached: the log is small and local, so recomputing per call
// keeps the results trivially consistent with the log.
type MetricsService struct {
	entries domain.ServiceEntryRepository
	clock   domain.Clock
}

// NewMetricsService creates a new MetricsService.
func NewMetricsService(entries domain.ServiceEntryRepository, clock domain.Clock) *MetricsService {
	return &MetricsService{entries: entries, clock: clock}
}

// UserMetrics returns the worker/contact pair summary.
func (m *MetricsService) UserMetrics(ctx context.Context, contactID, workerID int64) (UserMetrics, error) {
	entries, err := m.entries.ListByContactAndWorker(ctx, contactID, workerID)
	if err != nil {
		return UserMetrics{}, err
	}
	return ComputeUserMetrics(entries, contactID, workerID, m.clock.Now()), nil
}

// ContactSummary returns the cross-worker rollup for a contact.
func (m *MetricsService) ContactSummary(ctx context.Context, contactID int64) (ContactSummary, error) {
	entries, err := m.entries.ListByContact(ctx, contactID)
	if err != nil {
		return ContactSummary{}, err
	}
	return ComputeContactSummary(entries, contactID, m.clock.Now()), nil
}

// TopWorkers ranks workers by distinct service days across the whole log.
func (m *MetricsService) TopWorkers(ctx context.Context, limit int) ([]WorkerRank, error) {
	entries, err := m.entries.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return RankWorkers(entries, limit), nil
}

// ComputeUserMetrics summarizes entries already scoped to one
// contact/worker pair.
func ComputeUserMetrics(entries []domain.ServiceEntry, contactID, workerID int64, now time.Time) UserMetrics {
	metrics := UserMetrics{ContactID: contactID, WorkerID: workerID}

	days := make(map[string]bool)
	month := now.Format("2006-01")
	monthDays := make(map[string]bool)

	for _, e := range entries {
		days[e.Date] = true
		metrics.TotalMinutes += e.DurationMinutes

		if metrics.FirstService == "" || e.Date < metrics.FirstService {
			metrics.FirstService = e.Date
		}
		if e.Date > metrics.LastService {
			metrics.LastService = e.Date
		}

		if len(e.Date) >= 7 && e.Date[:7] == month {
			monthDays[e.Date] = true
			metrics.MonthMinutes += e.DurationMinutes
		}
	}

	metrics.ServiceDays = len(days)
	metrics.MonthServiceDays = len(monthDays)
	if metrics.ServiceDays > 0 {
		metrics.AvgMinutesPerDay = float64(metrics.TotalMinutes) / float64(metrics.ServiceDays)
	}
	return metrics
}

// ComputeContactSummary rolls up entries already scoped to one contact.
// The trend is dense: months with no entries still appear with zero counts.
func ComputeContactSummary(entries []domain.ServiceEntry, contactID int64, now time.Time) ContactSummary {
	summary := ContactSummary{ContactID: contactID}

	days := make(map[string]bool)
	workers := make(map[int64]bool)
	totalMinutes := 0
	var lastCreated time.Time

	for _, e := range entries {
		days[e.Date] = true
		workers[e.WorkerID] = true
		totalMinutes += e.DurationMinutes

		if e.Date > summary.LastServiceDate ||
			(e.Date == summary.LastServiceDate && e.CreatedAt.After(lastCreated)) {
			summary.LastServiceDate = e.Date
			summary.LastWorkerID = e.WorkerID
			lastCreated = e.CreatedAt
		}
	}

	summary.ServiceDays = len(days)
	summary.ActiveWorkers = len(workers)
	summary.TotalHours = float64(totalMinutes) / 60

	summary.Trend = make([]MonthBucket, 0, trendMonths)
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := trendMonths - 1; i >= 0; i-- {
		key := base.AddDate(0, -i, 0).Format("2006-01")
		bucket := MonthBucket{Month: key}
		bucketDays := make(map[string]bool)
		for _, e := range entries {
			if len(e.Date) >= 7 && e.Date[:7] == key {
				bucketDays[e.Date] = true
				bucket.Minutes += e.DurationMinutes
			}
		}
		bucket.ServiceDays = len(bucketDays)
		summary.Trend = append(summary.Trend, bucket)
	}

	return summary
}

const trendMonths = 6

// RankWorkers orders workers by distinct service days, descending. Ties
// break by ascending worker id so the ranking is deterministic.
func RankWorkers(entries []domain.ServiceEntry, limit int) []WorkerRank {
	type tally struct {
		days    map[string]bool
		minutes int
	}
	byWorker := make(map[int64]*tally)

	for _, e := range entries {
		t, ok := byWorker[e.WorkerID]
		if !ok {
			t = &tally{days: make(map[string]bool)}
			byWorker[e.WorkerID] = t
		}
		t.days[e.Date] = true
		t.minutes += e.DurationMinutes
	}

	ranks := make([]WorkerRank, 0, len(byWorker))
	for id, t := range byWorker {
		ranks = append(ranks, WorkerRank{WorkerID: id, ServiceDays: len(t.days), TotalMinutes: t.minutes})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].ServiceDays != ranks[j].ServiceDays {
			return ranks[i].ServiceDays > ranks[j].ServiceDays
		}
		return ranks[i].WorkerID < ranks[j].WorkerID
	})

	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}
