package analytics

import (
	"context"
	"time"

	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultStatsDays = 7
	MaxStatsDays     = 30
	recentLimit      = 10
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Record(ctx context.Context, ev *models.TokenAnalyticsEvent) error {
	return s.db.WithContext(ctx).Create(Sanitize(ev)).Error
}

type Stats struct {
	TotalFailures    int64                         `json:"totalFailures"`
	FailuresByReason map[models.FailureReason]int64 `json:"failuresByReason"`
	RecentFailures   []models.TokenAnalyticsEvent  `json:"recentFailures"`
	Days             int                           `json:"days"`
}

// ClampDays bounds the stats window to [1, MaxStatsDays]; zero or negative means the default.
func ClampDays(days int) int {
	if days <= 0 {
		return DefaultStatsDays
	}
	if days > MaxStatsDays {
		return MaxStatsDays
	}
	return days
}

// Stats summarises failures recorded during the last days.
func (s *Store) Stats(ctx context.Context, days int) (*Stats, error) {
	days = ClampDays(days)
	since := s.now().AddDate(0, 0, -days)
	q := s.db.WithContext(ctx).Model(&models.TokenAnalyticsEvent{}).Where("created_at >= ?", since)

	out := &Stats{Days: days, FailuresByReason: map[models.FailureReason]int64{}}
	if err := q.Session(&gorm.Session{}).Count(&out.TotalFailures).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		FailureReason models.FailureReason
		N             int64
	}
	if err := q.Session(&gorm.Session{}).
		Select("failure_reason, COUNT(*) AS n").
		Group("failure_reason").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out.FailuresByReason[r.FailureReason] = r.N
	}

	var recent []models.TokenAnalyticsEvent
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC").Order("id DESC").
		Limit(recentLimit).
		Find(&recent).Error; err != nil {
		return nil, err
	}
	// oldest -> newest
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	out.RecentFailures = recent
	return out, nil
}

// PurgeBefore deletes events older than cutoff and returns how many were removed.
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.TokenAnalyticsEvent{})
	return res.RowsAffected, res.Error
}
