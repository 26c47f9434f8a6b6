package analytics

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"github.com/suPer8Hu/recruiter-chat/internal/testutil"
)

func event(reason models.FailureReason, at time.Time) *models.TokenAnalyticsEvent {
	return &models.TokenAnalyticsEvent{FailureReason: reason, CreatedAt: at}
}

func TestSanitize_TruncatesAndDropsEmpty(t *testing.T) {
	long := strings.Repeat("a", 600)
	ip := strings.Repeat("1", 60)
	empty := ""
	ev := Sanitize(&models.TokenAnalyticsEvent{
		FailureReason: models.ReasonInvalidToken,
		TokenString:   &long,
		UserAgent:     &empty,
		IPAddress:     &ip,
		FullURL:       StrPtr(strings.Repeat("u", 2500)),
	})

	require.NotNil(t, ev.TokenString)
	assert.Len(t, *ev.TokenString, 500)
	assert.Nil(t, ev.UserAgent)
	assert.Len(t, *ev.IPAddress, 45)
	assert.Len(t, *ev.FullURL, 2000)
	// the caller's string is not modified
	assert.Len(t, long, 600)
}

func TestTruncate_RespectsRuneBoundary(t *testing.T) {
	s := "ab€" // € is 3 bytes
	assert.Equal(t, "ab", truncate(s, 3))
	assert.Equal(t, "ab€", truncate(s, 5))
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, DefaultStatsDays, ClampDays(0))
	assert.Equal(t, DefaultStatsDays, ClampDays(-4))
	assert.Equal(t, 1, ClampDays(1))
	assert.Equal(t, MaxStatsDays, ClampDays(365))
}

func TestStats_GroupsByReasonWithinWindow(t *testing.T) {
	gdb := testutil.OpenDB(t)
	s := NewStore(gdb)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Record(ctx, event(models.ReasonInvalidToken, now.Add(-time.Hour))))
	require.NoError(t, s.Record(ctx, event(models.ReasonInvalidToken, now.Add(-2*time.Hour))))
	require.NoError(t, s.Record(ctx, event(models.ReasonTokenExpired, now.Add(-3*time.Hour))))
	// outside a 7 day window
	require.NoError(t, s.Record(ctx, event(models.ReasonMessageLimitReached, now.AddDate(0, 0, -10))))

	st, err := s.Stats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalFailures)
	assert.Equal(t, int64(2), st.FailuresByReason[models.ReasonInvalidToken])
	assert.Equal(t, int64(1), st.FailuresByReason[models.ReasonTokenExpired])
	assert.NotContains(t, st.FailuresByReason, models.ReasonMessageLimitReached)

	st, err = s.Stats(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, MaxStatsDays, st.Days)
	assert.Equal(t, int64(4), st.TotalFailures)
}

func TestStats_RecentFailuresAreLastTenOldestFirst(t *testing.T) {
	gdb := testutil.OpenDB(t)
	s := NewStore(gdb)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 12; i++ {
		ev := event(models.ReasonInvalidToken, base.Add(time.Duration(i)*time.Minute))
		ev.TokenString = StrPtr(fmt.Sprintf("tok-%02d", i))
		require.NoError(t, s.Record(ctx, ev))
	}

	st, err := s.Stats(ctx, 1)
	require.NoError(t, err)
	require.Len(t, st.RecentFailures, 10)
	assert.Equal(t, "tok-02", *st.RecentFailures[0].TokenString)
	assert.Equal(t, "tok-11", *st.RecentFailures[9].TokenString)
}

func TestPurgeBefore(t *testing.T) {
	gdb := testutil.OpenDB(t)
	s := NewStore(gdb)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Record(ctx, event(models.ReasonNoToken, now.AddDate(0, 0, -100))))
	require.NoError(t, s.Record(ctx, event(models.ReasonNoToken, now)))

	n, err := s.PurgeBefore(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left int64
	require.NoError(t, gdb.Model(&models.TokenAnalyticsEvent{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}

func TestRetention_RunOnceUsesConfiguredDays(t *testing.T) {
	gdb := testutil.OpenDB(t)
	s := NewStore(gdb)
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Record(ctx, event(models.ReasonNoToken, now.AddDate(0, 0, -5))))
	require.NoError(t, s.Record(ctx, event(models.ReasonNoToken, now.AddDate(0, 0, -1))))

	NewRetention(s, 3).RunOnce()

	var left int64
	require.NoError(t, gdb.Model(&models.TokenAnalyticsEvent{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}

func TestRetention_DisabledDoesNotSchedule(t *testing.T) {
	r := NewRetention(NewStore(testutil.OpenDB(t)), 0)
	require.NoError(t, r.Start())
	assert.Empty(t, r.scheduler.Jobs())
}
