// Package analytics records token validation failures and summarises them
// for the admin stats endpoint.
package analytics

import (
	"context"

	"github.com/suPer8Hu/recruiter-chat/internal/models"
)

const (
	maxTokenLen     = 500
	maxUserAgentLen = 500
	maxIPLen        = 45
	maxURLLen       = 2000
)

// Recorder persists or forwards a validation failure event.
type Recorder interface {
	Record(ctx context.Context, ev *models.TokenAnalyticsEvent) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, ev *models.TokenAnalyticsEvent) error

func (f RecorderFunc) Record(ctx context.Context, ev *models.TokenAnalyticsEvent) error {
	return f(ctx, ev)
}

// Nop discards every event.
var Nop Recorder = RecorderFunc(func(context.Context, *models.TokenAnalyticsEvent) error { return nil })

// Sanitize caps free-form fields and drops empty ones in place.
func Sanitize(ev *models.TokenAnalyticsEvent) *models.TokenAnalyticsEvent {
	ev.TokenString = truncPtr(ev.TokenString, maxTokenLen)
	ev.UserAgent = truncPtr(ev.UserAgent, maxUserAgentLen)
	ev.IPAddress = truncPtr(ev.IPAddress, maxIPLen)
	ev.FullURL = truncPtr(ev.FullURL, maxURLLen)
	return ev
}

// StrPtr returns nil for the empty string.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncPtr(s *string, n int) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	if len(v) > n {
		v = truncate(v, n)
	}
	return &v
}

// truncate cuts to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
