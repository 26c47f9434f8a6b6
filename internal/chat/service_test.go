package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/suPer8Hu/recruiter-chat/internal/ai"
	"github.com/suPer8Hu/recruiter-chat/internal/analytics"
	"github.com/suPer8Hu/recruiter-chat/internal/history"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"github.com/suPer8Hu/recruiter-chat/internal/testutil"
	"github.com/suPer8Hu/recruiter-chat/internal/token"
	"gorm.io/gorm"
)

type recordingProvider struct {
	mu    sync.Mutex
	calls int
	last  []ai.Message
	reply string
	err   error
}

func (p *recordingProvider) Name() string { return "fake" }

func (p *recordingProvider) Chat(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	_ = ctx
	_ = opts
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	// copy to avoid mutations
	p.last = append([]ai.Message(nil), messages...)
	return p.reply, p.err
}

type staticPrompt string

func (p staticPrompt) SystemPrompt(context.Context) string { return string(p) }

type eventLog struct {
	mu     sync.Mutex
	events []*models.TokenAnalyticsEvent
}

func (l *eventLog) Record(_ context.Context, ev *models.TokenAnalyticsEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

type fixture struct {
	db     *gorm.DB
	repo   *Repo
	prov   *recordingProvider
	events *eventLog
	cache  *history.MemoryCache
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	f := &fixture{
		db:     db,
		repo:   NewRepo(db),
		prov:   &recordingProvider{reply: "ok"},
		events: &eventLog{},
		cache:  history.NewMemoryCache(),
	}
	validator := token.NewValidator(token.NewRepo(db), f.events, nil, "Alex")
	gw := NewGateway(f.prov, staticPrompt("system"), ai.Options{MaxTokens: 1000, Temperature: 0.7}, nil)
	f.svc = NewService(f.repo, validator, gw, f.cache, nil)
	return f
}

func (f *fixture) usedMessages(t *testing.T, id string) int {
	t.Helper()
	var tok models.Token
	if err := f.db.First(&tok, "id = ?", id).Error; err != nil {
		t.Fatalf("load token: %v", err)
	}
	return tok.UsedMessages
}

func (f *fixture) conversations(t *testing.T, tokenID string) []models.Conversation {
	t.Helper()
	var convs []models.Conversation
	if err := f.db.Where("token_id = ?", tokenID).Order("id ASC").Find(&convs).Error; err != nil {
		t.Fatalf("query conversations: %v", err)
	}
	return convs
}

func reasonOf(err error) models.FailureReason {
	var verr *token.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return ""
}

func TestSend_LastMessageThenLimit(t *testing.T) {
	f := newFixture(t)
	tok := testutil.CreateToken(t, f.db, testutil.WithUsage(0, 1))
	ctx := context.Background()

	reply, err := f.svc.Send(ctx, SendInput{Message: "Hello", Token: tok.Token}, token.ValidationContext{})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if reply.Response != "ok" || reply.RemainingMessages != 0 {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	_, err = f.svc.Send(ctx, SendInput{Message: "Again", Token: tok.Token}, token.ValidationContext{})
	if got := reasonOf(err); got != models.ReasonMessageLimitReached {
		t.Fatalf("expected message_limit_reached, got %q (%v)", got, err)
	}
	if f.prov.calls != 1 {
		t.Fatalf("provider should not be called for an exhausted token, calls=%d", f.prov.calls)
	}
	if used := f.usedMessages(t, tok.ID); used != 1 {
		t.Fatalf("expected usedMessages=1, got %d", used)
	}
	if n := len(f.conversations(t, tok.ID)); n != 1 {
		t.Fatalf("expected 1 conversation, got %d", n)
	}
}

func TestSend_PassesHistoryToProvider(t *testing.T) {
	f := newFixture(t)
	tok := testutil.CreateToken(t, f.db)
	ctx := context.Background()

	f.prov.reply = "first answer"
	if _, err := f.svc.Send(ctx, SendInput{Message: "first", Token: tok.Token}, token.ValidationContext{}); err != nil {
		t.Fatalf("send first: %v", err)
	}
	f.prov.reply = "second answer"
	reply, err := f.svc.Send(ctx, SendInput{Message: "second", Token: tok.Token}, token.ValidationContext{})
	if err != nil {
		t.Fatalf("send second: %v", err)
	}
	if reply.RemainingMessages != 28 {
		t.Fatalf("expected 28 remaining, got %d", reply.RemainingMessages)
	}

	want := []ai.Message{
		{Role: ai.RoleSystem, Content: "system"},
		{Role: ai.RoleUser, Content: "first"},
		{Role: ai.RoleAssistant, Content: "first answer"},
		{Role: ai.RoleUser, Content: "second"},
	}
	if len(f.prov.last) != len(want) {
		t.Fatalf("expected %d provider messages, got %d", len(want), len(f.prov.last))
	}
	for i := range want {
		if f.prov.last[i] != want[i] {
			t.Fatalf("message %d: want %+v, got %+v", i, want[i], f.prov.last[i])
		}
	}

	hist, _ := f.cache.Get(ctx, tok.Token)
	if len(hist) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(hist))
	}
}

func TestSend_HistoryIsPerToken(t *testing.T) {
	f := newFixture(t)
	a := testutil.CreateToken(t, f.db)
	b := testutil.CreateToken(t, f.db)
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, SendInput{Message: "from a", Token: a.Token}, token.ValidationContext{}); err != nil {
		t.Fatalf("send a: %v", err)
	}
	if _, err := f.svc.Send(ctx, SendInput{Message: "from b", Token: b.Token}, token.ValidationContext{}); err != nil {
		t.Fatalf("send b: %v", err)
	}
	if len(f.prov.last) != 2 {
		t.Fatalf("token b should start without history, got %d messages", len(f.prov.last))
	}
}

func TestSend_UpstreamFailureChargesNothing(t *testing.T) {
	f := newFixture(t)
	tok := testutil.CreateToken(t, f.db)
	f.prov.err = errors.New("boom")

	_, err := f.svc.Send(context.Background(), SendInput{Message: "hi", Token: tok.Token}, token.ValidationContext{})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if used := f.usedMessages(t, tok.ID); used != 0 {
		t.Fatalf("expected no usage, got %d", used)
	}
	if n := len(f.conversations(t, tok.ID)); n != 0 {
		t.Fatalf("expected no conversations, got %d", n)
	}
	if hist, _ := f.cache.Get(context.Background(), tok.Token); len(hist) != 0 {
		t.Fatalf("history should be untouched, got %d entries", len(hist))
	}
}

func TestSend_EmptyContentUsesFallback(t *testing.T) {
	f := newFixture(t)
	tok := testutil.CreateToken(t, f.db)
	f.prov.reply = ""

	reply, err := f.svc.Send(context.Background(), SendInput{Message: "hi", Token: tok.Token}, token.ValidationContext{})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply.Response != FallbackResponse {
		t.Fatalf("expected fallback, got %q", reply.Response)
	}
}

func TestSend_MissingFields(t *testing.T) {
	f := newFixture(t)
	for _, in := range []SendInput{{Token: "t"}, {Message: "m"}, {Message: "  ", Token: "t"}} {
		if _, err := f.svc.Send(context.Background(), in, token.ValidationContext{}); !errors.Is(err, ErrMessageRequired) {
			t.Fatalf("input %+v: expected ErrMessageRequired, got %v", in, err)
		}
	}
	if f.prov.calls != 0 {
		t.Fatalf("provider called for invalid input")
	}
}

func TestSend_InvalidTokenRecordsAnalytics(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Send(context.Background(), SendInput{Message: "hi", Token: "bogus"}, token.ValidationContext{IPAddress: "1.2.3.4"})
	if reasonOf(err) != models.ReasonInvalidToken {
		t.Fatalf("expected invalid_token, got %v", err)
	}
	if len(f.events.events) != 1 {
		t.Fatalf("expected one analytics event, got %d", len(f.events.events))
	}
	ev := f.events.events[0]
	if ev.AccessType == nil || *ev.AccessType != models.AccessMessageSend {
		t.Fatalf("expected message_send access type, got %v", ev.AccessType)
	}
}

// exhaustingGenerator spends the token's budget while the reply is being generated.
type exhaustingGenerator struct {
	db      *gorm.DB
	tokenID string
}

func (g exhaustingGenerator) Generate(ctx context.Context, message string, hist []history.Entry) (string, error) {
	err := g.db.Model(&models.Token{}).Where("id = ?", g.tokenID).
		UpdateColumn("used_messages", gorm.Expr("max_messages")).Error
	return "late reply", err
}

func TestSend_BudgetSpentDuringGeneration(t *testing.T) {
	f := newFixture(t)
	tok := testutil.CreateToken(t, f.db, testutil.WithUsage(0, 2))
	validator := token.NewValidator(token.NewRepo(f.db), f.events, nil, "Alex")
	svc := NewService(f.repo, validator, exhaustingGenerator{db: f.db, tokenID: tok.ID}, f.cache, nil)

	_, err := svc.Send(context.Background(), SendInput{Message: "hi", Token: tok.Token}, token.ValidationContext{})
	if !errors.Is(err, ErrUsageExhausted) {
		t.Fatalf("expected ErrUsageExhausted, got %v", err)
	}
	if reasonOf(err) != models.ReasonMessageLimitReached {
		t.Fatalf("expected message_limit_reached validation error, got %v", err)
	}
	if used := f.usedMessages(t, tok.ID); used != 2 {
		t.Fatalf("usage must not exceed the limit, got %d", used)
	}
	if n := len(f.conversations(t, tok.ID)); n != 0 {
		t.Fatalf("discarded reply must not be stored, got %d", n)
	}
	if len(f.events.events) != 1 || f.events.events[0].FailureReason != models.ReasonMessageLimitReached {
		t.Fatalf("expected one message_limit_reached event, got %+v", f.events.events)
	}
}

// cancellingGenerator simulates a client that disconnects right after the reply is produced.
type cancellingGenerator struct {
	cancel context.CancelFunc
}

func (g cancellingGenerator) Generate(ctx context.Context, message string, hist []history.Entry) (string, error) {
	g.cancel()
	return "reply", nil
}

func TestSend_AccountingSurvivesDisconnect(t *testing.T) {
	f := newFixture(t)
	tok := testutil.CreateToken(t, f.db)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	validator := token.NewValidator(token.NewRepo(f.db), f.events, nil, "Alex")
	svc := NewService(f.repo, validator, cancellingGenerator{cancel: cancel}, f.cache, nil)

	if _, err := svc.Send(ctx, SendInput{Message: "hi", Token: tok.Token}, token.ValidationContext{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if used := f.usedMessages(t, tok.ID); used != 1 {
		t.Fatalf("expected usage to be recorded, got %d", used)
	}
}

func TestSend_LinksOwnSessionOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := testutil.CreateToken(t, f.db)
	other := testutil.CreateToken(t, f.db)

	sess, err := f.svc.CreateSession(ctx, mine.Token, token.ValidationContext{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	foreign, err := f.svc.CreateSession(ctx, other.Token, token.ValidationContext{})
	if err != nil {
		t.Fatalf("create foreign session: %v", err)
	}

	if _, err := f.svc.Send(ctx, SendInput{Message: "a", Token: mine.Token, SessionID: sess.SessionID}, token.ValidationContext{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := f.svc.Send(ctx, SendInput{Message: "b", Token: mine.Token, SessionID: foreign.SessionID}, token.ValidationContext{}); err != nil {
		t.Fatalf("send: %v", err)
	}

	convs := f.conversations(t, mine.ID)
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].SessionID == nil || *convs[0].SessionID != sess.SessionID {
		t.Fatalf("first conversation should link to own session, got %v", convs[0].SessionID)
	}
	if convs[1].SessionID != nil {
		t.Fatalf("foreign session must not be linked, got %v", *convs[1].SessionID)
	}
}

func TestCreateSession_FreshIDPerCall(t *testing.T) {
	f := newFixture(t)
	tok := testutil.CreateToken(t, f.db)

	a, err := f.svc.CreateSession(context.Background(), tok.Token, token.ValidationContext{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	b, err := f.svc.CreateSession(context.Background(), tok.Token, token.ValidationContext{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if a.SessionID == b.SessionID {
		t.Fatalf("expected distinct session ids")
	}
	if a.TokenID != tok.ID || a.CreatedAt.IsZero() {
		t.Fatalf("unexpected session: %+v", a)
	}
	if used := f.usedMessages(t, tok.ID); used != 0 {
		t.Fatalf("creating sessions must not consume messages, got %d", used)
	}
}

func TestCreateSession_NoToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateSession(context.Background(), "", token.ValidationContext{FullURL: "https://chat.example.com/"})
	if !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("expected ErrTokenRequired, got %v", err)
	}
	if len(f.events.events) != 1 {
		t.Fatalf("expected one analytics event, got %d", len(f.events.events))
	}
	ev := f.events.events[0]
	if ev.FailureReason != models.ReasonNoToken || ev.AccessType == nil || *ev.AccessType != models.AccessPageAccess {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestCreateSession_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	tok := testutil.CreateToken(t, f.db, testutil.WithExpiry(testutil.Past()))
	_, err := f.svc.CreateSession(context.Background(), tok.Token, token.ValidationContext{})
	if reasonOf(err) != models.ReasonTokenExpired {
		t.Fatalf("expected token_expired, got %v", err)
	}
}

var _ analytics.Recorder = (*eventLog)(nil)
