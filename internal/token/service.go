package token

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
)

const (
	DefaultMaxMessages  = 30
	DefaultValidityDays = 30
)

// Service holds the admin operations on tokens.
type Service struct {
	repo   *Repo
	appURL string
	now    func() time.Time
}

func NewService(repo *Repo, appURL string) *Service {
	return &Service{repo: repo, appURL: appURL, now: time.Now}
}

type GenerateInput struct {
	Label        string  `json:"label"`
	Company      *string `json:"company"`
	MaxMessages  *int    `json:"maxMessages"`
	ValidityDays *int    `json:"validityDays"`
}

type Generated struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	Label       string    `json:"label"`
	Company     *string   `json:"company"`
	MaxMessages int       `json:"maxMessages"`
	ExpiresAt   time.Time `json:"expiresAt"`
	URL         string    `json:"url"`
}

// Generate mints a token expiring validityDays after creation at the same time of day.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*Generated, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, invalid("label", "Label is required")
	}
	maxMessages := DefaultMaxMessages
	if in.MaxMessages != nil {
		maxMessages = *in.MaxMessages
	}
	if maxMessages < 1 {
		return nil, invalid("maxMessages", "maxMessages must be at least 1")
	}
	validity := DefaultValidityDays
	if in.ValidityDays != nil {
		validity = *in.ValidityDays
	}
	if validity < 1 {
		return nil, invalid("validityDays", "validityDays must be at least 1")
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	secret, err := common.NewOpaqueID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &models.Token{
		ID:          id,
		Token:       secret,
		Label:       label,
		Company:     normalizeCompany(in.Company),
		MaxMessages: maxMessages,
		ExpiresAt:   now.AddDate(0, 0, validity),
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	return &Generated{
		ID:          t.ID,
		Token:       t.Token,
		Label:       t.Label,
		Company:     t.Company,
		MaxMessages: t.MaxMessages,
		ExpiresAt:   t.ExpiresAt,
		URL:         s.ShareURL(t.Token),
	}, nil
}

// ShareURL embeds the token as a query parameter of the widget URL.
func (s *Service) ShareURL(tokenString string) string {
	u, err := url.Parse(s.appURL)
	if err != nil {
		return s.appURL + "?token=" + url.QueryEscape(tokenString)
	}
	q := u.Query()
	q.Set("token", tokenString)
	u.RawQuery = q.Encode()
	return u.String()
}

// Detail is a token with its sessions and conversation log.
type Detail struct {
	models.Token
	Sessions          []models.Session      `json:"sessions"`
	Conversations     []models.Conversation `json:"conversations"`
	RemainingMessages int                   `json:"remainingMessages"`
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	t, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Token: *t, Sessions: t.Sessions, Conversations: t.Conversations, RemainingMessages: t.Remaining()}
	d.Token.Sessions, d.Token.Conversations = nil, nil
	if d.Sessions == nil {
		d.Sessions = []models.Session{}
	}
	for i := range d.Sessions {
		if d.Sessions[i].Conversations == nil {
			d.Sessions[i].Conversations = []models.Conversation{}
		}
	}
	if d.Conversations == nil {
		d.Conversations = []models.Conversation{}
	}
	return d, nil
}

type UpdateInput struct {
	MaxMessages *int    `json:"maxMessages"`
	ExpiresAt   *string `json:"expiresAt"`
	Label       *string `json:"label"`
	Company     *string `json:"company"`
}

// Update validates every field before touching the store, so a rejected
// request leaves the token unchanged.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Token, error) {
	cols := map[string]any{}
	if in.MaxMessages != nil {
		if *in.MaxMessages < 1 {
			return nil, invalid("maxMessages", "maxMessages must be at least 1")
		}
		cols["max_messages"] = *in.MaxMessages
	}
	if in.Label != nil {
		label := strings.TrimSpace(*in.Label)
		if label == "" {
			return nil, invalid("label", "Label cannot be empty")
		}
		cols["label"] = label
	}
	if in.ExpiresAt != nil {
		at, err := parseDate(*in.ExpiresAt)
		if err != nil {
			return nil, invalid("expiresAt", "expiresAt must be a valid date")
		}
		cols["expires_at"] = at
	}
	if in.Company != nil {
		cols["company"] = normalizeCompany(in.Company)
	}

	if len(cols) > 0 {
		if err := s.repo.Update(ctx, id, cols); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByID(ctx, id)
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func normalizeCompany(c *string) *string {
	if c == nil {
		return nil
	}
	v := strings.TrimSpace(*c)
	if v == "" {
		return nil
	}
	return &v
}
