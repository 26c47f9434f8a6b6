package token

import (
	"context"
	"fmt"
	"strings"

	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	defaultSortKey  = "createdAt"
)

// aggregate is a per-token value derived from a child table, usable as a sort key.
type aggregate struct {
	table  string
	fn     string
	column string
}

func (a aggregate) expr() string {
	return fmt.Sprintf("(SELECT %s(%s.%s) FROM %s WHERE %s.token_id = tokens.id)",
		a.fn, a.table, a.column, a.table, a.table)
}

var (
	latestMessage = aggregate{table: "conversations", fn: "MAX", column: "created_at"}
	latestSession = aggregate{table: "chat_sessions", fn: "MAX", column: "created_at"}
)

// sortKeys maps the public sort key to a whitelisted SQL expression.
var sortKeys = map[string]string{
	"label":         "tokens.label",
	"company":       "tokens.company",
	"createdAt":     "tokens.created_at",
	"expiresAt":     "tokens.expires_at",
	"usedMessages":  "tokens.used_messages",
	"latestMessage": latestMessage.expr(),
	"latestSession": latestSession.expr(),
}

type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

func (q ListQuery) normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if _, ok := sortKeys[q.SortBy]; !ok {
		q.SortBy = defaultSortKey
	}
	if strings.ToLower(q.SortOrder) == "asc" {
		q.SortOrder = "asc"
	} else {
		q.SortOrder = "desc"
	}
	return q
}

func (q ListQuery) orderBy() clause.OrderByColumn {
	return clause.OrderByColumn{
		Column: clause.Column{Name: sortKeys[q.SortBy], Raw: true},
		Desc:   q.SortOrder == "desc",
	}
}

type Summary struct {
	models.Token
	SessionCount      int64 `json:"sessionCount"`
	ConversationCount int64 `json:"conversationCount"`
}

type Pagination struct {
	CurrentPage     int    `json:"currentPage"`
	TotalPages      int    `json:"totalPages"`
	TotalCount      int64  `json:"totalCount"`
	Limit           int    `json:"limit"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	SortBy          string `json:"sortBy"`
	SortOrder       string `json:"sortOrder"`
}

type Page struct {
	Tokens     []Summary  `json:"tokens"`
	Pagination Pagination `json:"pagination"`
}

func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	q = q.normalize()

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	tokens, err := s.repo.Page(ctx, q.orderBy(), (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(tokens))
	for i, t := range tokens {
		ids[i] = t.ID
	}
	sessions, err := s.repo.CountBy(ctx, "chat_sessions", ids)
	if err != nil {
		return nil, err
	}
	convs, err := s.repo.CountBy(ctx, "conversations", ids)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, len(tokens))
	for i, t := range tokens {
		out[i] = Summary{Token: t, SessionCount: sessions[t.ID], ConversationCount: convs[t.ID]}
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return &Page{
		Tokens: out,
		Pagination: Pagination{
			CurrentPage:     q.Page,
			TotalPages:      totalPages,
			TotalCount:      total,
			Limit:           q.Limit,
			HasNextPage:     q.Page < totalPages,
			HasPreviousPage: q.Page > 1,
			SortBy:          q.SortBy,
			SortOrder:       q.SortOrder,
		},
	}, nil
}
