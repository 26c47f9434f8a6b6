// Package history keeps the recent exchanges of each token so the model sees
// the conversation so far.
package history

import "context"

// MaxEntries bounds the history kept per token (10 exchanges).
const MaxEntries = 20

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Cache is keyed by token string. Get on an unknown key returns an empty
// slice. Append adds the pair in order, trims to MaxEntries and returns the
// resulting history.
type Cache interface {
	Get(ctx context.Context, key string) ([]Entry, error)
	Append(ctx context.Context, key string, user, assistant Entry) ([]Entry, error)
}

// Exchange builds the pair appended after a successful completion.
func Exchange(message, response string) (Entry, Entry) {
	return Entry{Role: RoleUser, Content: message}, Entry{Role: RoleAssistant, Content: response}
}

func trim(entries []Entry) []Entry {
	if n := len(entries); n > MaxEntries {
		return entries[n-MaxEntries:]
	}
	return entries
}
