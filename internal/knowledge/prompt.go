package knowledge

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/suPer8Hu/recruiter-chat/internal/logger"
)

const fallbackKnowledge = "Knowledge base not found. Please contact the applicant directly."

const promptTemplate = `You are an AI assistant representing %[1]s. Your role is to help recruiters and hiring managers learn more about %[1]s by answering questions about their background, skills, and experience.

**IMPORTANT GUIDELINES:**
1. Always be professional, helpful, and genuinely enthusiastic about %[1]s.
2. Only answer questions based on the knowledge base provided below.
3. If you're asked something outside the knowledge base, politely say you're not sure and recommend contacting %[1]s directly.
4. Use a conversational yet professional tone. Sound human, not robotic.
5. If a recruiter provides a job description, identify the nature of the company and the role, follow the job preferences stated in the knowledge base and explain in bullet points how %[1]s's skills and experience align with the role. Highlight the key terms in bold.
6. Be clear and concise. Keep responses focused and avoid unnecessary length unless a detailed answer is required.
7. If a URL or link is provided, politely say that you are not able to access the internet and ask them to paste the job description into the chat box.

**When the question is too high-level or general (e.g. "Why should I hire %[1]s?")**
- Provide a brief, impactful summary based on the knowledge base (2-3 sentences max)
- Then ask a relevant follow-up question to guide the conversation

**KNOWLEDGE BASE:**
%[2]s

Remember: You are %[1]s's representative. Stay positive, accurate, and helpful, always within the boundaries of the information provided.`

// Source loads the stored knowledge base text; "" means nothing is stored.
type Source interface {
	Current(ctx context.Context) (string, error)
}

// PromptBuilder renders the system prompt and caches it until Invalidate.
//
// Knowledge text is taken from the first non-empty of: the stored document,
// the configured inline content, the configured file, a fixed fallback.
type PromptBuilder struct {
	source    Source
	candidate string
	inline    string
	file      string

	mu     sync.Mutex
	cached string
}

func NewPromptBuilder(source Source, candidate, inline, file string) *PromptBuilder {
	if candidate == "" {
		candidate = "the candidate"
	}
	return &PromptBuilder{source: source, candidate: candidate, inline: inline, file: file}
}

// SystemPrompt returns the cached prompt, building it on first use. A prompt
// built while the store was failing is served but not cached.
func (b *PromptBuilder) SystemPrompt(ctx context.Context) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cached != "" {
		return b.cached
	}
	text, err := b.knowledge(ctx)
	prompt := fmt.Sprintf(promptTemplate, b.candidate, text)
	if err == nil {
		b.cached = prompt
	}
	return prompt
}

// Invalidate drops the cached prompt so the next call rereads its sources.
func (b *PromptBuilder) Invalidate() {
	b.mu.Lock()
	b.cached = ""
	b.mu.Unlock()
}

// knowledge also returns the store error, if any, alongside the fallback text.
func (b *PromptBuilder) knowledge(ctx context.Context) (string, error) {
	var storeErr error
	if b.source != nil {
		content, err := b.source.Current(ctx)
		if err != nil {
			logger.L.Warnw("load stored knowledge base failed", "err", err)
			storeErr = err
		} else if strings.TrimSpace(content) != "" {
			return content, nil
		}
	}
	if strings.TrimSpace(b.inline) != "" {
		return b.inline, storeErr
	}
	if b.file != "" {
		data, err := os.ReadFile(b.file)
		if err == nil && len(strings.TrimSpace(string(data))) > 0 {
			return string(data), storeErr
		}
		if err != nil && !os.IsNotExist(err) {
			logger.L.Warnw("read knowledge base file failed", "file", b.file, "err", err)
		}
	}
	return fallbackKnowledge, storeErr
}
