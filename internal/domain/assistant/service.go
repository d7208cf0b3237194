package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/chemostats/workbench/internal/domain/analysis"
)

const systemPrompt = `You are Chemostats AI, an expert mentor for statistical analysis interpretation.

Your expertise:
- One-way ANOVA analysis and interpretation
- Multiple comparison corrections (Bonferroni, Benjamini-Hochberg FDR)
- Principal Component Analysis (PCA)
- Metabolomics and bioinformatics data interpretation

Your role:
1. Help users understand their analysis results in plain language
2. Explain what statistical values mean (p-values, FDR, effect sizes)
3. Guide interpretation of significant vs non-significant findings
4. Suggest next steps based on results

Guidelines:
- Be concise but thorough
- If analysis results appear in context, reference specific variables and values
- Use markdown formatting for clarity

Respond in the same language the user writes in.`

// historyWindow is how many prior turns are replayed to the model.
const historyWindow = 10

// Service answers questions about analysis results, keeping per-file
// context and chat history in Memory.
type Service struct {
	llm    llms.Model
	memory Memory
	logger *slog.Logger
}

// NewService creates an assistant service. A nil llm disables chat;
// context storage and history still work.
func NewService(llm llms.Model, memory Memory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{llm: llm, memory: memory, logger: logger}
}

// Enabled reports whether a language model client is configured.
func (s *Service) Enabled() bool {
	return s.llm != nil
}

// StoreAnovaContext saves a summary of ANOVA results as chat context
// for the file.
func (s *Service) StoreAnovaContext(ctx context.Context, fileID string, res *analysis.AnovaResult) error {
	return s.storeContext(ctx, fileID, string(analysis.MethodAnova), SummarizeAnova(res))
}

// StorePCAContext saves a summary of PCA results as chat context for
// the file.
func (s *Service) StorePCAContext(ctx context.Context, fileID string, res *analysis.PCAResult) error {
	return s.storeContext(ctx, fileID, string(analysis.MethodPCA), SummarizePCA(res))
}

func (s *Service) storeContext(ctx context.Context, fileID, contextType, summary string) error {
	err := s.memory.SaveContext(ctx, fileID, StoredContext{
		Type:     contextType,
		Summary:  summary,
		StoredAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("saving context: %w", err)
	}
	s.logger.Debug("analysis context stored", "file_id", fileID, "type", contextType)
	return nil
}

// Chat sends the user message to the model together with the stored
// analysis context and recent history, records both turns, and returns
// the reply.
func (s *Service) Chat(ctx context.Context, fileID, userMessage, fileName string) (string, error) {
	if s.llm == nil {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(userMessage) == "" {
		return "", ErrEmptyMessage
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
	}

	if stored, err := s.memory.GetContext(ctx, fileID); err == nil && stored != nil {
		contextNote := stored.Summary
		if fileName != "" {
			contextNote = fmt.Sprintf("The user is looking at file %q.\n\n%s", fileName, contextNote)
		}
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, contextNote))
	}

	history, err := s.memory.History(ctx, fileID, historyWindow)
	if err != nil {
		return "", fmt.Errorf("loading history: %w", err)
	}
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userMessage))

	resp, err := s.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generating reply: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	reply := resp.Choices[0].Content

	now := time.Now()
	if err := s.memory.AppendMessage(ctx, fileID, Message{Role: "user", Content: userMessage, CreatedAt: now}); err != nil {
		return "", fmt.Errorf("recording message: %w", err)
	}
	if err := s.memory.AppendMessage(ctx, fileID, Message{Role: "assistant", Content: reply, CreatedAt: time.Now()}); err != nil {
		return "", fmt.Errorf("recording reply: %w", err)
	}

	return reply, nil
}

// History returns the stored chat turns for a file, oldest first.
func (s *Service) History(ctx context.Context, fileID string, limit int) ([]Message, error) {
	return s.memory.History(ctx, fileID, limit)
}

// Context returns the stored analysis context for a file, or nil.
func (s *Service) Context(ctx context.Context, fileID string) (*StoredContext, error) {
	return s.memory.GetContext(ctx, fileID)
}

// ClearContext drops the context and history for a file.
func (s *Service) ClearContext(ctx context.Context, fileID string) error {
	if err := s.memory.ClearFile(ctx, fileID); err != nil {
		return fmt.Errorf("clearing context: %w", err)
	}
	s.logger.Debug("assistant context cleared", "file_id", fileID)
	return nil
}
