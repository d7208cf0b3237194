package assistant_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/chemostats/workbench/internal/domain/analysis"
	"github.com/chemostats/workbench/internal/domain/assistant"
	"github.com/chemostats/workbench/internal/repository/mocks"
)

// stubModel returns a canned reply and records the messages it saw.
type stubModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s.reply}},
	}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	require.Len(t, msg.Parts, 1)
	part, ok := msg.Parts[0].(llms.TextContent)
	require.True(t, ok, "expected text part")
	return part.Text
}

func TestChat_NotConfigured(t *testing.T) {
	memory := &mocks.Memory{}
	svc := assistant.NewService(nil, memory, nil)

	require.False(t, svc.Enabled())

	_, err := svc.Chat(context.Background(), "file-1", "hello", "")
	require.ErrorIs(t, err, assistant.ErrNotConfigured)
}

func TestChat_EmptyMessage(t *testing.T) {
	memory := &mocks.Memory{}
	svc := assistant.NewService(&stubModel{}, memory, nil)

	_, err := svc.Chat(context.Background(), "file-1", "   ", "")
	require.ErrorIs(t, err, assistant.ErrEmptyMessage)
}

func TestChat_AssemblesContextAndHistory(t *testing.T) {
	memory := &mocks.Memory{}
	model := &stubModel{reply: "The F-statistic compares between-group to within-group variance."}
	svc := assistant.NewService(model, memory, nil)

	stored := &assistant.StoredContext{
		Type:     "anova",
		Summary:  "ANOVA found 3 significant variables.",
		StoredAt: time.Now(),
	}
	history := []assistant.Message{
		{Role: "user", Content: "what did the analysis find?"},
		{Role: "assistant", Content: "Three variables differ between groups."},
	}

	memory.On("GetContext", mock.Anything, "file-1").Return(stored, nil)
	memory.On("History", mock.Anything, "file-1", mock.AnythingOfType("int")).Return(history, nil)
	memory.On("AppendMessage", mock.Anything, "file-1", mock.AnythingOfType("assistant.Message")).Return(nil).Twice()

	reply, err := svc.Chat(context.Background(), "file-1", "what is the F-statistic?", "plasma.csv")
	require.NoError(t, err)
	require.Equal(t, model.reply, reply)

	// system prompt, context note, two history turns, user message
	require.Len(t, model.messages, 5)
	require.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	require.Equal(t, llms.ChatMessageTypeSystem, model.messages[1].Role)
	require.Contains(t, textOf(t, model.messages[1]), "plasma.csv")
	require.Contains(t, textOf(t, model.messages[1]), stored.Summary)
	require.Equal(t, llms.ChatMessageTypeHuman, model.messages[2].Role)
	require.Equal(t, llms.ChatMessageTypeAI, model.messages[3].Role)
	require.Equal(t, llms.ChatMessageTypeHuman, model.messages[4].Role)
	require.Equal(t, "what is the F-statistic?", textOf(t, model.messages[4]))

	memory.AssertExpectations(t)
}

func TestChat_NoStoredContext(t *testing.T) {
	memory := &mocks.Memory{}
	model := &stubModel{reply: "ok"}
	svc := assistant.NewService(model, memory, nil)

	memory.On("GetContext", mock.Anything, "file-1").Return(nil, nil)
	memory.On("History", mock.Anything, "file-1", mock.AnythingOfType("int")).Return(nil, nil)
	memory.On("AppendMessage", mock.Anything, "file-1", mock.AnythingOfType("assistant.Message")).Return(nil).Twice()

	_, err := svc.Chat(context.Background(), "file-1", "hello", "")
	require.NoError(t, err)

	// system prompt and user message only
	require.Len(t, model.messages, 2)
}

func TestChat_ModelError(t *testing.T) {
	memory := &mocks.Memory{}
	model := &stubModel{err: errors.New("rate limited")}
	svc := assistant.NewService(model, memory, nil)

	memory.On("GetContext", mock.Anything, "file-1").Return(nil, nil)
	memory.On("History", mock.Anything, "file-1", mock.AnythingOfType("int")).Return(nil, nil)

	_, err := svc.Chat(context.Background(), "file-1", "hello", "")
	require.Error(t, err)
	memory.AssertNotCalled(t, "AppendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestStoreAnovaContext(t *testing.T) {
	memory := &mocks.Memory{}
	svc := assistant.NewService(nil, memory, nil)

	res := &analysis.AnovaResult{
		Summary: analysis.AnovaSummary{TotalVariables: 2, BenjaminiSignificant: 1, NumGroups: 2},
		Rows: []analysis.AnovaRow{
			{Variable: "glucose", PValue: 0.001, FDR: 0.002, EffectSize: 41.0, Benjamini: true},
			{Variable: "lactate", PValue: 0.4, FDR: 0.4, EffectSize: 2.0},
		},
	}

	memory.On("SaveContext", mock.Anything, "file-1", mock.MatchedBy(func(sc assistant.StoredContext) bool {
		return sc.Type == "anova" && sc.Summary != ""
	})).Return(nil)

	require.NoError(t, svc.StoreAnovaContext(context.Background(), "file-1", res))
	memory.AssertExpectations(t)
}

func TestStorePCAContext(t *testing.T) {
	memory := &mocks.Memory{}
	svc := assistant.NewService(nil, memory, nil)

	res := &analysis.PCAResult{
		Summary: analysis.PCASummary{
			NumComponents:     2,
			NumSamples:        10,
			NumVariables:      4,
			ScalingMethod:     analysis.ScalingAuto,
			VarianceExplained: 87.5,
		},
		ExplainedVariance: []float64{60.0, 27.5},
	}

	memory.On("SaveContext", mock.Anything, "file-9", mock.MatchedBy(func(sc assistant.StoredContext) bool {
		return sc.Type == "pca" && sc.Summary != ""
	})).Return(nil)

	require.NoError(t, svc.StorePCAContext(context.Background(), "file-9", res))
	memory.AssertExpectations(t)
}

func TestSummarizeAnova_ContainsKeyNumbers(t *testing.T) {
	res := &analysis.AnovaResult{
		Summary: analysis.AnovaSummary{TotalVariables: 3, BenjaminiSignificant: 2, NumGroups: 2},
		Rows: []analysis.AnovaRow{
			{Variable: "glucose", PValue: 0.001, FDR: 0.003, EffectSize: 41.2, Benjamini: true},
			{Variable: "alanine", PValue: 0.01, FDR: 0.015, EffectSize: 20.5, Benjamini: true},
			{Variable: "lactate", PValue: math.NaN(), FDR: math.NaN()},
		},
	}

	summary := assistant.SummarizeAnova(res)
	require.Contains(t, summary, "glucose")
	require.Contains(t, summary, "alanine")
	require.NotContains(t, summary, "NaN")
}

func TestClearContext(t *testing.T) {
	memory := &mocks.Memory{}
	svc := assistant.NewService(nil, memory, nil)

	memory.On("ClearFile", mock.Anything, "file-1").Return(nil)
	require.NoError(t, svc.ClearContext(context.Background(), "file-1"))
	memory.AssertExpectations(t)
}
