package extractkeywords

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/llm"
	"health-assistant/internal/common/logger"
	"health-assistant/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	resp     *llm.Response
	err      error
	block    bool
	requests []*llm.Request
}

func (s *stubLLM) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	s.requests = append(s.requests, req)
	if s.block {
		<-ctx.Done()
		return nil, llm.ErrTimeout
	}
	return s.resp, s.err
}

func createTestConfig() *Config {
	return &Config{
		Model:          "gemini-test",
		Timeout:        time.Second,
		MaxDomains:     3,
		TrustedDomains: registry.DefaultDomains,
	}
}

func TestHandler_ExtractKeywords(t *testing.T) {
	tests := []struct {
		name       string
		stub       *stubLLM
		expected   string
		outOfScope bool
	}{
		{
			name:     "comma separated list",
			stub:     &stubLLM{resp: &llm.Response{Text: "dengue, sintomas, febre"}},
			expected: "dengue, sintomas, febre",
		},
		{
			name:     "bulleted lines are cleaned",
			stub:     &stubLLM{resp: &llm.Response{Text: "- dengue\n- \"sintomas\"\n\n1. febre"}},
			expected: "dengue, sintomas, febre",
		},
		{
			name:     "numbers inside keywords survive",
			stub:     &stubLLM{resp: &llm.Response{Text: "covid-19, vitamina B12"}},
			expected: "covid-19, vitamina B12",
		},
		{
			name:       "out of scope marker",
			stub:       &stubLLM{resp: &llm.Response{Text: "NONE."}},
			outOfScope: true,
		},
		{
			name: "provider error falls back",
			stub: &stubLLM{err: errors.New("boom")},
		},
		{
			name: "empty text falls back",
			stub: &stubLLM{resp: &llm.Response{Text: "   "}},
		},
		{
			name: "only separators falls back",
			stub: &stubLLM{resp: &llm.Response{Text: " , ,\n"}},
		},
		{
			name: "blocked falls back",
			stub: &stubLLM{resp: &llm.Response{BlockReason: "SAFETY"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(createTestConfig(), tt.stub, logger.NewTestLogger(t))

			out := handler.ExtractKeywords(context.Background(), &Input{Question: "Quais os sintomas da dengue?"})

			require.NotNil(t, out)
			assert.Equal(t, tt.expected, out.Keywords)
			assert.Equal(t, tt.outOfScope, out.OutOfScope)
		})
	}
}

func TestHandler_ExtractKeywords_UsesZeroTemperature(t *testing.T) {
	stub := &stubLLM{resp: &llm.Response{Text: "sono"}}
	handler := NewHandler(createTestConfig(), stub, logger.NewTestLogger(t))

	handler.ExtractKeywords(context.Background(), &Input{Question: "Como dormir melhor?"})

	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	require.NotNil(t, req.Temperature)
	assert.Equal(t, float32(0), *req.Temperature)
	assert.Equal(t, "gemini-test", req.Model)
	require.Len(t, req.Turns, 1)
	assert.Contains(t, req.Turns[0].Text, "Como dormir melhor?")
	assert.Contains(t, req.Turns[0].Text, "separada por vírgulas")
}

func TestHandler_ExtractKeywords_Timeout(t *testing.T) {
	config := createTestConfig()
	config.Timeout = 30 * time.Millisecond
	handler := NewHandler(config, &stubLLM{block: true}, logger.NewTestLogger(t))

	start := time.Now()
	out := handler.ExtractKeywords(context.Background(), &Input{Question: "q"})

	assert.Empty(t, out.Keywords)
	assert.Less(t, time.Since(start), time.Second)
	require.NotNil(t, out.Err)
	assert.Equal(t, apperrors.ErrCodeExtractionFailure, out.Err.Code)
	assert.Equal(t, "timeout", out.Err.Metadata["reason"])
	assert.Equal(t, "gemini-test", out.Err.Metadata["model"])
}

func TestHandler_SuggestDomains(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "valid trusted suggestions",
			text:     "who.int, fiocruz.br",
			expected: []string{"who.int", "fiocruz.br"},
		},
		{
			name:     "normalizes and dedupes",
			text:     "site:WHO.int, https://who.int/, www.gov.br/anvisa/",
			expected: []string{"who.int", "www.gov.br/anvisa"},
		},
		{
			name:     "drops malformed and untrusted",
			text:     "diabetes, example.com, inca.gov.br",
			expected: []string{"inca.gov.br"},
		},
		{
			name:     "caps the list",
			text:     "who.int, fiocruz.br, inca.gov.br, einstein.br, hcor.com.br",
			expected: []string{"who.int", "fiocruz.br", "inca.gov.br"},
		},
		{
			name:     "nothing usable",
			text:     "diabetes tipo 2",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLLM{resp: &llm.Response{Text: tt.text}}
			handler := NewHandler(createTestConfig(), stub, logger.NewTestLogger(t))

			out := handler.SuggestDomains(context.Background(), &Input{Question: "q"})

			assert.Equal(t, tt.expected, out.Domains)
			assert.False(t, out.OutOfScope)
		})
	}
}

func TestHandler_SuggestDomains_FailureReturnsEmptyList(t *testing.T) {
	handler := NewHandler(createTestConfig(), &stubLLM{err: llm.ErrRequestFailed}, logger.NewTestLogger(t))

	out := handler.SuggestDomains(context.Background(), &Input{Question: "q"})

	require.NotNil(t, out.Domains)
	assert.Empty(t, out.Domains)
	require.NotNil(t, out.Err)
	assert.Equal(t, apperrors.ErrCodeExtractionFailure, out.Err.Code)
	assert.Equal(t, "domains", out.Err.Metadata["kind"])
	assert.Equal(t, "failed", out.Err.Metadata["reason"])
}

func TestHandler_SuggestDomains_NoTrustedSetAcceptsAnyHost(t *testing.T) {
	config := createTestConfig()
	config.TrustedDomains = nil
	handler := NewHandler(config, &stubLLM{resp: &llm.Response{Text: "mayoclinic.org"}}, logger.NewTestLogger(t))

	out := handler.SuggestDomains(context.Background(), &Input{Question: "q"})

	assert.Equal(t, []string{"mayoclinic.org"}, out.Domains)
}
