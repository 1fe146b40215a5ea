package completion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/npcbot/internal/config"
)

type fakeGenerator struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     int
	prompts   []string
	config    *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	i := f.calls
	f.calls++
	f.config = cfg
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

func testConfig() config.CompletionConfig {
	return config.CompletionConfig{
		Model:           "test-model",
		Temperature:     0.5,
		MaxOutputTokens: 500,
		MaxRetries:      2,
		RetryDelay:      time.Millisecond,
	}
}

func newTestClient(gen generator) *sdkClient {
	return newSDKClient(gen, testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestComplete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		gen     *fakeGenerator
		want    string
		wantErr error
		calls   int
	}{
		{
			name:  "trims completion text",
			gen:   &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse("  hi there \n")}},
			want:  "hi there",
			calls: 1,
		},
		{
			name: "retries server errors",
			gen: &fakeGenerator{
				errs:      []error{genai.APIError{Code: 503}, &genai.APIError{Code: 500}, nil},
				responses: []*genai.GenerateContentResponse{nil, nil, textResponse("ok")},
			},
			want:  "ok",
			calls: 3,
		},
		{
			name:  "does not retry client errors",
			gen:   &fakeGenerator{errs: []error{genai.APIError{Code: 400}}},
			calls: 1,
		},
		{
			name:  "gives up after max retries",
			gen:   &fakeGenerator{errs: []error{genai.APIError{Code: 503}, genai.APIError{Code: 503}, genai.APIError{Code: 503}}},
			calls: 3,
		},
		{
			name:    "whitespace completion is empty",
			gen:     &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse("   ")}},
			wantErr: ErrEmptyCompletion,
			calls:   1,
		},
		{
			name:    "no candidates is empty",
			gen:     &fakeGenerator{responses: []*genai.GenerateContentResponse{{}}},
			wantErr: ErrEmptyCompletion,
			calls:   1,
		},
		{
			name: "blocked prompt",
			gen: &fakeGenerator{responses: []*genai.GenerateContentResponse{{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			}}},
			wantErr: ErrBlocked,
			calls:   1,
		},
		{
			name: "feedback without block reason is not blocked",
			gen: &fakeGenerator{responses: []*genai.GenerateContentResponse{{
				Candidates:     []*genai.Candidate{{Content: genai.NewContentFromText("fine", genai.RoleModel)}},
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{},
			}}},
			want:  "fine",
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(tt.gen)
			got, err := client.Complete(context.Background(), "persona\n\nplayer: hello\nbot:")

			if tt.gen.calls != tt.calls {
				t.Errorf("GenerateContent calls = %d, want %d", tt.gen.calls, tt.calls)
			}
			if tt.want != "" {
				if err != nil {
					t.Fatalf("Complete() unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("Complete() = %q, want %q", got, tt.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("Complete() = %q, want error", got)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Complete() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompleteSendsFixedParameters(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse("ok")}}
	client := newTestClient(gen)

	prompt := "You are a sailor.\n\nplayer: hello\nbot:"
	if _, err := client.Complete(context.Background(), prompt); err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if len(gen.prompts) != 1 || gen.prompts[0] != prompt {
		t.Errorf("prompts = %q, want %q", gen.prompts, prompt)
	}
	if gen.config == nil || gen.config.Temperature == nil || *gen.config.Temperature != 0.5 {
		t.Errorf("temperature not set to 0.5: %+v", gen.config)
	}
	if gen.config.MaxOutputTokens != 500 {
		t.Errorf("MaxOutputTokens = %d, want 500", gen.config.MaxOutputTokens)
	}
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	if _, err := newTestClient(gen).Complete(context.Background(), "  "); err == nil {
		t.Error("expected error for empty prompt")
	}
	if gen.calls != 0 {
		t.Errorf("GenerateContent called %d times for empty prompt", gen.calls)
	}
}
