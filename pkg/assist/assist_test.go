package assist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func newTestAssistant(complete completeFunc) *Assistant {
	return &Assistant{
		model:    openai.GPT4oMini,
		timeout:  time.Second,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		complete: complete,
	}
}

func collect(t *testing.T, ch <-chan string) string {
	t.Helper()
	var b strings.Builder
	for f := range ch {
		b.WriteString(f)
	}
	return b.String()
}

func TestSendStreamsFragmentsInOrder(t *testing.T) {
	a := newTestAssistant(func(ctx context.Context, req openai.ChatCompletionRequest) (<-chan string, error) {
		out := make(chan string, 3)
		out <- "Olá! "
		out <- "Para matricular, "
		out <- "leve RG e comprovante de residência."
		close(out)
		return out, nil
	})

	got := collect(t, a.Send(context.Background(), "como matricular meu filho?"))
	want := "Olá! Para matricular, leve RG e comprovante de residência."
	if got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}

func TestSendFallsBackOnBackendError(t *testing.T) {
	a := newTestAssistant(func(ctx context.Context, req openai.ChatCompletionRequest) (<-chan string, error) {
		return nil, errors.New("connection refused")
	})

	got := collect(t, a.Send(context.Background(), "oi"))
	if got != FallbackMessage {
		t.Fatalf("reply = %q, want the fallback message", got)
	}
}

func TestSendFallsBackOnEmptyStream(t *testing.T) {
	a := newTestAssistant(func(ctx context.Context, req openai.ChatCompletionRequest) (<-chan string, error) {
		out := make(chan string)
		close(out)
		return out, nil
	})

	got := collect(t, a.Send(context.Background(), "oi"))
	if got != FallbackMessage {
		t.Fatalf("reply = %q, want the fallback message", got)
	}
}

func TestSendCarriesPersonaAndQuestion(t *testing.T) {
	var seen openai.ChatCompletionRequest
	a := newTestAssistant(func(ctx context.Context, req openai.ChatCompletionRequest) (<-chan string, error) {
		seen = req
		out := make(chan string, 1)
		out <- "ok"
		close(out)
		return out, nil
	})

	collect(t, a.Send(context.Background(), "qual o prazo?"))
	if len(seen.Messages) != 2 {
		t.Fatalf("messages = %d, want system + user", len(seen.Messages))
	}
	if seen.Messages[0].Role != openai.ChatMessageRoleSystem || !strings.Contains(seen.Messages[0].Content, "Edu") {
		t.Errorf("system message = %+v, want the Edu persona", seen.Messages[0])
	}
	if seen.Messages[1].Content != "qual o prazo?" {
		t.Errorf("user message = %q", seen.Messages[1].Content)
	}
	if !seen.Stream {
		t.Error("request must ask for a streamed completion")
	}
}

func TestSendFallsBackWhenBackendHangs(t *testing.T) {
	block := make(chan string)
	a := newTestAssistant(func(ctx context.Context, req openai.ChatCompletionRequest) (<-chan string, error) {
		return block, nil
	})
	a.timeout = 50 * time.Millisecond

	got := collect(t, a.Send(context.Background(), "oi"))
	if got != FallbackMessage {
		t.Fatalf("reply = %q, want the fallback message", got)
	}
}

func TestSendHonorsContextCancellation(t *testing.T) {
	block := make(chan string)
	a := newTestAssistant(func(ctx context.Context, req openai.ChatCompletionRequest) (<-chan string, error) {
		return block, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch := a.Send(ctx, "oi")
	cancel()

	select {
	case _, open := <-ch:
		if open {
			// A buffered fragment may still arrive; the channel must close next.
			if _, open := <-ch; open {
				t.Fatal("channel still open after cancellation")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Send did not terminate after cancellation")
	}
}
