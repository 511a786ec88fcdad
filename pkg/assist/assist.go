// CLAUDE:SUMMARY Edu, the streaming enrollment chat assistant: OpenAI-compatible backend with a fixed fallback reply.
package assist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

// FallbackMessage is streamed verbatim whenever the model backend fails.
// The front end renders it like any other reply, so outages degrade into a
// polite excuse instead of an error screen.
const FallbackMessage = "Desculpe, estou com dificuldades técnicas no momento. Por favor, tente novamente em alguns instantes."

const systemPrompt = `Você é o Edu, assistente virtual da Secretaria Municipal de Educação.
Ajude responsáveis com dúvidas sobre matrícula escolar: documentos necessários,
prazos, transporte escolar, vagas e acompanhamento de solicitações.
Responda sempre em português do Brasil, de forma curta e cordial.
Se não souber a resposta, oriente a procurar a secretaria da escola mais próxima.`

// DefaultTimeout bounds one reply end to end, stream included.
const DefaultTimeout = 60 * time.Second

// completeFunc produces a stream of reply fragments for a chat request.
// Swapped in tests.
type completeFunc func(ctx context.Context, req openai.ChatCompletionRequest) (<-chan string, error)

// Assistant streams chat replies about the enrollment process.
type Assistant struct {
	model        string
	timeout      time.Duration
	municipality string
	store        *registry.Store
	logger       *slog.Logger
	complete     completeFunc
}

// New builds an assistant backed by an OpenAI-compatible API. store may be
// nil; when present, live registry counts are folded into the system prompt
// so the model can answer "quantas escolas" style questions.
func New(apiKey, model string, timeout time.Duration, municipality string, store *registry.Store, logger *slog.Logger) *Assistant {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := openai.NewClient(apiKey)
	return &Assistant{
		model:        model,
		timeout:      timeout,
		municipality: municipality,
		store:        store,
		logger:       logger,
		complete: func(ctx context.Context, req openai.ChatCompletionRequest) (<-chan string, error) {
			stream, err := client.CreateChatCompletionStream(ctx, req)
			if err != nil {
				return nil, err
			}
			out := make(chan string)
			go func() {
				defer close(out)
				defer stream.Close()
				for {
					resp, err := stream.Recv()
					if errors.Is(err, io.EOF) {
						return
					}
					if err != nil {
						return
					}
					if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
						select {
						case out <- resp.Choices[0].Delta.Content:
						case <-ctx.Done():
							return
						}
					}
				}
			}()
			return out, nil
		},
	}
}

// Send streams the reply to one user message. The returned channel always
// produces at least one fragment and is always closed; backend failures
// stream the fallback message instead of an error.
func (a *Assistant) Send(ctx context.Context, message string) <-chan string {
	out := make(chan string, 1)
	go func() {
		defer close(out)
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		req := openai.ChatCompletionRequest{
			Model:  a.model,
			Stream: true,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: a.prompt()},
				{Role: openai.ChatMessageRoleUser, Content: message},
			},
		}

		fragments, err := a.complete(ctx, req)
		if err != nil {
			a.logger.Warn("chat backend unavailable", "error", err)
			out <- FallbackMessage
			return
		}

		streamed := false
		for {
			select {
			case f, ok := <-fragments:
				if !ok {
					if !streamed {
						out <- FallbackMessage
					}
					return
				}
				streamed = true
				select {
				case out <- f:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				if !streamed {
					a.logger.Warn("chat backend timed out", "error", ctx.Err())
					out <- FallbackMessage
				}
				return
			}
		}
	}()
	return out
}

// prompt folds the municipality name and live registry counts into the
// system prompt when available.
func (a *Assistant) prompt() string {
	p := systemPrompt
	if a.municipality != "" {
		p = fmt.Sprintf("%s\nVocê atende o município de %s.", p, a.municipality)
	}
	if a.store != nil {
		stats := a.store.Aggregate()
		p = fmt.Sprintf("%s\n\nDados atuais da rede: %d escolas, %d alunos cadastrados, %d matrículas em análise.",
			p, stats.Schools, stats.Students, stats.EmAnalise)
	}
	return p
}
