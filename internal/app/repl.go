package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mfukuda/comet-cli/internal/tool"
	"github.com/mfukuda/comet-cli/pkg/agent/domain"
	"github.com/mfukuda/comet-cli/pkg/logger"
	"github.com/mfukuda/comet-cli/pkg/message"
)

var appLogger = logger.NewComponentLogger("app")

// App drives a conversation against a content generator.
type App struct {
	generator domain.Generator
	turns     []message.Turn
}

func NewApp(generator domain.Generator) *App {
	return &App{generator: generator}
}

// RunOnce sends a single prompt and prints the reply.
func (a *App) RunOnce(ctx context.Context, prompt string) error {
	return a.handlePrompt(ctx, prompt)
}

// RunREPL runs the interactive loop until the user quits.
func (a *App) RunREPL(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		AutoComplete:    buildCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize interactive mode: %w", err)
	}
	defer rl.Close()

	fmt.Printf("comet interactive mode (model: %s). Type /help for commands.\n", a.generator.ModelID())

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := a.handleCommand(line); quit {
				break
			}
			continue
		}

		if err := a.handlePrompt(ctx, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}

	return nil
}

// handleCommand processes a slash command, returning true when the loop
// should terminate.
func (a *App) handleCommand(line string) bool {
	switch line {
	case "/help":
		fmt.Println("/help   show this help")
		fmt.Println("/clear  reset the conversation")
		fmt.Println("/tokens show the prompt token estimate")
		fmt.Println("/quit   exit")
	case "/clear":
		a.turns = nil
		fmt.Println("Conversation cleared.")
	case "/tokens":
		count := a.generator.CountTokens(&message.Request{
			Turns: a.turns,
			Tools: tool.Declarations(),
		})
		fmt.Printf("Estimated prompt tokens: %d\n", count)
	case "/quit", "/exit":
		return true
	default:
		fmt.Printf("Unknown command: %s\n", line)
	}
	return false
}

func (a *App) handlePrompt(ctx context.Context, prompt string) error {
	a.turns = append(a.turns, message.NewTextTurn(message.RoleUser, prompt))

	resp, err := a.generator.GenerateContent(ctx, &message.Request{
		Turns: a.turns,
		Tools: tool.Declarations(),
	})
	if err != nil {
		// Keep the transcript consistent when the call fails.
		a.turns = a.turns[:len(a.turns)-1]
		return err
	}

	appLogger.Debug("generation finished",
		"finish_reason", resp.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if text := resp.Text(); text != "" {
		fmt.Println(text)
		a.turns = append(a.turns, message.NewTextTurn(message.RoleAssistant, text))
	}

	for _, call := range resp.ToolCalls() {
		fmt.Printf("[proposed tool call: %s(%s)]\n", call.Name, summarizeArguments(call.Arguments))
	}

	return nil
}

func summarizeArguments(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(args))
	for key, value := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	return strings.Join(parts, ", ")
}

func buildCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("/help"),
		readline.PcItem("/clear"),
		readline.PcItem("/tokens"),
		readline.PcItem("/quit"),
	)
}
