package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mfukuda/comet-cli/internal/app"
	"github.com/mfukuda/comet-cli/internal/config"
	"github.com/mfukuda/comet-cli/pkg/client"
	pkgLogger "github.com/mfukuda/comet-cli/pkg/logger"
)

func resolveStringFlag(shortVal, longVal string) string {
	if shortVal != "" {
		return shortVal
	}
	return longVal
}

func printUsage() {
	fmt.Println("comet - AI assistant with local-first model routing")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  comet                                    # Interactive mode")
	fmt.Println("  comet \"Explain Go channels\"              # One-shot mode")
	fmt.Println("  comet -b anthropic \"Analyze this code\"   # Use Anthropic backend")
	fmt.Println("  comet -m qwen2.5-coder \"Write a test\"    # Local model via LM Studio")
	fmt.Println("  comet -e http://10.0.0.2:1234            # Remote LM Studio endpoint")
	fmt.Println()
}

func main() {
	ctx := context.Background()

	var backend = flag.String("b", "", "LLM backend (lmstudio, ollama, anthropic, openai, or gemini)")
	var backendLong = flag.String("backend", "", "LLM backend (lmstudio, ollama, anthropic, openai, or gemini)")
	var model = flag.String("m", "", "Model name to use")
	var modelLong = flag.String("model", "", "Model name to use")
	var endpoint = flag.String("e", "", "Base URL of the local inference server")
	var timeoutMS = flag.Int("t", 0, "Local backend request timeout in milliseconds")
	var settingsPath = flag.String("settings", "", "Path to settings file")
	var verbose = flag.Bool("v", false, "Enable verbose logging (debug level)")
	var help = flag.Bool("h", false, "Show this help message")

	flag.Usage = func() {
		printUsage()
		fmt.Println("Flags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Printf("Warning: failed to load settings: %v\n", err)
		settings = config.GetDefaultSettings()
	}

	logLevel := pkgLogger.LogLevelInfo
	if *verbose {
		logLevel = pkgLogger.LogLevelDebug
	}
	pkgLogger.SetGlobalLogLevel(logLevel)
	logger := pkgLogger.NewLogger(logLevel)

	if resolved := resolveStringFlag(*backend, *backendLong); resolved != "" {
		settings.LLM.Backend = resolved
	}
	if resolved := resolveStringFlag(*model, *modelLong); resolved != "" {
		settings.LLM.Model = resolved
	}
	if *endpoint != "" {
		settings.LLM.BaseURL = *endpoint
	}
	if *timeoutMS > 0 {
		settings.LLM.TimeoutMS = *timeoutMS
	}

	if err := settings.ValidateCredentials(); err != nil {
		logger.Error("Settings validation failed", "error", err)
		os.Exit(1)
	}

	generator, err := client.NewGenerator(settings.LLM)
	if err != nil {
		logger.Error("Failed to create LLM client", "error", err)
		os.Exit(1)
	}

	a := app.NewApp(generator)

	if args := flag.Args(); len(args) > 0 {
		if err := a.RunOnce(ctx, strings.Join(args, " ")); err != nil {
			fmt.Printf("Command execution failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := a.RunREPL(ctx); err != nil {
		logger.Error("Interactive mode failed", "error", err)
		os.Exit(1)
	}
}
