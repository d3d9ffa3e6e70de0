package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/openclay/scribe/agent"
	"github.com/openclay/scribe/llm"
)

func runTask(cmd *cobra.Command, mode agent.Mode, path, task string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	if model != "" {
		cfg.Model = model
	}

	apiKey := cfg.resolveAPIKey()
	if err := validateTaskArgs(path, task, apiKey); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	adapter, err := llm.NewGollmAdapter(cfg.Provider, apiKey, llm.WithModel(cfg.Model))
	if err != nil {
		return fmt.Errorf("configure %s provider: %w", cfg.Provider, err)
	}
	clientOpts := []llm.ClientOption{
		llm.WithProvider(cfg.Provider, adapter),
		llm.WithDefaultProvider(cfg.Provider),
	}
	// Off by default: the loop makes one inference attempt per round
	// unless retries are asked for.
	if cfg.Retry {
		clientOpts = append(clientOpts, llm.WithMiddleware(llm.WithRetry(llm.DefaultRetryPolicy())))
	}
	client := llm.NewClient(clientOpts...)
	defer client.Close()

	loop, err := agent.New(agent.Config{
		BaseDir:      path,
		Mode:         mode,
		Model:        cfg.Model,
		Provider:     cfg.Provider,
		MaxRounds:    cfg.MaxRounds,
		ScanIncludes: cfg.Includes,
		Instructions: cfg.Instructions,
	}, client)
	if err != nil {
		return err
	}

	logger.Info("task started", "task_id", loop.ID(), "mode", string(mode), "path", path)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pumpEvents(loop, logger)
	}()

	runErr := loop.Run(context.Background(), task)
	wg.Wait()

	if runErr != nil {
		logger.Error("task failed", "task_id", loop.ID(), "error", runErr)
		return runErr
	}

	if mode == agent.ModeReview {
		return resolvePendingEdits(loop, logger)
	}
	return nil
}

// pumpEvents prints the loop's event stream to the terminal until the
// channel closes.
func pumpEvents(loop *agent.Loop, logger *slog.Logger) {
	for event := range loop.Events() {
		switch event.Kind {
		case agent.EventProgress:
			if label, ok := event.Data["label"].(string); ok {
				fmt.Printf("… %s\n", label)
			}
		case agent.EventToolCallStart:
			name, _ := event.Data["tool_name"].(string)
			fmt.Printf("→ %s\n", name)
		case agent.EventToolCallEnd:
			if errText, ok := event.Data["error"].(string); ok {
				fmt.Printf("  ✗ %s\n", errText)
			}
			logger.Debug("tool call finished", "data", event.Data)
		case agent.EventEditProposed:
			path, _ := event.Data["path"].(string)
			fmt.Printf("± staged change to %s\n", path)
		case agent.EventAssistantText:
			if text, ok := event.Data["text"].(string); ok && text != "" {
				fmt.Printf("\n%s\n", text)
			}
		case agent.EventCompletion:
			fmt.Println("\ndone.")
		case agent.EventFailure:
			reason, _ := event.Data["reason"].(string)
			fmt.Fprintf(os.Stderr, "error: %s\n", reason)
		}
	}
}

// resolvePendingEdits walks the staged edits one at a time, showing
// each preview and asking for an apply or discard decision. Accepting
// everything is just repeated per-edit resolution.
func resolvePendingEdits(loop *agent.Loop, logger *slog.Logger) error {
	pending := loop.Gate().Pending()
	if len(pending) == 0 {
		fmt.Println("no changes proposed.")
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	applyAll := false

	for _, edit := range pending {
		fmt.Printf("\n--- %s ---\n%s\n", edit.RelativePath, edit.Preview)

		decision := agent.DecisionApply
		if !applyAll {
			answer, err := promptDecision(reader, edit.RelativePath)
			if err != nil {
				return err
			}
			switch answer {
			case "a":
				applyAll = true
			case "y":
			default:
				decision = agent.DecisionDiscard
			}
		}

		if err := loop.Gate().Resolve(edit.ID, decision); err != nil {
			logger.Error("edit resolution failed", "edit_id", edit.ID, "error", err)
			fmt.Fprintf(os.Stderr, "failed to apply %s: %v\n", edit.RelativePath, err)
			continue
		}
		if decision == agent.DecisionApply {
			fmt.Printf("applied %s\n", edit.RelativePath)
		} else {
			fmt.Printf("discarded %s\n", edit.RelativePath)
		}
	}
	return nil
}

func promptDecision(reader *bufio.Reader, path string) (string, error) {
	fmt.Printf("apply %s? [y]es / [n]o / [a]ll: ", path)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

// newLogger builds the host logger. Logs go to a file when configured
// and are discarded otherwise, keeping the terminal for the event
// stream.
func newLogger(cfg *Config) (*slog.Logger, func(), error) {
	var w io.Writer = io.Discard
	closeLog := func() {}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	}

	level := slog.LevelWarn
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), closeLog, nil
}
