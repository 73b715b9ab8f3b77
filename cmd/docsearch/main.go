// Copyright 2025 PedanticGeek
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/panjf2000/ants/v2"
	"github.com/urfave/cli/v2"

	"github.com/pedanticgeek/docsearch"
	"github.com/pedanticgeek/docsearch/ai"
	"github.com/pedanticgeek/docsearch/chat"
	"github.com/pedanticgeek/docsearch/core"
)

// scanSuffix marks an upload for the vision-scan pipeline, matching the
// queue message's v-scan flag.
const scanSuffix = ".v-scan"

func main() {
	app := &cli.App{
		Name:  "docsearch",
		Usage: "Document search and retrieval-augmented chat over your files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload documents and enqueue them for ingestion",
				ArgsUsage: "FILE [FILE...]",
				Action:    uploadCommand,
				Flags: append(engineFlags(),
					&cli.BoolFlag{
						Name:  "v-scan",
						Usage: "Ingest via page rendering and vision scanning instead of layout extraction",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of files to upload in parallel",
						Value: 4,
					},
				),
			},
			{
				Name:   "worker",
				Usage:  "Run the ingestion worker until interrupted",
				Action: workerCommand,
				Flags:  engineFlags(),
			},
			{
				Name:      "chat",
				Usage:     "Ask questions about the indexed documents",
				ArgsUsage: "[QUESTION]",
				Action:    chatCommand,
				Flags: append(engineFlags(),
					&cli.BoolFlag{
						Name:  "followups",
						Usage: "Suggest follow-up questions after each answer",
					},
					&cli.StringSliceFlag{
						Name:  "exclude-category",
						Usage: "Exclude a document category from retrieval (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "sourcefile",
						Usage: "Restrict retrieval to a source file (repeatable)",
					},
				),
			},
			{
				Name:   "docs",
				Usage:  "List the indexed documents",
				Action: docsCommand,
				Flags:  engineFlags(),
			},
			{
				Name:      "delete",
				Usage:     "Remove a document from the index and blob store",
				ArgsUsage: "FILENAME",
				Action:    deleteCommand,
				Flags:     engineFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Path to the docsearch data directory",
			Value:   "./docsearch-data",
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible API base URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:    "ai-token",
			Usage:   "API token (use \"none\" for unauthenticated local services)",
			Value:   "none",
			EnvVars: []string{"DOCSEARCH_AI_TOKEN"},
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat completion model name",
			Value: "gpt-4o-mini",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "text-embedding-3-small",
		},
		&cli.StringFlag{
			Name:  "vision-model",
			Usage: "Vision model name for page scanning",
			Value: "gpt-4o",
		},
	}
}

func openEngine(c *cli.Context) (*docsearch.Engine, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithToken(c.String("ai-token")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithVisionModel(c.String("vision-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return docsearch.NewEngine(c.String("data-dir"), docsearch.WithAIConfig(config))
}

func uploadCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	pool, err := ants.NewPool(c.Int("concurrency"))
	if err != nil {
		return fmt.Errorf("failed to create upload pool: %w", err)
	}
	defer pool.Release()

	ctx := c.Context
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, path := range c.Args().Slice() {
		path := path
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := uploadFile(ctx, engine, path, c.Bool("v-scan")); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
				return
			}
			fmt.Fprintf(os.Stderr, "uploaded %s\n", path)
		}); err != nil {
			wg.Done()
			return fmt.Errorf("failed to submit upload: %w", err)
		}
	}
	wg.Wait()

	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "upload failed: %v\n", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d uploads failed", len(errs), c.NArg())
	}
	return nil
}

// uploadFile stores one file and enqueues its ingestion task. A ".v-scan"
// suffix on the file name forces scan mode for that file.
func uploadFile(ctx context.Context, engine *docsearch.Engine, path string, scan bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	filename, scan := resolveUploadName(filepath.Base(path), scan)
	return engine.SubmitDocument(ctx, filename, data, scan)
}

// resolveUploadName strips the scan suffix from a file name, forcing scan
// mode when it was present.
func resolveUploadName(filename string, scan bool) (string, bool) {
	if strings.HasSuffix(filename, scanSuffix) {
		return strings.TrimSuffix(filename, scanSuffix), true
	}
	return filename, scan
}

func workerCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	worker, err := engine.NewWorker()
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	return nil
}

func chatCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	orchestrator, err := engine.NewOrchestrator(chat.WithModelName(c.String("chat-model")))
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	overrides := chat.Overrides{
		ExcludeCategories: c.StringSlice("exclude-category"),
		Sourcefiles:       c.StringSlice("sourcefile"),
		SuggestFollowups:  c.Bool("followups"),
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One-shot when a question is given, interactive otherwise.
	if c.NArg() > 0 {
		question := strings.Join(c.Args().Slice(), " ")
		history := []core.ConversationMessage{{Role: core.RoleUser, Content: question}}
		_, err := streamAnswer(ctx, orchestrator, history, overrides)
		return err
	}

	var history []core.ConversationMessage
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Ask a question (empty line to quit).")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			return nil
		}

		history = append(history, core.ConversationMessage{Role: core.RoleUser, Content: question})
		answer, err := streamAnswer(ctx, orchestrator, history, overrides)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "answer failed: %v\n", err)
			history = history[:len(history)-1]
			continue
		}
		history = append(history, core.ConversationMessage{Role: core.RoleAssistant, Content: answer})
	}
}

// streamAnswer prints the answer as it streams and returns the full visible
// text for the conversation history.
func streamAnswer(ctx context.Context, orchestrator *chat.Orchestrator, history []core.ConversationMessage, overrides chat.Overrides) (string, error) {
	events, err := orchestrator.Answer(ctx, history, overrides)
	if err != nil {
		return "", err
	}

	var answer strings.Builder
	for ev := range events {
		switch ev.Kind {
		case chat.EventDelta:
			fmt.Print(ev.Delta)
			answer.WriteString(ev.Delta)
		case chat.EventFollowups:
			fmt.Println()
			for _, q := range ev.Followups {
				fmt.Printf("  ? %s\n", q)
			}
		case chat.EventError:
			return "", ev.Err
		}
	}
	fmt.Println()
	return answer.String(), nil
}

func docsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	summaries, err := engine.ListDocuments(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No documents indexed.")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("%s\t%s\t%s\n", s.Sourcefile, s.Category, s.Title)
		fmt.Printf("\t%s\n", s.Content)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one filename is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	filename := c.Args().First()
	if err := engine.RemoveDocument(c.Context, filename); err != nil {
		return fmt.Errorf("failed to remove %s: %w", filename, err)
	}
	fmt.Fprintf(os.Stderr, "removed %s\n", filename)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
