// Copyright 2025 Poiesic Systems
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
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/docbot"
	"github.com/poiesic/docbot/ai"
	"github.com/poiesic/docbot/core"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "docbot",
		Usage: "Build and query document-grounded chatbots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data directory",
				Value:   "./docbot-data",
			},
			&cli.StringFlag{
				Name:  "ai-host",
				Usage: "OpenAI-compatible service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.StringFlag{
				Name:  "generation-model",
				Usage: "Default generation model name",
				Value: "llama3.2",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a new chatbot",
				ArgsUsage: "<name>",
				Action:    createCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "system-prompt",
						Aliases:  []string{"s"},
						Usage:    "System prompt for the chatbot",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Generation model override for this chatbot",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List all chatbots",
				Action: listCommand,
			},
			{
				Name:      "upload",
				Usage:     "Upload a document to a chatbot",
				ArgsUsage: "<chatbot-id> <file>",
				Action:    uploadCommand,
			},
			{
				Name:      "deploy",
				Usage:     "Embed a chatbot's pending documents and make it queryable",
				ArgsUsage: "<chatbot-id>",
				Action:    deployCommand,
			},
			{
				Name:      "status",
				Usage:     "Show a chatbot's status and documents",
				ArgsUsage: "<chatbot-id>",
				Action:    statusCommand,
			},
			{
				Name:      "ask",
				Usage:     "Ask a chatbot a question (interactive session)",
				ArgsUsage: "<chatbot-id>",
				Action:    askCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a chatbot and its knowledge",
				ArgsUsage: "<chatbot-id>",
				Action:    deleteCommand,
			},
			{
				Name:      "delete-doc",
				Usage:     "Delete one document from a chatbot",
				ArgsUsage: "<chatbot-id> <document-id>",
				Action:    deleteDocCommand,
			},
			{
				Name:      "stage",
				Usage:     "Stage a file under a draft id",
				ArgsUsage: "<draft-id> <file>",
				Action:    stageCommand,
			},
			{
				Name:      "drafts",
				Usage:     "List the files staged under a draft id",
				ArgsUsage: "<draft-id>",
				Action:    draftsCommand,
			},
			{
				Name:      "deploy-draft",
				Usage:     "Promote a draft's files into a chatbot and deploy",
				ArgsUsage: "<draft-id> [chatbot-id]",
				Action:    deployDraftCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Name for the chatbot created when no chatbot id is given",
					},
					&cli.StringFlag{
						Name:  "system-prompt",
						Usage: "System prompt for the chatbot created when no chatbot id is given",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Generation model for the created chatbot",
					},
				},
			},
			{
				Name:   "sweep-drafts",
				Usage:  "Remove drafts idle longer than the given duration",
				Action: sweepDraftsCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "max-idle",
						Usage: "Idle period after which a draft is removed",
						Value: 24 * time.Hour,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
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

func openPlatform(c *cli.Context) (*docbot.Platform, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationModel(c.String("generation-model")),
	)
	return docbot.New(c.Context, c.String("data"), docbot.WithAIConfig(cfg))
}

func createCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: create <name> --system-prompt <prompt>")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	bot, err := p.CreateChatbot(c.Args().Get(0), c.String("system-prompt"), c.String("model"))
	if err != nil {
		return err
	}
	fmt.Printf("created chatbot %s (%s)\n", bot.Id, bot.Name)
	return nil
}

func listCommand(c *cli.Context) error {
	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	bots, err := p.ListChatbots()
	if err != nil {
		return err
	}
	if len(bots) == 0 {
		fmt.Println("no chatbots")
		return nil
	}
	for _, bot := range bots {
		fmt.Printf("%s  %-12s  %d docs  %s\n", bot.Id, bot.Status, bot.DocumentCount, bot.Name)
	}
	return nil
}

func uploadCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: upload <chatbot-id> <file>")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	path := c.Args().Get(1)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := p.UploadDocument(c.Args().Get(0), filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Printf("uploaded document %s (%s, %d bytes)\n", doc.Id, doc.Filename, doc.Size)
	return nil
}

func deployCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: deploy <chatbot-id>")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	chatbotID := c.Args().Get(0)
	if err := p.Deploy(chatbotID); err != nil {
		return err
	}
	p.Wait()

	bot, err := p.Status(chatbotID)
	if err != nil {
		return err
	}
	fmt.Printf("deployment finished, chatbot is %s\n", bot.Status)
	return printDocuments(p, chatbotID)
}

func statusCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: status <chatbot-id>")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	chatbotID := c.Args().Get(0)
	bot, err := p.Status(chatbotID)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  status=%s  documents=%d\n", bot.Id, bot.Name, bot.Status, bot.DocumentCount)
	return printDocuments(p, chatbotID)
}

func printDocuments(p *docbot.Platform, chatbotID string) error {
	docs, err := p.Documents(chatbotID)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		line := fmt.Sprintf("  %s  %-10s  %s", doc.Id, doc.Status, doc.Filename)
		if doc.Error != "" {
			line += "  (" + doc.Error + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: ask <chatbot-id>")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	chatbotID := c.Args().Get(0)
	if _, err := p.Status(chatbotID); err != nil {
		return err
	}

	var history []core.Turn
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("ask your questions (empty line to quit)")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}

		answer, err := p.Query(context.Background(), chatbotID, question, history)
		if err != nil {
			// A failed exchange records no turn.
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println(answer.Text)
		for _, src := range answer.Sources {
			fmt.Printf("  [source: %s chunk %d score %.3f]\n", src.Filename, src.ChunkIndex, src.Score)
		}
		history = append(history,
			core.Turn{Role: core.RoleUser, Content: question},
			core.Turn{Role: core.RoleAssistant, Content: answer.Text},
		)
	}
	return scanner.Err()
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: delete <chatbot-id>")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.DeleteChatbot(c.Args().Get(0)); err != nil {
		return err
	}
	fmt.Println("chatbot deleted")
	return nil
}

func deleteDocCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: delete-doc <chatbot-id> <document-id>")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.DeleteDocument(c.Args().Get(0), c.Args().Get(1)); err != nil {
		return err
	}
	fmt.Println("document deleted")
	return nil
}

func stageCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: stage <draft-id> <file>")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	path := c.Args().Get(1)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := p.Staging().Add(c.Args().Get(0), filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Printf("staged %s (%d bytes)\n", file.Filename, file.Size)
	return nil
}

func draftsCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: drafts <draft-id>")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	files, err := p.Staging().List(c.Args().Get(0))
	if err != nil {
		return err
	}
	for _, file := range files {
		fmt.Printf("%s  %d bytes  staged %s\n", file.Filename, file.Size, file.AddedAt.Format(time.RFC3339))
	}
	return nil
}

func deployDraftCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: deploy-draft <draft-id> [chatbot-id]")
	}

	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	chatbotID := c.Args().Get(1)
	if chatbotID == "" {
		bot, err := p.DeployDraftNew(c.Args().Get(0), c.String("name"), c.String("system-prompt"), c.String("model"))
		if err != nil {
			return err
		}
		chatbotID = bot.Id
		fmt.Printf("created chatbot %s\n", chatbotID)
	} else if err := p.DeployDraft(c.Args().Get(0), chatbotID); err != nil {
		return err
	}
	p.Wait()

	bot, err := p.Status(chatbotID)
	if err != nil {
		return err
	}
	fmt.Printf("draft deployed, chatbot is %s\n", bot.Status)
	return nil
}

func sweepDraftsCommand(c *cli.Context) error {
	p, err := openPlatform(c)
	if err != nil {
		return err
	}
	defer p.Close()

	removed, err := p.Staging().Sweep(c.Duration("max-idle"))
	if err != nil {
		return err
	}
	fmt.Printf("removed %d idle drafts\n", removed)
	return nil
}
