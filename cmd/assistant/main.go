// The assistant binary is an interactive terminal front end for the
// agent backend. It streams one turn at a time, echoing tool activity
// as it happens, and exposes the conversation history API through
// slash commands.
package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/gd03champ/swiggy-ai-agent/internal/api/agent"
	"github.com/gd03champ/swiggy-ai-agent/internal/api/catalog"
	"github.com/gd03champ/swiggy-ai-agent/internal/api/history"
	"github.com/gd03champ/swiggy-ai-agent/internal/cards"
	"github.com/gd03champ/swiggy-ai-agent/internal/config"
	"github.com/gd03champ/swiggy-ai-agent/internal/telemetry"
	"github.com/gd03champ/swiggy-ai-agent/internal/timeline"
	"github.com/gd03champ/swiggy-ai-agent/pkg/assistant"
)

const usage = `Type a message to talk to the assistant, or:
  /history             list saved conversations
  /load <id>           resume a conversation
  /delete <id>         delete a conversation
  /attach <path> <msg> send a message with an image attached
  /search <query>      search restaurants directly
  /clear               start a fresh session
  /quit                exit`

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Diagnostics go to stderr; stdout is the conversation surface.
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init("swiggy-assistant", logger)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
	}

	agentClient := agent.NewClient(
		agent.WithBaseURL(cfg.Agent.BaseURL),
		agent.WithLogger(logger),
	)
	historyClient := history.NewClient(
		history.WithBaseURL(cfg.Agent.BaseURL),
	)
	catalogClient := catalog.NewClient(
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithLogger(logger),
	)

	client := assistant.NewClient(
		assistant.WithAgentClient(agentClient),
		assistant.WithHistoryClient(historyClient),
		assistant.WithUserID(cfg.User.ID),
		assistant.WithLocation(cfg.Location.Latitude, cfg.Location.Longitude),
		assistant.WithLogger(logger),
		assistant.WithTrace(&assistant.TurnTrace{
			ReasoningStep:  echoReasoning,
			ToolUpdate:     echoTool,
			StructuredItem: echoCard,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// Restore default signal handling so a second interrupt kills
		// the process even while we block on stdin.
		stop()
		fmt.Fprintln(os.Stderr, "\ninterrupted, press Enter or Ctrl-C again to exit")
	}()

	fmt.Printf("Swiggy AI assistant (agent %s, user %s)\n%s\n\n", cfg.Agent.BaseURL, cfg.User.ID, usage)

	runLoop(ctx, client, catalogClient, cfg)
}

func runLoop(ctx context.Context, client *assistant.Client, cat *catalog.Client, cfg *config.Config) {
	in := bufio.NewScanner(os.Stdin)
	for ctx.Err() == nil {
		fmt.Print("you> ")
		if !in.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" || ctx.Err() != nil {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, client, cat, cfg, line); quit {
				return
			}
			continue
		}
		sendTurn(ctx, client, line, nil)
	}
}

// runCommand dispatches one slash command and reports whether the loop
// should exit.
func runCommand(ctx context.Context, client *assistant.Client, cat *catalog.Client, cfg *config.Config, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println(usage)
	case "/history":
		printHistory(ctx, client)
	case "/load":
		if rest == "" {
			fmt.Println("usage: /load <conversation-id>")
			break
		}
		loadConversation(ctx, client, rest)
	case "/delete":
		if rest == "" {
			fmt.Println("usage: /delete <conversation-id>")
			break
		}
		if err := client.DeleteConversation(ctx, rest); err != nil {
			fmt.Printf("delete failed: %v\n", err)
			break
		}
		fmt.Printf("deleted %s\n", rest)
	case "/attach":
		path, msg, _ := strings.Cut(rest, " ")
		msg = strings.TrimSpace(msg)
		if path == "" || msg == "" {
			fmt.Println("usage: /attach <path> <message>")
			break
		}
		media, err := loadMedia(path)
		if err != nil {
			fmt.Printf("attach failed: %v\n", err)
			break
		}
		sendTurn(ctx, client, msg, media)
	case "/search":
		if rest == "" {
			fmt.Println("usage: /search <query>")
			break
		}
		searchCatalog(ctx, cat, cfg, rest)
	case "/clear":
		client.Clear()
		fmt.Println("session cleared")
	default:
		fmt.Printf("unknown command %s\n%s\n", cmd, usage)
	}
	return false
}

func sendTurn(ctx context.Context, client *assistant.Client, text string, media *agent.Media) {
	var msg *assistant.Message
	var err error
	if media != nil {
		msg, err = client.SendWithOptions(ctx, text, &assistant.SendOptions{Media: media})
	} else {
		msg, err = client.Send(ctx, text)
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		fmt.Printf("turn failed: %v\n", err)
	}
	printReply(msg)
}

func printReply(msg *assistant.Message) {
	if msg == nil {
		fmt.Println("(no reply)")
		return
	}
	fmt.Printf("\nassistant> %s\n\n", msg.Text)
}

func echoReasoning(step assistant.ReasoningStep) {
	thought := step.Cleaned
	if thought == "" {
		return
	}
	fmt.Printf("  · %s\n", thought)
}

func echoTool(rec timeline.Record) {
	switch rec.Status {
	case timeline.StatusCompleted:
		fmt.Printf("  ✓ %s\n", rec.DisplayText)
	case timeline.StatusError:
		fmt.Printf("  ✗ %s: %s\n", rec.ToolName, rec.Error)
	default:
		fmt.Printf("  » %s\n", rec.DisplayText)
	}
}

func echoCard(item cards.Item) {
	fmt.Printf("  ◆ %s card\n", item.Type)
}

func printHistory(ctx context.Context, client *assistant.Client) {
	result, err := client.ListConversations(ctx, 10, 0)
	if err != nil {
		fmt.Printf("history failed: %v\n", err)
		return
	}
	if result.Total == 0 {
		fmt.Println("no saved conversations")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUPDATED\tMSGS\tSUMMARY")
	for _, conv := range result.Conversations {
		updated := conv.UpdatedAt
		if t, err := time.Parse(time.RFC3339Nano, conv.UpdatedAt); err == nil {
			updated = t.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			conv.SessionID,
			updated,
			conv.MessageCount,
			conv.Summary)
	}
	w.Flush()
	fmt.Printf("showing %d of %d\n", len(result.Conversations), result.Total)
}

func loadConversation(ctx context.Context, client *assistant.Client, id string) {
	if err := client.LoadConversation(ctx, id); err != nil {
		fmt.Printf("load failed: %v\n", err)
		return
	}
	msgs := client.Messages()
	fmt.Printf("loaded %s (%d messages)\n", id, len(msgs))
	for _, msg := range msgs {
		prefix := "you"
		if msg.Role == assistant.RoleAssistant {
			prefix = "assistant"
		}
		fmt.Printf("%s> %s\n", prefix, msg.Text)
	}
	fmt.Println()
}

func loadMedia(path string) (*agent.Media, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &agent.Media{
		Type: "image",
		Data: base64.StdEncoding.EncodeToString(b),
		Metadata: map[string]any{
			"name": filepath.Base(path),
		},
	}, nil
}

func searchCatalog(ctx context.Context, cat *catalog.Client, cfg *config.Config, query string) {
	raw, err := cat.Search(ctx, cfg.Location.Latitude, cfg.Location.Longitude, query)
	if err != nil {
		fmt.Printf("search failed: %v\n", err)
		return
	}
	type row struct {
		Name         string  `json:"name"`
		Cuisine      string  `json:"cuisine"`
		Rating       float64 `json:"rating"`
		Area         string  `json:"area"`
		DeliveryTime string  `json:"delivery_time"`
	}
	// Search responses list under "results", the collection listing
	// under "restaurants". Anything else is dumped raw.
	var listing struct {
		Results     []row `json:"results"`
		Restaurants []row `json:"restaurants"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		fmt.Printf("%s\n", raw)
		return
	}
	rows := listing.Results
	if len(rows) == 0 {
		rows = listing.Restaurants
	}
	if len(rows) == 0 {
		fmt.Printf("%s\n", raw)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCUISINE\tRATING\tAREA\tETA")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%s\n", r.Name, r.Cuisine, r.Rating, r.Area, r.DeliveryTime)
	}
	w.Flush()
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
