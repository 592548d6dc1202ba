package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"squad/internal/agent"
	"squad/internal/audit"
	"squad/internal/config"
	"squad/internal/db"
	"squad/internal/llm"
	"squad/internal/profile"
	"squad/internal/tools"
	"squad/internal/trace"

	"github.com/spf13/cobra"
)

var (
	profileNames []string
	attachedCtx  string
)

var Cmd = &cobra.Command{
	Use:   "dispatch <task>",
	Short: "Dispatch a task to one or more agent profiles",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

func init() {
	Cmd.Flags().StringArrayVarP(&profileNames, "profile", "p", []string{"explore"}, "profile to dispatch to; repeat for concurrent fan-out")
	Cmd.Flags().StringVar(&attachedCtx, "context", "", "extra context attached to the task")
}

func run(cmd *cobra.Command, args []string) error {
	task := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Trace.Enabled {
		shutdown, err := trace.Init(ctx, trace.Config{
			Endpoint: cfg.Trace.Endpoint,
			URLPath:  cfg.Trace.URLPath,
			APIKey:   cfg.Trace.APIKey,
		})
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer shutdown(context.Background())
	}

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	dispatcher := buildDispatcher(cfg, audit.NewStore(database))

	reqs := make([]agent.Request, len(profileNames))
	for i, name := range profileNames {
		reqs[i] = agent.Request{Profile: name, Task: task, Context: attachedCtx}
	}

	var mu sync.Mutex
	emit := func(e agent.Event) {
		mu.Lock()
		defer mu.Unlock()
		switch e.Type {
		case agent.EventToolCall:
			if d, ok := e.Data.(map[string]string); ok {
				fmt.Fprintf(os.Stderr, "→ %s %s\n", d["name"], d["arguments"])
			}
		case agent.EventToolDenied:
			if d, ok := e.Data.(map[string]string); ok {
				fmt.Fprintf(os.Stderr, "✗ %s blocked: %s\n", d["name"], d["reason"])
			}
		}
	}

	results := dispatcher.DispatchAll(ctx, reqs, emit)

	failed := false
	for i, res := range results {
		if res.Err != nil {
			failed = true
			printError(reqs[i].Profile, res.Err)
			continue
		}
		printReport(res.Report)
	}
	if failed {
		return fmt.Errorf("one or more runs did not complete")
	}
	return nil
}

func buildDispatcher(cfg *config.Config, store *audit.Store) *agent.Dispatcher {
	registry := agent.NewRegistry()
	registry.Register(&tools.ReadFile{})
	registry.Register(&tools.WriteFile{})
	registry.Register(&tools.EditFile{})
	registry.Register(&tools.Glob{})
	registry.Register(&tools.Grep{})
	registry.Register(&tools.Shell{})
	registry.Register(tools.NewWebSearch(cfg.Web.BraveAPIKey))
	registry.Register(&tools.WebFetch{})

	factory := llm.NewFactory()
	for tier, model := range cfg.LLM.Tiers {
		factory.Register(tier, llm.NewOpenAI(cfg.LLM.BaseURL, cfg.LLM.APIKey, model))
	}

	mediator := agent.NewMediator(registry, time.Duration(cfg.Limits.ToolTimeoutMS)*time.Millisecond)

	return agent.NewDispatcher(
		profile.Load(cfg.Profiles),
		factory,
		mediator,
		agent.WithMaxTurns(cfg.Limits.MaxTurns),
		agent.WithMaxToolTimeouts(cfg.Limits.MaxToolTimeouts),
		agent.WithRecorder(store),
	)
}

func printReport(rep *agent.Report) {
	fmt.Printf("== %s (run %s) ==\n\n%s\n", rep.Profile, rep.RunID, rep.Summary)
	if len(rep.Artifacts) > 0 {
		fmt.Println("\nFiles:")
		for _, a := range rep.Artifacts {
			if a.Rationale != "" {
				fmt.Printf("  %s — %s\n", a.Path, a.Rationale)
			} else {
				fmt.Printf("  %s\n", a.Path)
			}
		}
	}
	fmt.Println()
}

func printError(profileName string, err error) {
	fmt.Fprintf(os.Stderr, "run for profile %q failed: %v\n", profileName, err)
	var derr *agent.DispatchError
	if errors.As(err, &derr) && len(derr.Trace) > 0 {
		fmt.Fprintln(os.Stderr, "tool-call trace:")
		for _, e := range derr.Trace {
			status := "allowed"
			if !e.Verdict.Allowed {
				status = "blocked"
			}
			fmt.Fprintf(os.Stderr, "  #%d %s [%s] %s %s\n", e.Seq, e.Tool, e.Verdict.Class, status, e.Error)
		}
	}
}
