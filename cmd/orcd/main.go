package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	cli "github.com/urfave/cli/v3"

	"github.com/orcd/orcd/internal/backlog"
	"github.com/orcd/orcd/internal/config"
	"github.com/orcd/orcd/internal/coordinator"
	"github.com/orcd/orcd/internal/doctor"
	"github.com/orcd/orcd/internal/executor"
	"github.com/orcd/orcd/internal/filter"
	"github.com/orcd/orcd/internal/gitcommit"
	"github.com/orcd/orcd/internal/model"
	"github.com/orcd/orcd/internal/preflight"
	"github.com/orcd/orcd/internal/runner"
	"github.com/orcd/orcd/internal/scaffold"
	"github.com/orcd/orcd/internal/scheduler"
	"github.com/orcd/orcd/internal/ux"
)

// defaultAnthropicModel is the model the anthropic-api agent_backend
// always uses; no per-pipeline or config-level model override is read.
const defaultAnthropicModel = "claude-sonnet-4-5"

func main() {
	app := &cli.Command{
		Name:        "orcd",
		Usage:       "Deterministic multi-item work orchestrator",
		Description: "Run 'orcd preflight' before 'orcd run' to validate a backlog ahead of time.",
		Commands: []*cli.Command{
			initCmd(),
			runCmd(),
			addCmd(),
			statusCmd(),
			preflightCmd(),
			doctorCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Scaffold a new orcd project in the current directory",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			written, err := scaffold.Init(dir)
			if err != nil {
				return err
			}
			for _, p := range written {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the orchestrator run-loop",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "target", Usage: "Restrict the run to these item IDs (repeatable)"},
			&cli.StringSliceFlag{Name: "only", Usage: "Filter criteria KEY=VALUE (repeatable, ANDed)"},
			&cli.IntFlag{Name: "cap", Usage: "Maximum run-loop iterations (overrides config when > 0; 0 keeps the config value)"},
			&cli.IntFlag{Name: "max-wip", Usage: "Maximum concurrent in-flight items (overrides config)"},
			&cli.StringFlag{Name: "agent-backend", Usage: "subprocess|anthropic-api (overrides config)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot()
			if err != nil {
				return err
			}

			cfg, err := loadConfig(projectRoot)
			if err != nil {
				return err
			}
			if v := cmd.Int("max-wip"); v > 0 {
				cfg.MaxWIP = int(v)
			}
			if v := cmd.String("agent-backend"); v != "" {
				cfg.AgentBackend = model.AgentBackend(v)
			}
			if v := cmd.Int("cap"); v > 0 {
				cfg.Guardrails.MaxIterations = int(v)
			}

			criteria, err := filter.ParseAll(cmd.StringSlice("only"))
			if err != nil {
				return err
			}
			if err := filter.ValidateCriteria(criteria); err != nil {
				return err
			}

			b, err := backlog.Load(backlogPath(projectRoot))
			if err != nil {
				return fmt.Errorf("loading backlog: %w", err)
			}
			if res := preflight.Run(b, cfg); !res.Ok() {
				for _, e := range res.Errors {
					fmt.Fprintln(os.Stderr, e.Error())
				}
				return fmt.Errorf("preflight failed with %d error(s)", len(res.Errors))
			}

			logger := log.New(os.Stderr)

			artifactsDir := filepath.Join(projectRoot, ".orcd", "artifacts")
			if err := os.MkdirAll(artifactsDir, 0755); err != nil {
				return err
			}

			coord := coordinator.New(backlogPath(projectRoot), inboxPath(projectRoot), cfg.IDPrefix, b, logger)
			actorCtx, stopActor := context.WithCancel(ctx)
			defer stopActor()
			go coord.Run(actorCtx)

			runnerImpl, err := buildRunner(cfg, projectRoot, logger)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			metrics := scheduler.NewMetrics(reg)

			deps := scheduler.RunLoopDeps{
				Coordinator: coord,
				Executor: executor.Deps{
					Coordinator:  coord,
					Runner:       runnerImpl,
					Committer:    gitcommit.GitCommitter{},
					Config:       cfg,
					WorkDir:      projectRoot,
					ArtifactsDir: artifactsDir,
					Logger:       logger,
					LoadWorkflow: func(path string) (string, error) {
						data, err := os.ReadFile(filepath.Join(projectRoot, path))
						if err != nil {
							return "", err
						}
						return string(data), nil
					},
				},
				Config:    cfg,
				Metrics:   metrics,
				Logger:    logger,
				TargetIDs: cmd.StringSlice("target"),
				Criteria:  criteria,
				InboxPath: inboxPath(projectRoot),
			}

			runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			reason := scheduler.Run(runCtx, deps, func(ir scheduler.IterationResult) {
				ux.IterationLine(ir.Iteration, ir.Actions)
			})

			if err := doctor.WriteLastHalt(projectRoot, reason); err != nil {
				logger.Warn("failed to record halt reason", "err", err)
			}

			fmt.Println(string(reason))
			if code := reason.ExitCode(); code != 0 {
				return cli.Exit("", code)
			}
			return nil
		},
	}
}

func addCmd() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a new item to the backlog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Required: true},
			&cli.StringFlag{Name: "description"},
			&cli.StringFlag{Name: "size"},
			&cli.StringFlag{Name: "risk"},
			&cli.StringFlag{Name: "impact"},
			&cli.StringFlag{Name: "pipeline-type"},
			&cli.StringSliceFlag{Name: "dep", Usage: "Dependency item ID (repeatable)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(projectRoot)
			if err != nil {
				return err
			}
			b, err := backlog.Load(backlogPath(projectRoot))
			if err != nil {
				return fmt.Errorf("loading backlog: %w", err)
			}

			logger := log.New(os.Stderr)
			coord := coordinator.New(backlogPath(projectRoot), inboxPath(projectRoot), cfg.IDPrefix, b, logger)
			actorCtx, stopActor := context.WithCancel(ctx)
			defer stopActor()
			go coord.Run(actorCtx)

			item := model.InboxItem{
				Title:        cmd.String("title"),
				Description:  cmd.String("description"),
				Size:         model.Size(cmd.String("size")),
				Risk:         model.Level(cmd.String("risk")),
				Impact:       model.Level(cmd.String("impact")),
				PipelineType: cmd.String("pipeline-type"),
				Dependencies: cmd.StringSlice("dep"),
			}
			id, err := coord.AddItem(ctx, item)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show backlog status",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "only", Usage: "Filter criteria KEY=VALUE (repeatable, ANDed)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(projectRoot)
			if err != nil {
				return err
			}
			b, err := backlog.Load(backlogPath(projectRoot))
			if err != nil {
				return fmt.Errorf("loading backlog: %w", err)
			}

			criteria, err := filter.ParseAll(cmd.StringSlice("only"))
			if err != nil {
				return err
			}
			if err := filter.ValidateCriteria(criteria); err != nil {
				return err
			}

			items := filter.Apply(criteria, b.Items)
			ux.RenderStatus(items, cfg.MaxWIP)
			return nil
		},
	}
}

func preflightCmd() *cli.Command {
	return &cli.Command{
		Name:  "preflight",
		Usage: "Validate the backlog and config without running",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(projectRoot)
			if err != nil {
				return err
			}
			b, err := backlog.Load(backlogPath(projectRoot))
			if err != nil {
				return fmt.Errorf("loading backlog: %w", err)
			}

			res := preflight.Run(b, cfg)
			if res.Ok() {
				fmt.Println("preflight ok")
				return nil
			}
			for _, e := range res.Errors {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			return cli.Exit(fmt.Sprintf("preflight failed with %d error(s)", len(res.Errors)), 1)
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Summarize the last halt reason and any blocked items",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot()
			if err != nil {
				return err
			}
			b, err := backlog.Load(backlogPath(projectRoot))
			if err != nil {
				return fmt.Errorf("loading backlog: %w", err)
			}
			reason, err := doctor.ReadLastHalt(projectRoot)
			if err != nil {
				return err
			}
			fmt.Print(doctor.Diagnose(b.Items, reason).Render())
			return nil
		},
	}
}

func loadConfig(projectRoot string) (*model.OrchestrateConfig, error) {
	cfg, err := config.Load(filepath.Join(projectRoot, ".orcd", "config.yaml"), projectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func buildRunner(cfg *model.OrchestrateConfig, projectRoot string, logger *log.Logger) (runner.Runner, error) {
	switch cfg.AgentBackend {
	case model.AgentBackendAnthropic:
		return runner.NewAnthropicRunner(anthropic.Model(defaultAnthropicModel)), nil
	case model.AgentBackendSubprocess, "":
		return &runner.SubprocessRunner{Binary: cfg.AgentBinary, WorkDir: projectRoot, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown agent_backend %q", cfg.AgentBackend)
	}
}

func backlogPath(projectRoot string) string {
	return filepath.Join(projectRoot, "BACKLOG.yaml")
}

func inboxPath(projectRoot string) string {
	return filepath.Join(projectRoot, "BACKLOG_INBOX.yaml")
}

// findProjectRoot walks up from cwd looking for .orcd/config.yaml.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		configPath := filepath.Join(dir, ".orcd", "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no .orcd/config.yaml found (searched from cwd to root)")
		}
		dir = parent
	}
}
