package scheduler

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcd/orcd/internal/coordinator"
	"github.com/orcd/orcd/internal/executor"
	"github.com/orcd/orcd/internal/gitcommit"
	"github.com/orcd/orcd/internal/model"
)

type stubRunner struct {
	result *model.PhaseResult
}

func (r *stubRunner) RunAgent(ctx context.Context, prompt, resultPath string, timeout time.Duration) (*model.PhaseResult, error) {
	return r.result, nil
}

type stubCommitter struct{}

func (stubCommitter) Commit(ctx context.Context, workDir, subject, body string) (string, error) {
	return "deadbeef", nil
}

func newRunLoopCoordinator(t *testing.T, items ...model.Item) *coordinator.Coordinator {
	t.Helper()
	dir := t.TempDir()
	b := &model.BacklogFile{SchemaVersion: model.CurrentSchemaVersion, NextItemID: 1, Items: items}
	c := coordinator.New(filepath.Join(dir, "BACKLOG.yaml"), filepath.Join(dir, "BACKLOG_INBOX.yaml"), "WRK", b, log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)
	return c
}

func TestRunHaltsAllDoneOrBlockedWhenBacklogIsEmpty(t *testing.T) {
	cfg := &model.OrchestrateConfig{}
	cfg.ApplyDefaults()
	c := newRunLoopCoordinator(t)
	d := RunLoopDeps{
		Coordinator: c,
		Executor:    executor.Deps{},
		Config:      cfg,
		Metrics:     NewMetrics(prometheus.NewRegistry()),
		Logger:      log.New(io.Discard),
	}
	reason := Run(context.Background(), d, nil)
	assert.Equal(t, HaltAllDoneOrBlocked, reason)
}

func TestRunDrivesSingleItemThroughToDone(t *testing.T) {
	cfg := &model.OrchestrateConfig{
		Pipelines: map[string]model.PipelineConfig{
			"default": {Name: "default", Phases: []model.PhaseDef{{Name: "implement", Pool: model.PoolMain, WorkflowFiles: []string{"implement.md"}}}},
		},
	}
	cfg.ApplyDefaults()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusReady, PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newRunLoopCoordinator(t, it)

	dir := t.TempDir()
	execDeps := executor.Deps{
		Coordinator:  c,
		Runner:       &stubRunner{result: &model.PhaseResult{ResultCode: model.ResultComplete, Summary: "finished"}},
		Committer:    stubCommitter{},
		Config:       cfg,
		WorkDir:      dir,
		ArtifactsDir: dir,
		Logger:       log.New(io.Discard),
		LoadWorkflow: func(path string) (string, error) { return "do it", nil },
	}
	d := RunLoopDeps{
		Coordinator: c,
		Executor:    execDeps,
		Config:      cfg,
		Metrics:     NewMetrics(prometheus.NewRegistry()),
		Logger:      log.New(io.Discard),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reason := Run(ctx, d, nil)
	assert.Equal(t, HaltAllDoneOrBlocked, reason)

	snap, err := c.GetSnapshot(context.Background())
	require.NoError(t, err)
	got, ok := snap.ItemByID("WRK-001")
	require.True(t, ok)
	assert.Equal(t, model.StatusDone, got.Status)
}

func TestRunRespectsTargetIDs(t *testing.T) {
	cfg := &model.OrchestrateConfig{
		Pipelines: map[string]model.PipelineConfig{
			"default": {Name: "default", Phases: []model.PhaseDef{{Name: "implement", Pool: model.PoolMain, WorkflowFiles: []string{"implement.md"}}}},
		},
	}
	cfg.ApplyDefaults()
	items := []model.Item{
		{ID: "WRK-001", Title: "a", Status: model.StatusReady, PipelineType: "default", Created: time.Now(), Updated: time.Now()},
		{ID: "WRK-002", Title: "b", Status: model.StatusReady, PipelineType: "default", Created: time.Now(), Updated: time.Now()},
	}
	c := newRunLoopCoordinator(t, items...)

	dir := t.TempDir()
	execDeps := executor.Deps{
		Coordinator:  c,
		Runner:       &stubRunner{result: &model.PhaseResult{ResultCode: model.ResultComplete, Summary: "finished"}},
		Committer:    stubCommitter{},
		Config:       cfg,
		WorkDir:      dir,
		ArtifactsDir: dir,
		Logger:       log.New(io.Discard),
		LoadWorkflow: func(path string) (string, error) { return "do it", nil },
	}
	d := RunLoopDeps{
		Coordinator: c,
		Executor:    execDeps,
		Config:      cfg,
		Metrics:     NewMetrics(prometheus.NewRegistry()),
		Logger:      log.New(io.Discard),
		TargetIDs:   []string{"WRK-001"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = Run(ctx, d, nil)

	snap, err := c.GetSnapshot(context.Background())
	require.NoError(t, err)
	one, _ := snap.ItemByID("WRK-001")
	two, _ := snap.ItemByID("WRK-002")
	assert.Equal(t, model.StatusDone, one.Status)
	assert.Equal(t, model.StatusReady, two.Status) // untouched, outside target set
}

var _ gitcommit.Committer = stubCommitter{}
