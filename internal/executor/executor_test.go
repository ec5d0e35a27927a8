package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcd/orcd/internal/coordinator"
	"github.com/orcd/orcd/internal/gitcommit"
	"github.com/orcd/orcd/internal/model"
)

type scriptedRunner struct {
	result *model.PhaseResult
	err    error
	block  chan struct{} // when non-nil, RunAgent waits for this to close
}

func (r *scriptedRunner) RunAgent(ctx context.Context, prompt, resultPath string, timeout time.Duration) (*model.PhaseResult, error) {
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

type fakeCommitter struct {
	sha string
	err error
}

func (f *fakeCommitter) Commit(ctx context.Context, workDir, subject, body string) (string, error) {
	return f.sha, f.err
}

func testDeps(t *testing.T, runnerImpl *scriptedRunner, committer gitcommit.Committer, cfg *model.OrchestrateConfig, c *coordinator.Coordinator) Deps {
	t.Helper()
	dir := t.TempDir()
	return Deps{
		Coordinator:  c,
		Runner:       runnerImpl,
		Committer:    committer,
		Config:       cfg,
		WorkDir:      dir,
		ArtifactsDir: dir,
		Logger:       log.New(io.Discard),
		LoadWorkflow: func(path string) (string, error) { return "workflow body", nil },
	}
}

func basicConfig() *model.OrchestrateConfig {
	cfg := &model.OrchestrateConfig{
		Pipelines: map[string]model.PipelineConfig{
			"default": {
				Name: "default",
				Phases: []model.PhaseDef{
					{Name: "implement", Pool: model.PoolMain, WorkflowFiles: []string{"implement.md"}},
					{Name: "review", Pool: model.PoolMain, WorkflowFiles: []string{"review.md"}},
				},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func newTestCoordinator(t *testing.T, items ...model.Item) *coordinator.Coordinator {
	t.Helper()
	dir := t.TempDir()
	b := &model.BacklogFile{SchemaVersion: model.CurrentSchemaVersion, NextItemID: 1, Items: items}
	c := coordinator.New(filepath.Join(dir, "BACKLOG.yaml"), filepath.Join(dir, "BACKLOG_INBOX.yaml"), "WRK", b, log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)
	return c
}

func TestExecutePhaseCompleteAdvancesToNextPhase(t *testing.T) {
	cfg := basicConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusInProgress, Phase: "implement", PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	runnerImpl := &scriptedRunner{result: &model.PhaseResult{ResultCode: model.ResultComplete, Summary: "did the thing"}}
	d := testDeps(t, runnerImpl, &fakeCommitter{sha: "abc123"}, cfg, c)

	res := ExecutePhase(context.Background(), d, it, "implement", model.PoolMain, time.Minute, nil)
	require.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, "abc123", res.CommitSHA)

	snap, err := c.GetSnapshot(context.Background())
	require.NoError(t, err)
	got, ok := snap.ItemByID("WRK-001")
	require.True(t, ok)
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Equal(t, "review", got.Phase)
	assert.Equal(t, "abc123", got.LastPhaseCommit)
}

func TestExecutePhaseCompleteOnLastPhaseTransitionsDone(t *testing.T) {
	cfg := basicConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusInProgress, Phase: "review", PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	runnerImpl := &scriptedRunner{result: &model.PhaseResult{ResultCode: model.ResultComplete, Summary: "done"}}
	d := testDeps(t, runnerImpl, &fakeCommitter{sha: "def456"}, cfg, c)

	res := ExecutePhase(context.Background(), d, it, "review", model.PoolMain, time.Minute, nil)
	require.Equal(t, OutcomeCompleted, res.Outcome)

	snap, _ := c.GetSnapshot(context.Background())
	got, _ := snap.ItemByID("WRK-001")
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Empty(t, got.Phase)
}

func triageConfig() *model.OrchestrateConfig {
	cfg := &model.OrchestrateConfig{
		Pipelines: map[string]model.PipelineConfig{
			"default": {
				Name: "default",
				Phases: []model.PhaseDef{
					{Name: "triage", Pool: model.PoolPre, WorkflowFiles: []string{"triage.md"}},
					{Name: "scope", Pool: model.PoolPre, WorkflowFiles: []string{"scope.md"}},
					{Name: "implement", Pool: model.PoolMain, WorkflowFiles: []string{"implement.md"}},
				},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestExecutePhaseTriageCompleteRecordsAssessmentAndPromotesToReady(t *testing.T) {
	cfg := triageConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusNew, PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	size := model.SizeMedium
	runnerImpl := &scriptedRunner{result: &model.PhaseResult{
		ResultCode: model.ResultTriageComplete,
		Triage:     &model.TriageAssessment{Size: &size, NextStatus: model.StatusReady},
	}}
	d := testDeps(t, runnerImpl, &fakeCommitter{}, cfg, c)

	res := ExecutePhase(context.Background(), d, it, "triage", model.PoolPre, time.Minute, nil)
	require.Equal(t, OutcomeCompleted, res.Outcome)

	snap, _ := c.GetSnapshot(context.Background())
	got, _ := snap.ItemByID("WRK-001")
	assert.Equal(t, model.StatusReady, got.Status)
	assert.Equal(t, model.SizeMedium, got.Size)
	assert.Empty(t, got.Phase)
}

func TestExecutePhaseTriageCompleteToScopingRecordsCompletedPhase(t *testing.T) {
	cfg := triageConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusNew, PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	runnerImpl := &scriptedRunner{result: &model.PhaseResult{
		ResultCode: model.ResultTriageComplete,
		Triage:     &model.TriageAssessment{NextStatus: model.StatusScoping},
	}}
	d := testDeps(t, runnerImpl, &fakeCommitter{}, cfg, c)

	res := ExecutePhase(context.Background(), d, it, "triage", model.PoolPre, time.Minute, nil)
	require.Equal(t, OutcomeCompleted, res.Outcome)

	snap, _ := c.GetSnapshot(context.Background())
	got, _ := snap.ItemByID("WRK-001")
	assert.Equal(t, model.StatusScoping, got.Status)
	assert.Equal(t, "triage", got.Phase)
}

func TestExecutePhaseBlockedTransitionsAndDoesNotCommit(t *testing.T) {
	cfg := basicConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusInProgress, Phase: "implement", PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	runnerImpl := &scriptedRunner{result: &model.PhaseResult{
		ResultCode: model.ResultBlocked, Summary: "stuck",
		BlockedReason: "needs design decision", BlockedType: "human", UnblockContext: "pick an approach",
	}}
	committer := &fakeCommitter{sha: "should-not-be-used"}
	d := testDeps(t, runnerImpl, committer, cfg, c)

	res := ExecutePhase(context.Background(), d, it, "implement", model.PoolMain, time.Minute, nil)
	require.Equal(t, OutcomeBlocked, res.Outcome)

	snap, _ := c.GetSnapshot(context.Background())
	got, _ := snap.ItemByID("WRK-001")
	assert.Equal(t, model.StatusBlocked, got.Status)
	assert.Equal(t, model.StatusInProgress, got.BlockedFromStatus)
	assert.Empty(t, got.LastPhaseCommit)

	entry, err := os.ReadFile(filepath.Join(d.WorkDir, "_worklog", "WRK-001.md"))
	require.NoError(t, err)
	assert.Contains(t, string(entry), "blocked")
	assert.Contains(t, string(entry), "needs design decision")
}

func TestExecutePhaseFailedPropagatesReason(t *testing.T) {
	cfg := basicConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusInProgress, Phase: "implement", PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	runnerImpl := &scriptedRunner{result: &model.PhaseResult{ResultCode: model.ResultFailed, FailureReason: "agent gave up"}}
	d := testDeps(t, runnerImpl, &fakeCommitter{}, cfg, c)

	res := ExecutePhase(context.Background(), d, it, "implement", model.PoolMain, time.Minute, nil)
	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, "agent gave up", res.Reason)

	snap, _ := c.GetSnapshot(context.Background())
	got, _ := snap.ItemByID("WRK-001")
	assert.Equal(t, model.StatusInProgress, got.Status) // unchanged

	entry, err := os.ReadFile(filepath.Join(d.WorkDir, "_worklog", "WRK-001.md"))
	require.NoError(t, err)
	assert.Contains(t, string(entry), "failed")
	assert.Contains(t, string(entry), "agent gave up")
}

func TestExecutePhaseCancelFiresBeforeRunnerReturns(t *testing.T) {
	cfg := basicConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusInProgress, Phase: "implement", PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	runnerImpl := &scriptedRunner{result: &model.PhaseResult{ResultCode: model.ResultComplete}, block: make(chan struct{})}
	d := testDeps(t, runnerImpl, &fakeCommitter{}, cfg, c)

	cancel := make(chan struct{})
	close(cancel)

	res := ExecutePhase(context.Background(), d, it, "implement", model.PoolMain, time.Minute, cancel)
	assert.Equal(t, OutcomeCancelled, res.Outcome)

	entry, err := os.ReadFile(filepath.Join(d.WorkDir, "_worklog", "WRK-001.md"))
	require.NoError(t, err)
	assert.Contains(t, string(entry), "cancelled")
}

func TestExecutePhaseTimeoutAppendsWorklogEntry(t *testing.T) {
	cfg := basicConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusInProgress, Phase: "implement", PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	runnerImpl := &scriptedRunner{err: context.DeadlineExceeded}
	d := testDeps(t, runnerImpl, &fakeCommitter{}, cfg, c)

	res := ExecutePhase(context.Background(), d, it, "implement", model.PoolMain, time.Minute, nil)
	require.Equal(t, OutcomeTimedOut, res.Outcome)

	entry, err := os.ReadFile(filepath.Join(d.WorkDir, "_worklog", "WRK-001.md"))
	require.NoError(t, err)
	assert.Contains(t, string(entry), "timed_out")
}

func TestExecutePhaseRunnerErrorAppendsWorklogEntry(t *testing.T) {
	cfg := basicConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusInProgress, Phase: "implement", PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	runnerImpl := &scriptedRunner{err: errors.New("subprocess exec failed")}
	d := testDeps(t, runnerImpl, &fakeCommitter{}, cfg, c)

	res := ExecutePhase(context.Background(), d, it, "implement", model.PoolMain, time.Minute, nil)
	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, "subprocess exec failed", res.Reason)

	entry, err := os.ReadFile(filepath.Join(d.WorkDir, "_worklog", "WRK-001.md"))
	require.NoError(t, err)
	assert.Contains(t, string(entry), "subprocess exec failed")
}

func TestExecutePhaseIngestsFollowUps(t *testing.T) {
	cfg := basicConfig()
	it := model.Item{ID: "WRK-001", Title: "t", Status: model.StatusInProgress, Phase: "review", PipelineType: "default", Created: time.Now(), Updated: time.Now()}
	c := newTestCoordinator(t, it)
	runnerImpl := &scriptedRunner{result: &model.PhaseResult{
		ResultCode: model.ResultComplete, Summary: "done",
		FollowUps: []model.FollowUp{{Title: "write docs"}},
	}}
	d := testDeps(t, runnerImpl, &fakeCommitter{sha: "sha1"}, cfg, c)

	res := ExecutePhase(context.Background(), d, it, "review", model.PoolMain, time.Minute, nil)
	require.Equal(t, OutcomeCompleted, res.Outcome)

	snap, _ := c.GetSnapshot(context.Background())
	require.Len(t, snap.Items, 2)
	var followUp model.Item
	for _, i := range snap.Items {
		if i.ID != "WRK-001" {
			followUp = i
		}
	}
	assert.Equal(t, "write docs", followUp.Title)
	assert.Equal(t, "WRK-001/review", followUp.Origin)
}

func TestParsePhaseResultRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.json")
	res := model.PhaseResult{ResultCode: model.ResultComplete, Summary: "ok"}
	data, err := json.Marshal(res)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	// Loaded indirectly via the subprocess/anthropic runners in their
	// own package; here we just confirm the fixture encodes cleanly.
	var decoded model.PhaseResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, model.ResultComplete, decoded.ResultCode)
}
