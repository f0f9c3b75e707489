package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/agent"
	"github.com/openclaw/picoclaw/internal/store"
	"github.com/openclaw/picoclaw/tools"
	"github.com/openclaw/picoclaw/types"
)

type fakeExecutor struct {
	typ    string
	result string
	err    error
	calls  []store.Job
}

func (f *fakeExecutor) Type() string { return f.typ }

func (f *fakeExecutor) Execute(ctx context.Context, job store.Job) (string, error) {
	f.calls = append(f.calls, job)
	return f.result, f.err
}

func newTestScheduler(t *testing.T) (*Scheduler, *store.Store, *time.Time) {
	t.Helper()
	st, err := store.Open(":memory:", zap.NewNop())
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := &now

	s := New(st, time.Second, zap.NewNop())
	s.now = func() time.Time { return *clock }
	return s, st, clock
}

func TestRunDue_IntervalJobFiresAfterInterval(t *testing.T) {
	s, st, clock := newTestScheduler(t)
	exec := &fakeExecutor{typ: "fake", result: "done"}
	s.RegisterExecutor(exec)

	ctx := context.Background()
	job := &store.Job{
		Name:        "heartbeat",
		JobType:     "fake",
		TriggerType: TriggerInterval,
		TriggerSpec: "1m",
		Enabled:     true,
	}
	require.NoError(t, s.CreateJob(ctx, job))

	// First sighting schedules the job one interval out; nothing fires yet.
	s.RunDue(ctx)
	assert.Empty(t, exec.calls)

	*clock = clock.Add(61 * time.Second)
	s.RunDue(ctx)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, job.ID, exec.calls[0].ID)

	stored, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, store.JobStatusCompleted, stored.Status)
	assert.Equal(t, "done", stored.LastResult)
	assert.Equal(t, clock.Unix(), stored.LastRun.Unix())
	assert.True(t, stored.Enabled)
}

func TestRunDue_FailedJobRecordsError(t *testing.T) {
	s, st, clock := newTestScheduler(t)
	exec := &fakeExecutor{typ: "fake", err: errors.New("upstream unavailable")}
	s.RegisterExecutor(exec)

	ctx := context.Background()
	job := &store.Job{
		Name:        "flaky",
		JobType:     "fake",
		TriggerType: TriggerInterval,
		TriggerSpec: "30s",
		Enabled:     true,
	}
	require.NoError(t, s.CreateJob(ctx, job))

	s.RunDue(ctx)
	*clock = clock.Add(31 * time.Second)
	s.RunDue(ctx)

	stored, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, store.JobStatusFailed, stored.Status)
	assert.Equal(t, "upstream unavailable", stored.LastResult)
}

func TestRunDue_DateJobDisabledAfterFiring(t *testing.T) {
	s, st, clock := newTestScheduler(t)
	exec := &fakeExecutor{typ: "fake", result: "ran once"}
	s.RegisterExecutor(exec)

	ctx := context.Background()
	at := clock.Add(30 * time.Second)
	job := &store.Job{
		Name:        "reminder",
		JobType:     "fake",
		TriggerType: TriggerDate,
		TriggerSpec: at.Format(time.RFC3339),
		Enabled:     true,
	}
	require.NoError(t, s.CreateJob(ctx, job))

	s.RunDue(ctx)
	assert.Empty(t, exec.calls)

	*clock = at.Add(time.Second)
	s.RunDue(ctx)
	require.Len(t, exec.calls, 1)

	stored, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, stored.Enabled)
	assert.Equal(t, store.JobStatusCompleted, stored.Status)

	// Disabled jobs drop out of the poll entirely.
	*clock = clock.Add(time.Hour)
	s.RunDue(ctx)
	assert.Len(t, exec.calls, 1)
}

func TestRunDue_DisabledJobSkipped(t *testing.T) {
	s, st, clock := newTestScheduler(t)
	exec := &fakeExecutor{typ: "fake"}
	s.RegisterExecutor(exec)

	ctx := context.Background()
	job := &store.Job{
		Name:        "paused",
		JobType:     "fake",
		TriggerType: TriggerInterval,
		TriggerSpec: "1s",
		Enabled:     true,
	}
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, st.SetJobEnabled(ctx, job.ID, false))

	s.RunDue(ctx)
	*clock = clock.Add(time.Hour)
	s.RunDue(ctx)
	assert.Empty(t, exec.calls)
}

func TestRunDue_LongResultTruncated(t *testing.T) {
	s, st, clock := newTestScheduler(t)
	exec := &fakeExecutor{typ: "fake", result: strings.Repeat("x", 2*resultLimit)}
	s.RegisterExecutor(exec)

	ctx := context.Background()
	job := &store.Job{
		Name:        "chatty",
		JobType:     "fake",
		TriggerType: TriggerInterval,
		TriggerSpec: "1s",
		Enabled:     true,
	}
	require.NoError(t, s.CreateJob(ctx, job))

	s.RunDue(ctx)
	*clock = clock.Add(2 * time.Second)
	s.RunDue(ctx)

	stored, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, stored.LastResult, resultLimit)
}

func TestCreateJob_RejectsBadDefinitions(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.RegisterExecutor(&fakeExecutor{typ: "fake"})

	ctx := context.Background()

	err := s.CreateJob(ctx, &store.Job{JobType: "unknown", TriggerType: TriggerInterval, TriggerSpec: "1m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no executor")

	err = s.CreateJob(ctx, &store.Job{JobType: "fake", TriggerType: TriggerCron, TriggerSpec: "not a cron"})
	assert.Error(t, err)
}

func TestShellCommandExecutor_RunsInWorkDir(t *testing.T) {
	dir := t.TempDir()
	exec := NewShellCommandExecutor(dir)

	job := store.Job{Config: `{"command": "pwd"}`}
	out, err := exec.Execute(context.Background(), job)
	require.NoError(t, err)

	resolved, err2 := filepath.EvalSymlinks(dir)
	require.NoError(t, err2)
	assert.Equal(t, resolved, out)
}

func TestShellCommandExecutor_DeniedCommandNeverSpawned(t *testing.T) {
	dir := t.TempDir()
	exec := NewShellCommandExecutor(dir)

	marker := filepath.Join(dir, "marker")
	job := store.Job{Config: fmt.Sprintf(`{"command": "touch %s && rm -rf /tmp/nonexistent"}`, marker)}
	_, err := exec.Execute(context.Background(), job)
	require.ErrorIs(t, err, tools.ErrDangerousCommand)

	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}

func TestShellCommandExecutor_FailureIncludesOutput(t *testing.T) {
	exec := NewShellCommandExecutor(t.TempDir())

	job := store.Job{Config: `{"command": "echo oops >&2; exit 3"}`}
	_, err := exec.Execute(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
}

type stubAgent struct {
	lastMessage string
	reply       string
	err         error
}

func (a *stubAgent) Chat(ctx context.Context, userMessage string, history []types.Message) (*agent.ChatResult, error) {
	a.lastMessage = userMessage
	if a.err != nil {
		return nil, a.err
	}
	return &agent.ChatResult{Content: a.reply}, nil
}

func TestAgentTaskExecutor_ForwardsMessage(t *testing.T) {
	stub := &stubAgent{reply: "summary ready"}
	exec := NewAgentTaskExecutor(func(agentType string) (ChatAgent, error) {
		assert.Equal(t, "researcher", agentType)
		return stub, nil
	})

	job := store.Job{Config: `{"agent_type": "researcher", "message": "summarize the news"}`}
	out, err := exec.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "summary ready", out)
	assert.Equal(t, "summarize the news", stub.lastMessage)
}

func TestAgentTaskExecutor_RequiresMessage(t *testing.T) {
	exec := NewAgentTaskExecutor(func(string) (ChatAgent, error) { return &stubAgent{}, nil })

	_, err := exec.Execute(context.Background(), store.Job{Config: `{"agent_type": "researcher"}`})
	assert.Error(t, err)
}

func TestWebhookExecutor_PostsPayload(t *testing.T) {
	var gotMethod, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte("accepted"))
	}))
	defer srv.Close()

	exec := NewWebhookExecutor(srv.Client())
	cfg := map[string]any{
		"url":     srv.URL,
		"headers": map[string]string{"Authorization": "Bearer tok"},
		"data":    map[string]string{"event": "tick"},
	}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	out, err := exec.Execute(context.Background(), store.Job{Config: string(raw)})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.JSONEq(t, `{"event": "tick"}`, gotBody)
	assert.Equal(t, "200: accepted", out)
}

func TestWebhookExecutor_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	exec := NewWebhookExecutor(srv.Client())
	job := store.Job{Config: fmt.Sprintf(`{"url": %q, "method": "GET"}`, srv.URL)}
	_, err := exec.Execute(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
