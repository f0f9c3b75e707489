package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/picoclaw/internal/store"
)

func TestJobLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/jobs", map[string]any{
		"name":         "nightly digest",
		"job_type":     "agent_task",
		"trigger_type": "cron",
		"trigger_spec": "0 3 * * *",
		"config":       map[string]string{"agent_type": "main", "message": "summarize"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[store.Job](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Enabled)
	assert.Equal(t, store.JobStatusPending, created.Status)

	resp = env.request(t, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	jobs := decode[[]store.Job](t, resp)
	require.Len(t, jobs, 1)
	assert.Equal(t, "nightly digest", jobs[0].Name)

	resp = env.request(t, http.MethodPost, "/api/jobs/"+created.ID+"/disable", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/jobs", nil)
	jobs = decode[[]store.Job](t, resp)
	require.Len(t, jobs, 1)
	assert.False(t, jobs[0].Enabled)

	resp = env.request(t, http.MethodPost, "/api/jobs/"+created.ID+"/enable", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodDelete, "/api/jobs/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/jobs", nil)
	jobs = decode[[]store.Job](t, resp)
	assert.Empty(t, jobs)
}

func TestCreateJob_RejectsInvalidTrigger(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/jobs", map[string]any{
		"name":         "broken",
		"job_type":     "shell_command",
		"trigger_type": "cron",
		"trigger_spec": "every tuesday",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/jobs", map[string]any{
		"name":         "broken",
		"job_type":     "shell_command",
		"trigger_type": "lunar",
		"trigger_spec": "* * * * *",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJobEndpoints_UnknownID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/jobs/nope/disable", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.request(t, http.MethodDelete, "/api/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
