package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drydocklab/drydock/common/stats"
	"github.com/drydocklab/drydock/persist"
	"github.com/drydocklab/drydock/scheduler/domain"
	"github.com/drydocklab/drydock/scheduler/server"
)

func makeTestServer(t *testing.T) (*httptest.Server, server.Scheduler) {
	scheduler, err := server.NewDriverScheduler(
		persist.MakeInMemory(), nil,
		server.SchedulerConfig{DebugMode: true}, stats.NilStatsReceiver())
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewServer("", scheduler, stats.NilStatsReceiver()).Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, scheduler
}

func postSubmission(t *testing.T, ts *httptest.Server, desc domain.DriverDescription) (*http.Response, domain.SubmissionResult) {
	body, err := json.Marshal(desc)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/v1/submissions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result domain.SubmissionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp, result
}

func validDescription() domain.DriverDescription {
	return domain.DriverDescription{
		AppName:  "wordcount",
		Command:  domain.Command{Main: "/bin/wordcount"},
		MemoryMB: 512,
		Cores:    1,
	}
}

func TestSubmitEndpoint(t *testing.T) {
	ts, scheduler := makeTestServer(t)

	resp, result := postSubmission(t, ts, validDescription())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.SubmissionID)

	queued := scheduler.QueuedDrivers()
	require.Len(t, queued, 1)
	assert.Equal(t, result.SubmissionID, queued[0].ID)
}

func TestSubmitEndpointRejectsInvalidDescription(t *testing.T) {
	ts, scheduler := makeTestServer(t)

	desc := validDescription()
	desc.MemoryMB = 0
	resp, result := postSubmission(t, ts, desc)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, result.Success)
	assert.Empty(t, scheduler.QueuedDrivers())
}

func TestSubmitEndpointRejectsMalformedBody(t *testing.T) {
	ts, _ := makeTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/submissions", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestKillEndpoint(t *testing.T) {
	ts, scheduler := makeTestServer(t)
	_, submitted := postSubmission(t, ts, validDescription())

	resp, err := http.Post(ts.URL+"/api/v1/submissions/"+submitted.SubmissionID+"/kill", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result domain.KillResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, result.Success)
	assert.Empty(t, scheduler.QueuedDrivers())
}

func TestKillEndpointUnknownDriver(t *testing.T) {
	ts, _ := makeTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/submissions/driver-nope-0-0000/kill", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result domain.KillResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, result.Success)
}

func TestKillEndpointMalformedPath(t *testing.T) {
	ts, _ := makeTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/submissions/driver-x-0-0000/restart", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	ts, _ := makeTestServer(t)
	_, first := postSubmission(t, ts, validDescription())
	_, second := postSubmission(t, ts, validDescription())

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var state server.SchedulerState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	require.Len(t, state.Queued, 2)
	assert.Equal(t, first.SubmissionID, state.Queued[0].ID)
	assert.Equal(t, second.SubmissionID, state.Queued[1].ID)
}

func TestStatusEndpointRejectsPost(t *testing.T) {
	ts, _ := makeTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/status", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := makeTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
