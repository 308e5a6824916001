package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dongwon38/print-agent/internal/service/errs"
	"github.com/Dongwon38/print-agent/internal/service/models/printjob"
	"github.com/Dongwon38/print-agent/internal/worker/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	loginErr error
	startErr error
	state    poller.State
	users    []string
}

func (a *fakeAgent) Login(_ context.Context, username, _ string) error {
	a.users = append(a.users, username)
	return a.loginErr
}

func (a *fakeAgent) Logout(context.Context) error { return nil }

func (a *fakeAgent) Start(context.Context) error {
	if a.startErr != nil {
		return a.startErr
	}
	a.state = poller.StateRunning
	return nil
}

func (a *fakeAgent) Stop(context.Context) error {
	a.state = poller.StateStopped
	return nil
}

func (a *fakeAgent) Status() poller.Status {
	return poller.Status{State: a.state, Authenticated: len(a.users) > 0, Interval: "5s"}
}

type fakeJournal struct {
	limit uint64
	jobs  []printjob.Job
}

func (j *fakeJournal) RecentJobs(_ context.Context, limit uint64) ([]printjob.Job, error) {
	j.limit = limit
	return j.jobs, nil
}

func newTransport(a *fakeAgent, j *fakeJournal) *HTTPTransport {
	h := NewHTTPTransport(a, j)
	h.RegisterRoutes()
	return h
}

func serve(h *HTTPTransport, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		loginErr error
		want     int
	}{
		{name: "ok", body: `{"username":"kitchen","password":"pw"}`, want: http.StatusNoContent},
		{name: "malformed", body: `{"username":`, want: http.StatusBadRequest},
		{name: "missing password", body: `{"username":"kitchen"}`, want: http.StatusBadRequest},
		{name: "rejected", body: `{"username":"kitchen","password":"no"}`, loginErr: fmt.Errorf("%w: 401", errs.ErrAuth), want: http.StatusUnauthorized},
		{name: "api down", body: `{"username":"kitchen","password":"pw"}`, loginErr: fmt.Errorf("%w: refused", errs.ErrTransient), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTransport(&fakeAgent{loginErr: tt.loginErr}, &fakeJournal{})
			rec := serve(h, http.MethodPost, "/api/login", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestStartStopStatus(t *testing.T) {
	a := &fakeAgent{startErr: errs.ErrNotAuthenticated, state: poller.StateStopped}
	h := newTransport(a, &fakeJournal{})

	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodPost, "/api/start", "").Code)

	a.startErr = fmt.Errorf("%w: polling stopped on the first poll", errs.ErrAuth)
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodPost, "/api/start", "").Code)

	a.startErr = nil
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "/api/start", "").Code)

	rec := serve(h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "running", st["state"])
	assert.Equal(t, "5s", st["interval"])
	assert.NotContains(t, st, "last_tick")

	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "/api/stop", "").Code)
	assert.Equal(t, poller.StateStopped, a.state)

	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "/api/logout", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, "/api/start", "").Code)
}

func TestJobs(t *testing.T) {
	j := &fakeJournal{}
	h := newTransport(&fakeAgent{}, j)

	rec := serve(h, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, uint64(20), j.limit)

	serve(h, http.MethodGet, "/api/jobs?limit=5000", "")
	assert.Equal(t, uint64(200), j.limit)

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/jobs?limit=zero", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/jobs?limit=0", "").Code)

	j.jobs = []printjob.Job{{OrderID: "42", Status: printjob.StatusPrinted}}
	rec = serve(h, http.MethodGet, "/api/jobs?limit=1", "")
	var jobs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "printed", jobs[0]["status"])
}

func TestSwaggerDoc(t *testing.T) {
	h := newTransport(&fakeAgent{}, &fakeJournal{})

	rec := serve(h, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/login")
	assert.Contains(t, paths, "/api/jobs")
}
