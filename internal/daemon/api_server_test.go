package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"montage/internal/api"
	"montage/internal/jobs"
	"montage/internal/logging"
	"montage/internal/services/render"
	"montage/internal/synthesis"
	"montage/internal/testsupport"
	"montage/internal/workflow"
)

type stubTTS struct{}

func (stubTTS) Synthesize(context.Context, string, int, map[string]any) ([]byte, error) {
	return []byte("RIFFfake"), nil
}

type stubProber struct{}

func (stubProber) Duration(_ context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	return 1.5, nil
}

func startDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t)
	logger := logging.NewNop()
	voice := synthesis.New(cfg, logger, stubTTS{}, stubProber{})
	manager := workflow.NewManager(cfg, logger, store, voice, render.New(cfg, logger))

	d, err := New(cfg, store, logger, manager)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, "http://" + d.Addr()
}

func submitBody(videoID string) []byte {
	return []byte(fmt.Sprintf(`{
		"videoId": %q,
		"parameter": {
			"scenes": [{"startFrame": 0, "text": "つかみ"}],
			"scriptGroups": [{"items": [{"speaker": "left", "text": "こんにちは"}]}]
		},
		"options": {"render": false}
	}`, videoID))
}

func waitTerminal(t *testing.T, base, jobID string) api.JobSummary {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/video-jobs/" + jobID)
		if err != nil {
			t.Fatalf("poll job: %v", err)
		}
		var summary api.JobSummary
		if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
			t.Fatalf("decode summary: %v", err)
		}
		resp.Body.Close()
		if status, ok := jobs.ParseStatus(summary.Status); ok && status.IsTerminal() {
			return summary
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal status")
	return api.JobSummary{}
}

func TestSubmitAndPollJobOverHTTP(t *testing.T) {
	_, base := startDaemon(t)

	resp, err := http.Post(base+"/video-jobs", "application/json", bytes.NewReader(submitBody("http-01")))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	var accepted api.JobSummary
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode accepted job: %v", err)
	}
	if accepted.JobID == "" || accepted.Status != string(jobs.StatusQueued) {
		t.Fatalf("accepted = %+v", accepted)
	}

	final := waitTerminal(t, base, accepted.JobID)
	if final.Status != string(jobs.StatusDone) {
		t.Fatalf("final status = %s, error = %+v", final.Status, final.Error)
	}
	if final.Result == nil || final.Result.ParameterPath == "" {
		t.Fatalf("final result = %+v", final.Result)
	}
}

func TestSubmitConflictReturns409(t *testing.T) {
	d, base := startDaemon(t)

	resp, err := http.Post(base+"/video-jobs", "application/json", bytes.NewReader(submitBody("http-02")))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	resp.Body.Close()
	d.manager.Wait()

	resp, err = http.Post(base+"/video-jobs", "application/json", bytes.NewReader(submitBody("http-02")))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate submit status = %d", resp.StatusCode)
	}
	var body api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Detail == "" {
		t.Fatal("conflict response missing detail")
	}
}

func TestSubmitInvalidRequestReturns400(t *testing.T) {
	_, base := startDaemon(t)

	for _, payload := range []string{
		`{"videoId": "bad/id", "parameter": {}}`,
		`{"videoId": "no-parameter"}`,
		`{not json`,
	} {
		resp, err := http.Post(base+"/video-jobs", "application/json", bytes.NewReader([]byte(payload)))
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %q status = %d, want 400", payload, resp.StatusCode)
		}
	}
}

func TestGetUnknownJobReturns404(t *testing.T) {
	_, base := startDaemon(t)

	resp, err := http.Get(base + "/video-jobs/deadbeef")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListFiltersAndRejectsUnknownStatus(t *testing.T) {
	d, base := startDaemon(t)

	resp, err := http.Post(base+"/video-jobs", "application/json", bytes.NewReader(submitBody("http-03")))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	resp.Body.Close()
	d.manager.Wait()

	resp, err = http.Get(base + "/video-jobs?status=done")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var listed []api.JobSummary
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(listed) != 1 || listed[0].VideoID != "http-03" {
		t.Fatalf("listed = %+v", listed)
	}

	resp, err = http.Get(base + "/video-jobs?status=bogus")
	if err != nil {
		t.Fatalf("list bogus: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus status filter = %d, want 400", resp.StatusCode)
	}
}

func TestHealthAndStatusEndpoints(t *testing.T) {
	_, base := startDaemon(t)

	resp, err := http.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	resp.Body.Close()
	if !health.OK {
		t.Fatal("healthz not ok")
	}

	resp, err = http.Get(base + "/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	resp.Body.Close()
	if !status.Running {
		t.Fatal("status should report running")
	}
	if _, ok := status.JobStats["total"]; !ok {
		t.Fatalf("status missing job stats: %+v", status.JobStats)
	}
}
