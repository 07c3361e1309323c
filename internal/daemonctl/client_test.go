package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"montage/internal/jobs"
	"montage/internal/params"
	"montage/internal/services"
)

func TestSubmitPostsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/video-jobs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req jobs.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.VideoID != "cli-01" {
			t.Errorf("videoId = %q", req.VideoID)
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"jobId":"abc123","status":"queued","videoId":"cli-01"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	summary, err := client.Submit(context.Background(), jobs.Request{
		VideoID:   "cli-01",
		Parameter: &params.Document{},
		Options:   jobs.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if summary.JobID != "abc123" {
		t.Fatalf("jobId = %q", summary.JobID)
	}
}

func TestJobNotFoundMatchesSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"job not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Job(context.Background(), "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestJobsPassesStatusFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "failed" {
			t.Errorf("status filter = %q", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	summaries, err := client.Jobs(context.Background(), "failed")
	if err != nil {
		t.Fatalf("Jobs returned error: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("summaries = %+v", summaries)
	}
}
