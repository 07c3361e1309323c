package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSynthesizeRunsQueryThenSynthesis(t *testing.T) {
	var queryCalls, synthesisCalls int
	var synthesisBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/audio_query":
			queryCalls++
			if got := r.URL.Query().Get("text"); got != "こんにちは" {
				t.Errorf("audio_query text = %q", got)
			}
			if got := r.URL.Query().Get("speaker"); got != "3" {
				t.Errorf("audio_query speaker = %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"speedScale":1.0,"volumeScale":1.0,"accent_phrases":[]}`))
		case "/synthesis":
			synthesisCalls++
			if got := r.URL.Query().Get("speaker"); got != "3" {
				t.Errorf("synthesis speaker = %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&synthesisBody); err != nil {
				t.Errorf("decode synthesis body: %v", err)
			}
			w.Header().Set("Content-Type", "audio/wav")
			w.Write([]byte("RIFFfake-wav"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	audio, err := client.Synthesize(context.Background(), "こんにちは", 3, map[string]any{
		"speedScale": 1.2,
		"notAKey":    "dropped",
	})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if !bytes.Equal(audio, []byte("RIFFfake-wav")) {
		t.Fatalf("unexpected audio payload: %q", audio)
	}
	if queryCalls != 1 || synthesisCalls != 1 {
		t.Fatalf("call counts: query=%d synthesis=%d", queryCalls, synthesisCalls)
	}
	if got := synthesisBody["speedScale"]; got != 1.2 {
		t.Fatalf("speedScale override not applied: %v", got)
	}
	if _, ok := synthesisBody["notAKey"]; ok {
		t.Fatalf("unrecognized setting leaked into query")
	}
	if _, ok := synthesisBody["accent_phrases"]; !ok {
		t.Fatalf("query document fields lost before synthesis")
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	client := NewClient("http://127.0.0.1:0")
	if _, err := client.Synthesize(context.Background(), "   ", 1, nil); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestSynthesizeSurfacesEngineErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid speaker", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Synthesize(context.Background(), "テスト", 999, nil); err == nil {
		t.Fatal("expected error for engine failure")
	}
}
