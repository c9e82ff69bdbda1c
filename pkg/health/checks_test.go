package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOllamaCheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checkFn := OllamaCheck(server.URL, 5*time.Second)
	ok, msg := checkFn()

	if !ok {
		t.Errorf("Expected ok=true, got ok=false with message: %s", msg)
	}
	if msg != "ok" {
		t.Errorf("Expected msg='ok', got msg='%s'", msg)
	}
}

func TestOllamaCheck_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	checkFn := OllamaCheck(url, 1*time.Second)
	ok, msg := checkFn()

	if ok {
		t.Error("Expected ok=false for unreachable server, got ok=true")
	}
	if !strings.Contains(msg, "unreachable") {
		t.Errorf("Expected message to contain 'unreachable', got: %s", msg)
	}
}

func TestOllamaCheck_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checkFn := OllamaCheck(server.URL, 5*time.Second)
	ok, msg := checkFn()

	if ok {
		t.Error("Expected ok=false for 500 status, got ok=true")
	}
	if !strings.Contains(msg, "status 500") {
		t.Errorf("Expected message to contain 'status 500', got: %s", msg)
	}
}

func tagsServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("Expected path /api/tags, got: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestOllamaModelCheck_Available(t *testing.T) {
	server := tagsServer(t, `{"models":[{"name":"llama3.1:latest"},{"name":"qwen2.5:7b"}]}`)
	defer server.Close()

	tests := []string{"llama3.1", "llama3.1:latest", "qwen2.5:7b"}
	for _, model := range tests {
		ok, msg := OllamaModelCheck(server.URL, 5*time.Second, model)()
		if !ok {
			t.Errorf("Expected %s to be available, got: %s", model, msg)
		}
	}
}

func TestOllamaModelCheck_Missing(t *testing.T) {
	server := tagsServer(t, `{"models":[{"name":"llama3.1:latest"}]}`)
	defer server.Close()

	ok, msg := OllamaModelCheck(server.URL+"/", 5*time.Second, "qwen2.5")()

	if ok {
		t.Error("Expected ok=false for missing model")
	}
	if !strings.Contains(msg, "not pulled: qwen2.5") {
		t.Errorf("Expected message to name the missing model, got: %s", msg)
	}
}

func TestOllamaModelCheck_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"models":[{"name":"llama3.1:latest"}]}`))
	}))
	defer server.Close()

	ok, msg := OllamaModelCheck(server.URL, 5*time.Second, "llama3.1")()

	if ok {
		t.Error("Expected ok=false for 404 status, got ok=true")
	}
	if !strings.Contains(msg, "status 404") {
		t.Errorf("Expected message to contain 'status 404', got: %s", msg)
	}
}

func TestOllamaModelCheck_DecodeError(t *testing.T) {
	server := tagsServer(t, `not json`)
	defer server.Close()

	ok, msg := OllamaModelCheck(server.URL, 5*time.Second, "llama3.1")()

	if ok {
		t.Error("Expected ok=false for invalid response")
	}
	if !strings.Contains(msg, "decode error") {
		t.Errorf("Expected decode error, got: %s", msg)
	}
}

func TestChecker_Run(t *testing.T) {
	checker := NewChecker()

	report := checker.Run()
	if report.Status != "ok" || report.Checks != nil {
		t.Errorf("Expected bare ok report without checks, got %+v", report)
	}

	checker.Register("maps", func() (bool, string) { return true, "ok" })
	checker.Register("ollama", func() (bool, string) { return false, "status 503" })

	report = checker.Run()
	if report.Status != "degraded" {
		t.Errorf("Expected status 'degraded', got '%s'", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Fatalf("Expected 2 check results, got %d", len(report.Checks))
	}
	if got := report.Checks["ollama"]; got.OK || got.Message != "status 503" {
		t.Errorf("Unexpected ollama result: %+v", got)
	}
}
