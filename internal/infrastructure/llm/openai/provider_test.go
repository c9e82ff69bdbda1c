package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nyukimin/loopwalk/internal/domain/llm"
)

// chatResponse はChat Completions APIの最小レスポンス
func chatResponse(content string, totalTokens int) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1677652288,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     totalTokens / 2,
			"completion_tokens": totalTokens - totalTokens/2,
			"total_tokens":      totalTokens,
		},
	}
}

func TestNewOpenAIProvider(t *testing.T) {
	provider := NewOpenAIProvider("test-api-key", "gpt-4o-mini")

	if provider == nil {
		t.Fatal("NewOpenAIProvider should not return nil")
	}

	if provider.Name() != "openai-gpt-4o-mini" {
		t.Errorf("Expected name 'openai-gpt-4o-mini', got '%s'", provider.Name())
	}
}

func TestNewCompatibleProvider_Name(t *testing.T) {
	provider := NewCompatibleProvider("deepseek", "k", "deepseek-chat", "https://api.deepseek.com/v1/")

	if provider.Name() != "deepseek-deepseek-chat" {
		t.Errorf("Expected name 'deepseek-deepseek-chat', got '%s'", provider.Name())
	}
}

func TestOpenAIProviderGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path '/v1/chat/completions', got '%s'", r.URL.Path)
		}

		// Authorizationヘッダー確認
		auth := r.Header.Get("Authorization")
		if auth != "Bearer test-api-key" {
			t.Errorf("Expected 'Bearer test-api-key', got '%s'", auth)
		}

		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)

		if reqBody["model"] != "gpt-4o-mini" {
			t.Errorf("Expected model 'gpt-4o-mini', got '%v'", reqBody["model"])
		}
		if reqBody["max_tokens"] != float64(300) {
			t.Errorf("Expected max_tokens 300, got '%v'", reqBody["max_tokens"])
		}
		if _, ok := reqBody["response_format"]; ok {
			t.Error("response_format should be omitted when JSON output is not requested")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse("Route 2 passes the lakefront.", 30))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-api-key", "gpt-4o-mini")
	provider.SetBaseURL(server.URL + "/v1/")

	req := llm.GenerateRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Explain the chosen route."},
		},
		MaxTokens: 300,
	}.WithTemperature(0.7)

	resp, err := provider.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Content != "Route 2 passes the lakefront." {
		t.Errorf("Expected response content, got '%s'", resp.Content)
	}

	if resp.TokensUsed != 30 {
		t.Errorf("Expected 30 tokens used, got %d", resp.TokensUsed)
	}

	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish reason 'stop', got '%s'", resp.FinishReason)
	}
}

func TestOpenAIProviderGenerate_SystemPromptAndJSONOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)

		// メッセージリストの先頭がsystemメッセージか確認
		messages, ok := reqBody["messages"].([]interface{})
		if !ok || len(messages) != 2 {
			t.Fatalf("Expected 2 messages, got %v", reqBody["messages"])
		}

		firstMsg := messages[0].(map[string]interface{})
		if firstMsg["role"] != "system" {
			t.Errorf("First message should be system, got '%v'", firstMsg["role"])
		}
		if firstMsg["content"] != "Return JSON only." {
			t.Errorf("Expected system content 'Return JSON only.', got '%v'", firstMsg["content"])
		}

		format, ok := reqBody["response_format"].(map[string]interface{})
		if !ok || format["type"] != "json_object" {
			t.Errorf("Expected response_format json_object, got '%v'", reqBody["response_format"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(`{"cafes":0.9}`, 15))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-api-key", "gpt-4o-mini")
	provider.SetBaseURL(server.URL + "/v1/")

	req := llm.UserPrompt("Return JSON only.", "quiet walk with coffee")
	req.JSONOutput = true

	resp, err := provider.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != `{"cafes":0.9}` {
		t.Errorf("Expected JSON content, got '%s'", resp.Content)
	}
}

func TestOpenAIProviderGenerate_MultipleMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)

		messages, ok := reqBody["messages"].([]interface{})
		if !ok || len(messages) != 3 { // user, assistant, user
			t.Errorf("Expected 3 messages, got %d", len(messages))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse("Multi-turn response", 50))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-api-key", "gpt-4o-mini")
	provider.SetBaseURL(server.URL + "/v1/")

	req := llm.GenerateRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Score these routes."},
			{Role: llm.RoleAssistant, Content: "[]"},
			{Role: llm.RoleUser, Content: "Every route needs a score."},
		},
	}

	if _, err := provider.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate with multiple messages failed: %v", err)
	}
}

func TestOpenAIProviderGenerate_APIError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": "Rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-api-key", "gpt-4o-mini")
	provider.SetBaseURL(server.URL + "/v1/")

	_, err := provider.Generate(context.Background(), llm.UserPrompt("", "test"))
	if err == nil {
		t.Error("Expected error when API returns rate limit error")
	}
	if calls != 1 {
		t.Errorf("Expected a single attempt without retries, got %d", calls)
	}
}

func TestOpenAIProviderGenerate_InvalidAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": "Incorrect API key provided",
				"type":    "invalid_request_error",
			},
		})
	}))
	defer server.Close()

	provider := NewOpenAIProvider("invalid-key", "gpt-4o-mini")
	provider.SetBaseURL(server.URL + "/v1/")

	if _, err := provider.Generate(context.Background(), llm.UserPrompt("", "test")); err == nil {
		t.Error("Expected error for invalid API key")
	}
}
