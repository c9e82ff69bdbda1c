package llm

import "context"

// メッセージのロール
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message はLLMメッセージを表す
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// GenerateRequest はLLM生成リクエスト
type GenerateRequest struct {
	Messages     []Message
	MaxTokens    int
	Temperature  *float64 // nilならプロバイダー既定値
	SystemPrompt string
	JSONOutput   bool // 応答をJSONオブジェクトに限定（対応プロバイダーのみ）
}

// GenerateResponse はLLM生成レスポンス
type GenerateResponse struct {
	Content      string
	TokensUsed   int
	FinishReason string
}

// LLMProvider はLLMプロバイダーの抽象化
type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}

// WithTemperature は温度を設定したリクエストを返す。0も明示値として送られる。
func (r GenerateRequest) WithTemperature(t float64) GenerateRequest {
	r.Temperature = &t
	return r
}

// UserPrompt はユーザーメッセージ1件のリクエストを作成
func UserPrompt(systemPrompt, content string) GenerateRequest {
	return GenerateRequest{
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: RoleUser, Content: content}},
	}
}
