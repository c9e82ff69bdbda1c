package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// CheckFunc は1つの依存先の状態を返す。okがfalseならmsgに理由が入る。
type CheckFunc func() (ok bool, msg string)

// Result は1つのチェック結果
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Report はすべてのチェック結果
type Report struct {
	Status string            `json:"status"`
	Checks map[string]Result `json:"checks,omitempty"`
}

// Checker は名前付きチェックの集合
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker は空のCheckerを作成
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register はチェックを登録する。同名は上書き。
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Run は全チェックを並行に実行する。1つでも失敗すれば status は "degraded"。
func (c *Checker) Run() Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	fns := make([]CheckFunc, len(names))
	sort.Strings(names)
	for i, name := range names {
		fns[i] = c.checks[name]
	}
	c.mu.RUnlock()

	results := make([]Result, len(names))
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func(i int, fn CheckFunc) {
			defer wg.Done()
			ok, msg := fn()
			results[i] = Result{OK: ok, Message: msg}
		}(i, fn)
	}
	wg.Wait()

	report := Report{Status: "ok"}
	if len(names) > 0 {
		report.Checks = make(map[string]Result, len(names))
	}
	for i, name := range names {
		report.Checks[name] = results[i]
		if !results[i].OK {
			report.Status = "degraded"
		}
	}
	return report
}

// OllamaCheck はOllamaサーバーへの到達性を確認する
func OllamaCheck(baseURL string, timeout time.Duration) CheckFunc {
	client := &http.Client{Timeout: timeout}
	return func() (bool, string) {
		resp, err := client.Get(baseURL)
		if err != nil {
			return false, fmt.Sprintf("unreachable: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false, fmt.Sprintf("status %d", resp.StatusCode)
		}
		return true, "ok"
	}
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// OllamaModelCheck はオラクル用モデルがOllamaに取得済みか確認する。
// タグ省略時は ":latest" とみなす。
func OllamaModelCheck(baseURL string, timeout time.Duration, model string) CheckFunc {
	client := &http.Client{Timeout: timeout}
	tagsURL := strings.TrimSuffix(baseURL, "/") + "/api/tags"

	want := model
	if !strings.Contains(want, ":") {
		want += ":latest"
	}

	return func() (bool, string) {
		resp, err := client.Get(tagsURL)
		if err != nil {
			return false, fmt.Sprintf("unreachable: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return false, fmt.Sprintf("status %d", resp.StatusCode)
		}

		var tags ollamaTagsResponse
		if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
			return false, fmt.Sprintf("decode error: %v", err)
		}

		for _, m := range tags.Models {
			if m.Name == want || m.Name == model {
				return true, fmt.Sprintf("model %s available", model)
			}
		}
		return false, fmt.Sprintf("not pulled: %s", model)
	}
}
