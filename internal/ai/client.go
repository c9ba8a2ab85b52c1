// Package ai is the client for the match-scoring collaborator, an
// OpenAI-compatible chat completions endpoint. Its failures never propagate
// into the pipeline: scoring degrades to skip-without-penalty and greeting
// generation to a static template, both decided by the caller.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yunhdeng/job-bot/internal/model"
)

// Analysis is the scoring collaborator's verdict on a posting.
type Analysis struct {
	MatchScore  int      `json:"match_score"`
	Advantages  []string `json:"advantages"`
	Suggestions []string `json:"suggestions"`
}

// Client talks to one chat-completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	profile string // the user's self-introduction, embedded in every prompt
	client  *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, apiKey, modelName, profile string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   modelName,
		profile: profile,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.Named("ai"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) chat(ctx context.Context, system, prompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Score asks the collaborator how well the posting matches the user's
// profile, on a 0-100 scale.
func (c *Client) Score(ctx context.Context, p model.Posting) (Analysis, error) {
	prompt := fmt.Sprintf(`请分析这个职位与求职者的匹配程度：

职位：%s
公司：%s（规模：%s）
城市：%s
薪资：%d-%dk
经验要求：%s
学历要求：%s
技能标签：%s
职位描述：%s

求职者背景：
%s

请以JSON格式返回 {"match_score": 0-100, "advantages": [...], "suggestions": [...]}。`,
		p.Title, p.CompanyName, p.CompanySize, p.City,
		p.SalaryMin, p.SalaryMax, p.WorkYears, p.Education,
		strings.Join(p.Tags, ", "), p.Description, c.profile)

	raw, err := c.chat(ctx, "你是一位专业的HR顾问。", prompt)
	if err != nil {
		return Analysis{}, err
	}

	var a Analysis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &a); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	return a, nil
}

// Greeting generates a personalised opening message for the posting.
func (c *Client) Greeting(ctx context.Context, p model.Posting) (string, error) {
	prompt := fmt.Sprintf(`请基于以下信息生成一段50-100字的专业打招呼语：

职位：%s
公司：%s
城市：%s
技能标签：%s

我的背景：
%s

要求：突出匹配点，语气专业友好，不要模板化。`,
		p.Title, p.CompanyName, p.City, strings.Join(p.Tags, ", "), c.profile)

	raw, err := c.chat(ctx, "你是一位专业的求职顾问。", prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// extractJSON strips markdown code fences some models wrap around JSON.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return s
}
