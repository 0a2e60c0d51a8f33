package schedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nicopkrauss/Talenttracker2-sub022/config"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

// ── 排期/指派服务的调用端 SDK ──
// 面向其他内部服务：统一鉴权、超时、重试与错误翻译。
// 只有 5xx / 429 / 网络错误会重试；业务校验类错误原样返回。

const (
	defaultTimeout     = 10 * time.Second
	maxErrorBodyLength = 4096
)

// Client 指派服务 HTTP 客户端
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	policy     RetryPolicy
}

// Option 客户端可选配置
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client（测试用）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout 设置单次调用超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetryPolicy 替换默认重试策略
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// New 创建客户端；token 为调用方的 Bearer 凭证
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
	}
	c.policy = DefaultRetryPolicy(isRetryable)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig 按应用配置创建客户端。
// 未设置的超时与退避参数回落到内置默认；MaxRetries 为 0 表示不重试。
func NewFromConfig(baseURL, token string, cfg *config.ClientConfig, opts ...Option) *Client {
	base := cfg.BackoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}
	limit := cfg.BackoffLimit
	if limit <= 0 {
		limit = defaultBackoffLimit
	}
	all := []Option{WithRetryPolicy(RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Backoff:    ExponentialBackoff(base, limit),
		Retryable:  isRetryable,
	})}
	if cfg.Timeout > 0 {
		all = append(all, WithTimeout(cfg.Timeout))
	}
	return New(baseURL, token, append(all, opts...)...)
}

// httpError 传输层错误：仅在客户端内部流转，出口前翻译为 *pkgerrors.Error
type httpError struct {
	status int
	code   pkgerrors.Code
	msg    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: [%s] %s", e.status, e.code, e.msg)
}

// isRetryable 5xx 与 429 重试；4xx 业务错误不重试；非 httpError 视为网络错误
func isRetryable(err error) bool {
	he, ok := err.(*httpError)
	if !ok {
		return true
	}
	return he.status >= 500 || he.status == http.StatusTooManyRequests
}

// envelope 服务端统一响应结构
type envelope struct {
	Code    pkgerrors.Code  `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Details interface{}     `json:"details,omitempty"`
}

// do 发起一次带重试的调用，成功时把 data 解码进 out（可为 nil）
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return pkgerrors.NewInternalError(err)
		}
	}

	attempts := 0
	err := doWithRetry(ctx, c.policy, func() error {
		attempts++
		return c.doOnce(ctx, method, path, payload, out)
	})
	if err == nil {
		return nil
	}
	return translate(err, attempts)
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil {
		env = envelope{}
	}

	if resp.StatusCode >= 400 {
		he := &httpError{status: resp.StatusCode, code: env.Code, msg: env.Message}
		if he.msg == "" {
			fallback := strings.TrimSpace(string(raw))
			if len(fallback) > maxErrorBodyLength {
				fallback = fallback[:maxErrorBodyLength]
			}
			he.msg = fallback
		}
		return he
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &httpError{status: resp.StatusCode, code: pkgerrors.CodeInternalError,
				msg: "响应数据解析失败: " + err.Error()}
		}
	}
	return nil
}

// translate 出口错误统一翻译为 *pkgerrors.Error
func translate(err error, attempts int) error {
	if he, ok := err.(*httpError); ok {
		if he.code != "" {
			return pkgerrors.FromCode(he.code, he.msg)
		}
		msg := he.msg
		if msg == "" {
			msg = fmt.Sprintf("指派服务返回 %d", he.status)
		}
		if he.status == http.StatusUnauthorized || he.status == http.StatusForbidden {
			return pkgerrors.FromCode(pkgerrors.CodeUnauthorized, msg)
		}
		return pkgerrors.FromCode(pkgerrors.CodeInternalError, msg)
	}
	return pkgerrors.NewNetworkError("指派服务请求失败: "+err.Error(), attempts)
}

// ── 业务操作 ──

// ReplaceDayAssignments 整体替换某项目某日的全部指派
func (c *Client) ReplaceDayAssignments(ctx context.Context, projectID, date string, req *dto.ReplaceDayAssignmentsRequest) (*dto.DayAssignmentsResponse, error) {
	var out dto.DayAssignmentsResponse
	path := fmt.Sprintf("/api/v1/projects/%s/assignments/days/%s", url.PathEscape(projectID), url.PathEscape(date))
	if err := c.do(ctx, http.MethodPut, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearDayAssignments 清空某日全部随行（保留排期）
func (c *Client) ClearDayAssignments(ctx context.Context, projectID, date string) error {
	path := fmt.Sprintf("/api/v1/projects/%s/assignments/days/%s", url.PathEscape(projectID), url.PathEscape(date))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetDayAssignments 查询某日全部指派
func (c *Client) GetDayAssignments(ctx context.Context, projectID, date string) (*dto.DayAssignmentsResponse, error) {
	var out dto.DayAssignmentsResponse
	path := fmt.Sprintf("/api/v1/projects/%s/assignments/days/%s", url.PathEscape(projectID), url.PathEscape(date))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckDayAssignments 只读冲突预检
func (c *Client) CheckDayAssignments(ctx context.Context, projectID, date string, req *dto.ReplaceDayAssignmentsRequest) (*dto.ConflictCheckResult, error) {
	var out dto.ConflictCheckResult
	path := fmt.Sprintf("/api/v1/projects/%s/assignments/days/%s/validate", url.PathEscape(projectID), url.PathEscape(date))
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── 批量操作 ──

// DayAssignments 一次批量提交中单日的指派内容
type DayAssignments struct {
	Date    string
	Request *dto.ReplaceDayAssignmentsRequest
}

// BatchFailure 批量提交中单日的失败记录
type BatchFailure struct {
	Date string
	Err  error
}

// BatchResult 批量提交的逐日结果
type BatchResult struct {
	Successful []string
	Failed     []BatchFailure
}

// BatchReplaceAssignments 逐日顺序提交；单日失败不中断其余日期，
// 调用方取消则立即停止并返回已完成部分
func (c *Client) BatchReplaceAssignments(ctx context.Context, projectID string, days []DayAssignments) (*BatchResult, error) {
	result := &BatchResult{}
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := c.ReplaceDayAssignments(ctx, projectID, day.Date, day.Request); err != nil {
			result.Failed = append(result.Failed, BatchFailure{Date: day.Date, Err: err})
			continue
		}
		result.Successful = append(result.Successful, day.Date)
	}
	return result, nil
}
