package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/notor/pkg/session"
)

// ErrUnsupportedBody はJSONエンコードを指定せずに io.Reader / []byte / string 以外のボディを渡した場合に返される。
var ErrUnsupportedBody = errors.New("サポートされていないリクエストボディの型です")

// Client はノートAPI用のHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL。
	baseURL string
}

// Option は Client の生成オプション。
type Option func(*Client)

// WithTimeout はリクエスト全体のタイムアウトを設定する。既定ではタイムアウトしない。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient は内部で使用する http.Client を差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New は新しいクライアントを生成する。
// baseURLには接続先APIのベースURL（例: "http://localhost:8000"）を指定する。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL は接続先APIのベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// requestConfig は1回のリクエストの組み立て方。
type requestConfig struct {
	json        bool
	auth        bool
	contentType string
}

// RequestOption は IssueRequest のオプション。
type RequestOption func(*requestConfig)

// JSON はボディをJSONにシリアライズし、Content-Type: application/json を付与する。
func JSON() RequestOption {
	return func(rc *requestConfig) {
		rc.json = true
	}
}

// NoAuth はBearerトークンを付与しない。ログインなど認証前のリクエストで使う。
func NoAuth() RequestOption {
	return func(rc *requestConfig) {
		rc.auth = false
	}
}

// ContentType はJSON以外のボディを送るときの Content-Type を指定する。
func ContentType(ct string) RequestOption {
	return func(rc *requestConfig) {
		rc.contentType = ct
	}
}

// IssueRequest はmethodとendpointでリクエストを発行し、レスポンスを未消費のまま返す。
// 呼び出し側はレスポンスボディを閉じる責任を持つ。
//
// 既定では sess のトークンを "Authorization: Bearer <token>" として付与する。
// sess にトークンがない場合、Authorization ヘッダーは送らない。
// bodyがnilの場合はボディなしで送信する。
func (c *Client) IssueRequest(ctx context.Context, sess *session.Session, method, endpoint string, body any, opts ...RequestOption) (*http.Response, error) {
	rc := requestConfig{auth: true}
	for _, opt := range opts {
		opt(&rc)
	}

	bodyReader, err := encodeBody(body, rc.json)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}

	switch {
	case body != nil && rc.json:
		req.Header.Set("Content-Type", "application/json")
	case body != nil && rc.contentType != "":
		req.Header.Set("Content-Type", rc.contentType)
	}

	if rc.auth && sess != nil {
		if token, ok := sess.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	return resp, nil
}

// encodeBody はボディを送信可能な io.Reader に変換する。
func encodeBody(body any, asJSON bool) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	if asJSON {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		return bytes.NewReader(jsonBody), nil
	}

	switch b := body.(type) {
	case io.Reader:
		return b, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedBody, body)
	}
}
