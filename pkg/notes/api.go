package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nao1215/notor/pkg/credential"
	"github.com/nao1215/notor/pkg/httpclient"
	"github.com/nao1215/notor/pkg/outcome"
	"github.com/nao1215/notor/pkg/session"
)

// HomePath はログイン成功後に遷移するパス。
const HomePath = "/web"

// ErrEmptyToken はログインに成功したがトークンが空だった場合に返される。
var ErrEmptyToken = errors.New("ログインレスポンスのトークンが空です")

// API はノートAPIの各操作を提供する。
type API struct {
	// client はリクエストを発行するゲートウェイ。
	client *httpclient.Client
	// credentialTTL はログイン成功時に保存するトークンの有効期間。
	credentialTTL time.Duration
}

// Option は API の生成オプション。
type Option func(*API)

// WithCredentialTTL はログイン成功時のトークンの有効期間を変更する。
func WithCredentialTTL(ttl time.Duration) Option {
	return func(a *API) {
		a.credentialTTL = ttl
	}
}

// New は新しい API を生成する。
func New(client *httpclient.Client, opts ...Option) *API {
	a := &API{client: client, credentialTTL: credential.DefaultTTL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SubmitNote はノートを新規作成する（PUT /notes）。
func (a *API) SubmitNote(ctx context.Context, sess *session.Session, n Note) (outcome.Outcome, error) {
	return a.resolve(ctx, sess, http.MethodPut, "/notes", n, httpclient.JSON())
}

// UpdateNote はノートを更新する（POST /notes/{id}）。
func (a *API) UpdateNote(ctx context.Context, sess *session.Session, id int, n Note) (outcome.Outcome, error) {
	return a.resolve(ctx, sess, http.MethodPost, notePath(id), n, httpclient.JSON())
}

// DeleteNote はノートを削除する（DELETE /notes/{id}）。
func (a *API) DeleteNote(ctx context.Context, sess *session.Session, id int) (outcome.Outcome, error) {
	return a.resolve(ctx, sess, http.MethodDelete, notePath(id), nil)
}

// TagNote はノートにタグを付ける（POST /notes/{id}/tags/{tag}）。ボディは送らない。
func (a *API) TagNote(ctx context.Context, sess *session.Session, id int, tag string) (outcome.Outcome, error) {
	return a.resolve(ctx, sess, http.MethodPost, notePath(id)+"/tags/"+url.PathEscape(tag), nil)
}

// UntagNote はノートからタグを外す（DELETE /notes/{id}/tags/{tagID}）。
func (a *API) UntagNote(ctx context.Context, sess *session.Session, id, tagID int) (outcome.Outcome, error) {
	return a.resolve(ctx, sess, http.MethodDelete, notePath(id)+"/tags/"+strconv.Itoa(tagID), nil)
}

// Login は認証を行う（POST /auth）。トークンは付与しない。
// 200の場合はレスポンスのトークンを sess に保存して HomePath への遷移を返す。
// それ以外の場合はトークンを保存せず、失敗の結果を返す。
func (a *API) Login(ctx context.Context, sess *session.Session, c Credentials) (outcome.Outcome, error) {
	resp, err := a.client.IssueRequest(ctx, sess, http.MethodPost, "/auth", c, httpclient.JSON(), httpclient.NoAuth())
	if err != nil {
		return outcome.Outcome{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return outcome.Resolve(resp)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome.Outcome{}, fmt.Errorf("ログインレスポンスの読み取りに失敗: %w", err)
	}
	token := tokenFrom(body)
	if token == "" {
		return outcome.Outcome{}, ErrEmptyToken
	}
	if err := sess.Login(token, a.credentialTTL); err != nil {
		return outcome.Outcome{}, err
	}
	return outcome.Navigate(HomePath), nil
}

// Logout はトークンを破棄する。APIへのリクエストは発行しない。
func (a *API) Logout(sess *session.Session) error {
	return sess.Logout()
}

// ListNotes はノートの一覧を取得する（GET /notes）。
func (a *API) ListNotes(ctx context.Context, sess *session.Session) ([]StoredNote, error) {
	var list []StoredNote
	if err := a.getJSON(ctx, sess, "/notes", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Note はノートを1件取得する（GET /notes/{id}）。
func (a *API) Note(ctx context.Context, sess *session.Session, id int) (StoredNote, error) {
	var n StoredNote
	if err := a.getJSON(ctx, sess, notePath(id), &n); err != nil {
		return StoredNote{}, err
	}
	return n, nil
}

// NoteTags はノートに付いたタグの一覧を取得する（GET /notes/{id}/tags）。
func (a *API) NoteTags(ctx context.Context, sess *session.Session, id int) ([]Tag, error) {
	var tags []Tag
	if err := a.getJSON(ctx, sess, notePath(id)+"/tags", &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// resolve はリクエストを発行して結果に変換する共通処理。
func (a *API) resolve(ctx context.Context, sess *session.Session, method, endpoint string, body any, opts ...httpclient.RequestOption) (outcome.Outcome, error) {
	resp, err := a.client.IssueRequest(ctx, sess, method, endpoint, body, opts...)
	if err != nil {
		return outcome.Outcome{}, err
	}
	return outcome.Resolve(resp)
}

// getJSON はGETリクエストを発行し、200であればボディをresultにデシリアライズする。
func (a *API) getJSON(ctx context.Context, sess *session.Session, endpoint string, result any) error {
	resp, err := a.client.IssueRequest(ctx, sess, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		o, err := outcome.Resolve(resp)
		if err != nil {
			return err
		}
		return &APIError{Status: o.Status, Message: o.Message}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
	}
	return nil
}

func notePath(id int) string {
	return "/notes/" + strconv.Itoa(id)
}

// tokenFrom はログインレスポンスのボディからトークンを取り出す。
// JSONオブジェクトであればtokenフィールドを返す。tokenがなければ空文字列になる。
// JSONオブジェクトでなければボディをそのまま使う。
func tokenFrom(body []byte) string {
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		var reply struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(body, &reply); err == nil {
			return reply.Token
		}
	}
	return string(body)
}
