package notes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/notor/pkg/credential"
	"github.com/nao1215/notor/pkg/httpclient"
	"github.com/nao1215/notor/pkg/outcome"
	"github.com/nao1215/notor/pkg/session"
)

// recordedRequest はテスト用バックエンドが受け取ったリクエスト。
type recordedRequest struct {
	Method        string
	Path          string
	Body          string
	Authorization string
	ContentType   string
}

// fakeBackend は固定の応答を返し、受け取ったリクエストを記録するテスト用バックエンド。
type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.requests = append(b.requests, recordedRequest{
		Method:        r.Method,
		Path:          r.URL.EscapedPath(),
		Body:          string(body),
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
	})
	b.mu.Unlock()

	w.WriteHeader(b.status)
	_, _ = io.WriteString(w, b.body)
}

func (b *fakeBackend) only(t *testing.T) recordedRequest {
	t.Helper()

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) != 1 {
		t.Fatalf("リクエスト数 = %d, want 1", len(b.requests))
	}
	return b.requests[0]
}

// newTestAPI はテスト用バックエンドに接続する API を生成する。
func newTestAPI(t *testing.T, status int, body string) (*API, *fakeBackend) {
	t.Helper()

	backend := &fakeBackend{status: status, body: body}
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)
	return New(httpclient.New(ts.URL)), backend
}

// newLoggedInSession はトークン "tok" を持つ Session を返す。
func newLoggedInSession(t *testing.T) *session.Session {
	t.Helper()

	s := session.Anonymous()
	if err := s.Login("tok", time.Hour); err != nil {
		t.Fatalf("Login()でエラーが発生: %v", err)
	}
	return s
}

// TestSubmitNote はノート作成リクエストを検証する。
func TestSubmitNote(t *testing.T) {
	t.Parallel()

	t.Run("PUT /notes にJSONボディを1回だけ送ること", func(t *testing.T) {
		t.Parallel()

		api, backend := newTestAPI(t, http.StatusOK, "{}")
		got, err := api.SubmitNote(context.Background(), newLoggedInSession(t), Note{Title: "A", Content: "B"})
		if err != nil {
			t.Fatalf("SubmitNote()でエラーが発生: %v", err)
		}
		if got.Kind != outcome.KindReload {
			t.Errorf("Kind = %v, want %v", got.Kind, outcome.KindReload)
		}

		req := backend.only(t)
		if req.Method != http.MethodPut || req.Path != "/notes" {
			t.Errorf("request = %s %s, want PUT /notes", req.Method, req.Path)
		}
		if req.Body != `{"title":"A","content":"B"}` {
			t.Errorf("Body = %s", req.Body)
		}
		if req.ContentType != "application/json" {
			t.Errorf("Content-Type = %q", req.ContentType)
		}
		if req.Authorization != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", req.Authorization, "Bearer tok")
		}
	})

	t.Run("失敗時はメッセージを返すこと", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t, http.StatusForbidden, `{"message":"no authentication header was provided"}`)
		got, err := api.SubmitNote(context.Background(), session.Anonymous(), Note{Title: "A"})
		if err != nil {
			t.Fatalf("SubmitNote()でエラーが発生: %v", err)
		}
		if got.Kind != outcome.KindFailure || got.Message != "no authentication header was provided" {
			t.Errorf("got = %+v", got)
		}
	})
}

// TestNoteOperations はノートの削除・更新・タグ操作のリクエストを検証する。
func TestNoteOperations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		call       func(*API, *session.Session) (outcome.Outcome, error)
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{
			name: "DeleteNoteはボディなしでDELETEすること",
			call: func(a *API, s *session.Session) (outcome.Outcome, error) {
				return a.DeleteNote(context.Background(), s, 7)
			},
			wantMethod: http.MethodDelete,
			wantPath:   "/notes/7",
		},
		{
			name: "TagNoteはボディなしでPOSTすること",
			call: func(a *API, s *session.Session) (outcome.Outcome, error) {
				return a.TagNote(context.Background(), s, 42, "foo")
			},
			wantMethod: http.MethodPost,
			wantPath:   "/notes/42/tags/foo",
		},
		{
			name: "TagNoteはタグをパスエスケープすること",
			call: func(a *API, s *session.Session) (outcome.Outcome, error) {
				return a.TagNote(context.Background(), s, 1, "a b/c")
			},
			wantMethod: http.MethodPost,
			wantPath:   "/notes/1/tags/a%20b%2Fc",
		},
		{
			name: "UpdateNoteはJSONボディでPOSTすること",
			call: func(a *API, s *session.Session) (outcome.Outcome, error) {
				return a.UpdateNote(context.Background(), s, 3, Note{Title: "T", Content: "C"})
			},
			wantMethod: http.MethodPost,
			wantPath:   "/notes/3",
			wantBody:   `{"title":"T","content":"C"}`,
		},
		{
			name: "UntagNoteはタグIDでDELETEすること",
			call: func(a *API, s *session.Session) (outcome.Outcome, error) {
				return a.UntagNote(context.Background(), s, 3, 9)
			},
			wantMethod: http.MethodDelete,
			wantPath:   "/notes/3/tags/9",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			api, backend := newTestAPI(t, http.StatusOK, "")
			got, err := tc.call(api, newLoggedInSession(t))
			if err != nil {
				t.Fatalf("エラーが発生: %v", err)
			}
			if got.Kind != outcome.KindReload {
				t.Errorf("Kind = %v, want %v", got.Kind, outcome.KindReload)
			}

			req := backend.only(t)
			if req.Method != tc.wantMethod || req.Path != tc.wantPath {
				t.Errorf("request = %s %s, want %s %s", req.Method, req.Path, tc.wantMethod, tc.wantPath)
			}
			if req.Body != tc.wantBody {
				t.Errorf("Body = %q, want %q", req.Body, tc.wantBody)
			}
			if req.Authorization != "Bearer tok" {
				t.Errorf("Authorization = %q", req.Authorization)
			}
		})
	}
}

// TestLogin はログインとトークン保存を検証する。
func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("200の場合はトークンをそのまま保存してホームへ遷移すること", func(t *testing.T) {
		t.Parallel()

		api, backend := newTestAPI(t, http.StatusOK, "raw.token.text")
		jar := credential.NewJar()
		sess, _ := session.Load(jar)

		got, err := api.Login(context.Background(), sess, Credentials{Username: "alice", Pass: "secret"})
		if err != nil {
			t.Fatalf("Login()でエラーが発生: %v", err)
		}
		if got.Kind != outcome.KindNavigate || got.Location != HomePath {
			t.Errorf("got = %+v, want navigate to %s", got, HomePath)
		}
		if stored, _ := jar.Get(); stored != "raw.token.text" {
			t.Errorf("保存されたトークン = %q, want %q", stored, "raw.token.text")
		}

		req := backend.only(t)
		if req.Method != http.MethodPost || req.Path != "/auth" {
			t.Errorf("request = %s %s, want POST /auth", req.Method, req.Path)
		}
		var sent Credentials
		if err := json.Unmarshal([]byte(req.Body), &sent); err != nil {
			t.Fatalf("リクエストボディのパースに失敗: %v", err)
		}
		if sent != (Credentials{Username: "alice", Pass: "secret"}) {
			t.Errorf("sent = %+v", sent)
		}
		if req.Authorization != "" {
			t.Errorf("ログインでAuthorizationが送られた: %q", req.Authorization)
		}
	})

	t.Run("token形式のJSONであればtokenフィールドを保存すること", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t, http.StatusOK, `{"token":"jwt.value"}`)
		sess := session.Anonymous()
		if _, err := api.Login(context.Background(), sess, Credentials{}); err != nil {
			t.Fatalf("Login()でエラーが発生: %v", err)
		}
		if got, _ := sess.Token(); got != "jwt.value" {
			t.Errorf("Token() = %q, want %q", got, "jwt.value")
		}
	})

	t.Run("200以外の場合はトークンを保存せず遷移もしないこと", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t, http.StatusForbidden, `{"message":"provided password was invalid"}`)
		jar := credential.NewJar()
		sess, _ := session.Load(jar)

		got, err := api.Login(context.Background(), sess, Credentials{Username: "alice", Pass: "wrong"})
		if err != nil {
			t.Fatalf("Login()でエラーが発生: %v", err)
		}
		if got.Kind != outcome.KindFailure || got.Message != "provided password was invalid" {
			t.Errorf("got = %+v", got)
		}
		if _, err := jar.Get(); !errors.Is(err, credential.ErrNotFound) {
			t.Errorf("トークンが保存された: err = %v", err)
		}
		if _, ok := sess.Token(); ok {
			t.Error("Sessionにトークンが設定された")
		}
	})

	t.Run("空のトークンはErrEmptyTokenを返すこと", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t, http.StatusOK, "")
		if _, err := api.Login(context.Background(), session.Anonymous(), Credentials{}); !errors.Is(err, ErrEmptyToken) {
			t.Errorf("error = %v, want ErrEmptyToken", err)
		}
	})

	t.Run("tokenが空またはないJSONオブジェクトはErrEmptyTokenを返しトークンを保存しないこと", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{`{"token":""}`, `{}`, ` {"user":"alice"}`} {
			api, _ := newTestAPI(t, http.StatusOK, body)
			jar := credential.NewJar()
			sess, err := session.Load(jar)
			if err != nil {
				t.Fatalf("Load()でエラーが発生: %v", err)
			}

			got, err := api.Login(context.Background(), sess, Credentials{})
			if !errors.Is(err, ErrEmptyToken) {
				t.Errorf("body=%s: error = %v, want ErrEmptyToken", body, err)
			}
			if got.Kind == outcome.KindNavigate {
				t.Errorf("body=%s: 遷移が返された", body)
			}
			if v, err := jar.Get(); !errors.Is(err, credential.ErrNotFound) {
				t.Errorf("body=%s: トークンが保存された: %q", body, v)
			}
		}
	})

	t.Run("WithCredentialTTLで有効期間を変更できること", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{status: http.StatusOK, body: "tok"}
		ts := httptest.NewServer(backend)
		t.Cleanup(ts.Close)
		api := New(httpclient.New(ts.URL), WithCredentialTTL(time.Minute))

		clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		sess := session.Anonymous(session.WithClock(func() time.Time { return clock }))
		if _, err := api.Login(context.Background(), sess, Credentials{}); err != nil {
			t.Fatalf("Login()でエラーが発生: %v", err)
		}
		clock = clock.Add(time.Minute)
		if _, ok := sess.Token(); ok {
			t.Error("有効期間を過ぎてもトークンが有効")
		}
	})
}

// TestLogout はログアウトを検証する。
func TestLogout(t *testing.T) {
	t.Parallel()

	api, backend := newTestAPI(t, http.StatusOK, "")
	sess := newLoggedInSession(t)
	if err := api.Logout(sess); err != nil {
		t.Fatalf("Logout()でエラーが発生: %v", err)
	}
	if _, ok := sess.Token(); ok {
		t.Error("Logout後もトークンが有効")
	}
	if len(backend.requests) != 0 {
		t.Errorf("リクエスト数 = %d, want 0", len(backend.requests))
	}
}

// TestListNotes は一覧取得を検証する。
func TestListNotes(t *testing.T) {
	t.Parallel()

	t.Run("200の場合はノート一覧を返すこと", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t, http.StatusOK,
			`[{"id":1,"user_id":2,"created":"2021-03-01T10:00:00","title":"first","content":"body"},`+
				`{"id":2,"user_id":2,"created":"2021-03-02T10:00:00","title":"second","content":null}]`)
		list, err := api.ListNotes(context.Background(), newLoggedInSession(t))
		if err != nil {
			t.Fatalf("ListNotes()でエラーが発生: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("len(list) = %d, want 2", len(list))
		}
		if list[0].Title != "first" || list[0].Content == nil || *list[0].Content != "body" {
			t.Errorf("list[0] = %+v", list[0])
		}
		if list[1].Content != nil {
			t.Errorf("list[1].Content = %v, want nil", *list[1].Content)
		}
	})

	t.Run("失敗の場合はAPIErrorを返すこと", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t, http.StatusForbidden, `{"message":"authentication token expired"}`)
		_, err := api.ListNotes(context.Background(), newLoggedInSession(t))

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want *APIError", err)
		}
		if apiErr.Status != http.StatusForbidden || apiErr.Message != "authentication token expired" {
			t.Errorf("apiErr = %+v", apiErr)
		}
	})
}

// TestNoteTags はノートのタグ一覧取得を検証する。
func TestNoteTags(t *testing.T) {
	t.Parallel()

	api, backend := newTestAPI(t, http.StatusOK, `[{"id":5,"user_id":1,"name":"go"}]`)
	tags, err := api.NoteTags(context.Background(), newLoggedInSession(t), 4)
	if err != nil {
		t.Fatalf("NoteTags()でエラーが発生: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "go" {
		t.Errorf("tags = %+v", tags)
	}
	if req := backend.only(t); req.Path != "/notes/4/tags" {
		t.Errorf("Path = %q, want %q", req.Path, "/notes/4/tags")
	}
}

// TestNote はノート1件の取得を検証する。
func TestNote(t *testing.T) {
	t.Parallel()

	api, backend := newTestAPI(t, http.StatusOK,
		`{"id":7,"user_id":1,"created":"2021-03-01T10:00:00","title":"memo","content":"x"}`)
	n, err := api.Note(context.Background(), newLoggedInSession(t), 7)
	if err != nil {
		t.Fatalf("Note()でエラーが発生: %v", err)
	}
	if n.ID != 7 || n.Title != "memo" {
		t.Errorf("note = %+v", n)
	}
	req := backend.only(t)
	if req.Method != http.MethodGet || req.Path != "/notes/7" {
		t.Errorf("request = %s %s, want GET /notes/7", req.Method, req.Path)
	}
	if req.Authorization != "Bearer tok" {
		t.Errorf("Authorization = %q, want %q", req.Authorization, "Bearer tok")
	}
}
