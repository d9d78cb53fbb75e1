// Package session はリクエスト発行時に渡す認証コンテキストを提供する。
//
// Session はアプリケーション起動時（Webフロントではリクエストごと）に一度だけ
// クレデンシャルストアから読み込まれ、以後は Login と Logout によってのみ更新される。
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/notor/pkg/credential"
)

// Session は現在のクレデンシャルを保持する認証コンテキスト。
// 複数のゴルーチンから同時に使用できる。
type Session struct {
	mu sync.RWMutex
	// store はクレデンシャルの永続化先。nilの場合はメモリ上のみで保持する。
	store credential.Store
	// token は現在のBearerトークン。空文字列は未認証を表す。
	token string
	// expiresAt はトークンの失効時刻。ゼロ値は不明（ストアの管理に委ねる）を表す。
	expiresAt time.Time
	now       func() time.Time
}

// Option は Session の生成オプション。
type Option func(*Session)

// WithClock は失効判定に使う現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Load はストアからクレデンシャルを読み込んで Session を生成する。
// クレデンシャルが存在しない場合は未認証の Session を返す。
func Load(store credential.Store, opts ...Option) (*Session, error) {
	s := newSession(store, opts...)
	if store == nil {
		return s, nil
	}

	token, err := store.Get()
	if errors.Is(err, credential.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("クレデンシャルの読み込みに失敗: %w", err)
	}
	s.token = token
	if exp, ok := credential.ExpiryOf(token); ok {
		s.expiresAt = exp
	}
	return s, nil
}

// Anonymous はストアを持たない未認証の Session を返す。
func Anonymous(opts ...Option) *Session {
	return newSession(nil, opts...)
}

func newSession(store credential.Store, opts ...Option) *Session {
	s := &Session{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token は有効なトークンを返す。未認証または失効済みの場合はfalseを返す。
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", false
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

// Login はトークンを有効期間ttlで保存し、以後のリクエストで使用する。
func (s *Session) Login(token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Set(token, ttl); err != nil {
			return fmt.Errorf("クレデンシャルの保存に失敗: %w", err)
		}
	}
	s.token = token
	s.expiresAt = s.now().Add(ttl)
	return nil
}

// Logout はトークンを破棄する。
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			return fmt.Errorf("クレデンシャルの削除に失敗: %w", err)
		}
	}
	s.token = ""
	s.expiresAt = time.Time{}
	return nil
}
