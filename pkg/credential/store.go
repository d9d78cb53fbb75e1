package credential

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Key はクレデンシャルを保存するCookieのキー。
const Key = "Bearer"

// DefaultTTL はログイン成功時に保存するクレデンシャルの有効期間。
const DefaultTTL = 60 * time.Minute

var (
	// ErrNotFound はクレデンシャルが存在しない、または期限切れの場合に返される。
	ErrNotFound = errors.New("クレデンシャルが見つかりません")
	// ErrInvalidTTL は有効期間が0以下の場合に返される。クレデンシャルは必ず期限を持つ。
	ErrInvalidTTL = errors.New("クレデンシャルの有効期間は正の値でなければなりません")
)

// Store はクレデンシャルの保存先を表す。
type Store interface {
	// Set はトークンを有効期間ttlで保存する。既存の値は上書きされる。
	Set(value string, ttl time.Duration) error
	// Get は保存されているトークンを返す。存在しない場合は ErrNotFound を返す。
	Get() (string, error)
	// Clear は保存されているトークンを削除する。
	Clear() error
}

// NewCookie はクレデンシャルをブラウザに保存させるための Set-Cookie 用Cookieを生成する。
// パスは "/"、寿命は相対的な Max-Age で指定する。1秒未満の端数は切り上げる。
// ttlが0以下の場合は Max-Age を負にし、ブラウザのCookieを削除させる。
// HttpOnly と Secure は呼び出し側が必要に応じて設定する。
func NewCookie(value string, ttl time.Duration) *http.Cookie {
	maxAge := -1
	if ttl > 0 {
		maxAge = int((ttl + time.Second - 1) / time.Second)
	}
	return &http.Cookie{
		Name:   Key,
		Value:  value,
		Path:   "/",
		MaxAge: maxAge,
	}
}

func checkTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTTL, ttl)
	}
	return nil
}

// ExpiryOf はトークンがJWTであればその exp クレームを返す。
// 署名は検証しない。表示用途に限って使用すること。
func ExpiryOf(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
