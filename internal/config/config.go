// Package config は環境変数から各コマンドの設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Web はWebフロントサーバーの設定。
type Web struct {
	// Port はリッスンポート。
	Port string `env:"PORT" envDefault:"8080"`
	// APIURL はノートAPIのベースURL。
	APIURL string `env:"NOTOR_API_URL" envDefault:"http://localhost:8000"`
	// FrontendURL はCORSで許可するオリジン。
	FrontendURL string `env:"NOTOR_FRONTEND_URL" envDefault:"http://localhost:8080"`
	// CookieSecure はクレデンシャルCookieにSecure属性を付けるかどうか。
	CookieSecure bool `env:"NOTOR_COOKIE_SECURE" envDefault:"false"`
	// CookieHTTPOnly はクレデンシャルCookieにHttpOnly属性を付けるかどうか。
	CookieHTTPOnly bool `env:"NOTOR_COOKIE_HTTPONLY" envDefault:"false"`
	// CredentialTTL はログイン成功時のクレデンシャルの有効期間。
	CredentialTTL time.Duration `env:"NOTOR_CREDENTIAL_TTL" envDefault:"60m"`
	// RequestTimeout はAPIリクエストのタイムアウト。0はタイムアウトなし。
	RequestTimeout time.Duration `env:"NOTOR_REQUEST_TIMEOUT" envDefault:"0s"`
}

// DevAPI は開発用ノートAPIの設定。
type DevAPI struct {
	// Port はリッスンポート。
	Port string `env:"PORT" envDefault:"8000"`
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-key"`
	// DSN はSQLiteの接続文字列。
	DSN string `env:"NOTOR_DEVAPI_DSN" envDefault:"file::memory:"`
	// Users は "ユーザー名:パスワード" 形式の初期ユーザー。
	Users []string `env:"NOTOR_DEVAPI_USERS" envSeparator:"," envDefault:"admin:admin"`
	// TokenTTL は発行するトークンの有効期間。
	TokenTTL time.Duration `env:"NOTOR_DEVAPI_TOKEN_TTL" envDefault:"60m"`
}

// CLI はコマンドラインクライアントの設定。
type CLI struct {
	// APIURL はノートAPIのベースURL。
	APIURL string `env:"NOTOR_API_URL" envDefault:"http://localhost:8000"`
	// CredentialDB はクレデンシャルを保存するSQLiteファイルのパス。空の場合は DefaultCredentialDB を使う。
	CredentialDB string `env:"NOTOR_CREDENTIAL_DB"`
	// CredentialTTL はログイン成功時のクレデンシャルの有効期間。
	CredentialTTL time.Duration `env:"NOTOR_CREDENTIAL_TTL" envDefault:"60m"`
}

// ErrInvalidCredentialTTL は NOTOR_CREDENTIAL_TTL が0以下の場合に返される。
var ErrInvalidCredentialTTL = errors.New("NOTOR_CREDENTIAL_TTL は正の値でなければなりません")

// Parse は環境変数を読み込んでtargetに設定する。
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return nil
}

// LoadWeb はWebフロントサーバーの設定を読み込む。
func LoadWeb() (Web, error) {
	var c Web
	if err := Parse(&c); err != nil {
		return Web{}, err
	}
	if err := checkCredentialTTL(c.CredentialTTL); err != nil {
		return Web{}, err
	}
	return c, nil
}

// LoadDevAPI は開発用ノートAPIの設定を読み込む。
func LoadDevAPI() (DevAPI, error) {
	var c DevAPI
	if err := Parse(&c); err != nil {
		return DevAPI{}, err
	}
	return c, nil
}

// LoadCLI はコマンドラインクライアントの設定を読み込む。
func LoadCLI() (CLI, error) {
	var c CLI
	if err := Parse(&c); err != nil {
		return CLI{}, err
	}
	if err := checkCredentialTTL(c.CredentialTTL); err != nil {
		return CLI{}, err
	}
	if c.CredentialDB == "" {
		path, err := DefaultCredentialDB()
		if err != nil {
			return CLI{}, err
		}
		c.CredentialDB = path
	}
	return c, nil
}

// DefaultCredentialDB はホームディレクトリ配下の既定のクレデンシャル保存先を返す。
func DefaultCredentialDB() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("ホームディレクトリの取得に失敗: %w", err)
	}
	return filepath.Join(home, ".notor", "credential.db"), nil
}

func checkCredentialTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCredentialTTL, ttl)
	}
	return nil
}
