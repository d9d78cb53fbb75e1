package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadWeb はWebフロント設定の読み込みを検証する。
// t.Setenvを使うため並列実行しない。
func TestLoadWeb(t *testing.T) {
	t.Run("未設定の場合は既定値になること", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("NOTOR_API_URL", "")

		c, err := LoadWeb()
		if err != nil {
			t.Fatalf("LoadWeb()でエラーが発生: %v", err)
		}
		if c.Port != "8080" {
			t.Errorf("Port = %q, want %q", c.Port, "8080")
		}
		if c.APIURL != "http://localhost:8000" {
			t.Errorf("APIURL = %q", c.APIURL)
		}
		if c.CredentialTTL != 60*time.Minute {
			t.Errorf("CredentialTTL = %v, want 60m", c.CredentialTTL)
		}
		if c.CookieSecure || c.CookieHTTPOnly {
			t.Error("Cookie属性が既定で有効になっている")
		}
		if c.RequestTimeout != 0 {
			t.Errorf("RequestTimeout = %v, want 0", c.RequestTimeout)
		}
	})

	t.Run("環境変数の値を読み込むこと", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("NOTOR_API_URL", "http://api:8000")
		t.Setenv("NOTOR_COOKIE_SECURE", "true")
		t.Setenv("NOTOR_CREDENTIAL_TTL", "15m")

		c, err := LoadWeb()
		if err != nil {
			t.Fatalf("LoadWeb()でエラーが発生: %v", err)
		}
		if c.Port != "9090" || c.APIURL != "http://api:8000" {
			t.Errorf("c = %+v", c)
		}
		if !c.CookieSecure {
			t.Error("CookieSecureがfalse")
		}
		if c.CredentialTTL != 15*time.Minute {
			t.Errorf("CredentialTTL = %v, want 15m", c.CredentialTTL)
		}
	})

	t.Run("不正な値はエラーを返すこと", func(t *testing.T) {
		t.Setenv("NOTOR_CREDENTIAL_TTL", "forever")

		if _, err := LoadWeb(); err == nil {
			t.Fatal("LoadWeb()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("有効期間が0以下の場合はErrInvalidCredentialTTLを返すこと", func(t *testing.T) {
		for _, v := range []string{"0", "-1m"} {
			t.Setenv("NOTOR_CREDENTIAL_TTL", v)

			if _, err := LoadWeb(); !errors.Is(err, ErrInvalidCredentialTTL) {
				t.Errorf("NOTOR_CREDENTIAL_TTL=%s: error = %v, want ErrInvalidCredentialTTL", v, err)
			}
			if _, err := LoadCLI(); !errors.Is(err, ErrInvalidCredentialTTL) {
				t.Errorf("NOTOR_CREDENTIAL_TTL=%s: error = %v, want ErrInvalidCredentialTTL", v, err)
			}
		}
	})
}

// TestLoadDevAPI は開発用API設定の読み込みを検証する。
func TestLoadDevAPI(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("NOTOR_DEVAPI_USERS", "alice:pw1,bob:pw2")

	c, err := LoadDevAPI()
	if err != nil {
		t.Fatalf("LoadDevAPI()でエラーが発生: %v", err)
	}
	if c.Port != "8000" {
		t.Errorf("Port = %q, want %q", c.Port, "8000")
	}
	if len(c.Users) != 2 || c.Users[1] != "bob:pw2" {
		t.Errorf("Users = %v", c.Users)
	}
	if c.JWTSecret != "dev-secret-key" {
		t.Errorf("JWTSecret = %q", c.JWTSecret)
	}
}

// TestLoadCLI はCLI設定の読み込みを検証する。
func TestLoadCLI(t *testing.T) {
	t.Run("保存先が未設定の場合はホームディレクトリ配下になること", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("NOTOR_CREDENTIAL_DB", "")

		c, err := LoadCLI()
		if err != nil {
			t.Fatalf("LoadCLI()でエラーが発生: %v", err)
		}
		if want := filepath.Join(home, ".notor", "credential.db"); c.CredentialDB != want {
			t.Errorf("CredentialDB = %q, want %q", c.CredentialDB, want)
		}
	})

	t.Run("保存先を環境変数で指定できること", func(t *testing.T) {
		t.Setenv("NOTOR_CREDENTIAL_DB", "/tmp/notor.db")

		c, err := LoadCLI()
		if err != nil {
			t.Fatalf("LoadCLI()でエラーが発生: %v", err)
		}
		if c.CredentialDB != "/tmp/notor.db" {
			t.Errorf("CredentialDB = %q", c.CredentialDB)
		}
	})
}
