package credential

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Jar はブラウザの document.cookie 相当のCookieストレージ。
// 期限切れのCookieは読み出し時に見えなくなる。
type Jar struct {
	mu      sync.Mutex
	entries map[string]jarEntry
	// order はCookieの設定順。document.cookie と同じ順序で列挙するために使う。
	order []string
	now   func() time.Time
}

type jarEntry struct {
	value   string
	expires time.Time
}

// JarOption は Jar の生成オプション。
type JarOption func(*Jar)

// WithClock は期限判定に使う現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) JarOption {
	return func(j *Jar) {
		j.now = now
	}
}

// NewJar は空の Jar を生成する。
func NewJar(opts ...JarOption) *Jar {
	j := &Jar{
		entries: make(map[string]jarEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// JarFromRequest はリクエストのCookieヘッダーから Jar を復元する。
// ブラウザは期限内のCookieしか送らないため、期限は設けない。
func JarFromRequest(r *http.Request, opts ...JarOption) *Jar {
	j := NewJar(opts...)
	for _, c := range r.Cookies() {
		j.put(c.Name, c.Value, time.Time{})
	}
	return j
}

// Set はクレデンシャルを Key に保存する。期限は現在時刻にttlを加えた時刻。
func (j *Jar) Set(value string, ttl time.Duration) error {
	if err := checkTTL(ttl); err != nil {
		return err
	}
	j.put(Key, value, j.now().Add(ttl))
	return nil
}

// SetCookie はCookieを1つ保存する。Max-Age が優先され、なければ Expires を使う。
// Max-Age が負の場合はCookieを削除する。
func (j *Jar) SetCookie(c *http.Cookie) {
	var expires time.Time
	switch {
	case c.MaxAge < 0:
		j.delete(c.Name)
		return
	case c.MaxAge > 0:
		expires = j.now().Add(time.Duration(c.MaxAge) * time.Second)
	case !c.Expires.IsZero():
		expires = c.Expires
	}
	j.put(c.Name, c.Value, expires)
}

// Get はCookie文字列を先頭から走査し、Key に一致する最初の値を返す。
func (j *Jar) Get() (string, error) {
	prefix := Key + "="
	for _, segment := range strings.Split(j.String(), ";") {
		segment = strings.TrimLeft(segment, " ")
		if value, ok := strings.CutPrefix(segment, prefix); ok {
			return value, nil
		}
	}
	return "", ErrNotFound
}

// Clear はすべてのCookieを削除する。
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = make(map[string]jarEntry)
	j.order = nil
	return nil
}

// String は期限内のCookieを "name=value; name=value" 形式で返す。
func (j *Jar) String() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	pairs := make([]string, 0, len(j.order))
	for _, name := range j.order {
		e := j.entries[name]
		if !e.expires.IsZero() && !now.Before(e.expires) {
			continue
		}
		pairs = append(pairs, name+"="+e.value)
	}
	return strings.Join(pairs, "; ")
}

func (j *Jar) put(name, value string, expires time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.entries[name]; !ok {
		j.order = append(j.order, name)
	}
	j.entries[name] = jarEntry{value: value, expires: expires}
}

func (j *Jar) delete(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.entries[name]; !ok {
		return
	}
	delete(j.entries, name)
	for i, n := range j.order {
		if n == name {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
}
