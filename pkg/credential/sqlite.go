package credential

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nao1215/notor/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore はクレデンシャルをSQLiteファイルに保存する Store。
// CLIのようにプロセスをまたいでトークンを保持する必要がある場合に使う。
type SQLiteStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// now は期限判定に使う現在時刻の取得関数。
	now func() time.Time
}

// OpenSQLite は指定パスのSQLiteデータベースを開き、スキーマを適用した SQLiteStore を返す。
// dsnには "file::memory:" のようなインメモリ指定も使える。
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// インメモリDBは接続ごとに別物になるため、接続を1本に絞る
	db.SetMaxOpenConns(1)

	if _, err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Set はトークンを有効期間ttlで保存する。
func (s *SQLiteStore) Set(value string, ttl time.Duration) error {
	if err := checkTTL(ttl); err != nil {
		return err
	}
	expiresAt := s.now().Add(ttl).Unix()
	_, err := s.db.Exec(`
		INSERT INTO credentials (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, Key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("クレデンシャルの保存に失敗: %w", err)
	}
	return nil
}

// Get は期限内のトークンを返す。
func (s *SQLiteStore) Get() (string, error) {
	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRow("SELECT value, expires_at FROM credentials WHERE key = ?", Key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("クレデンシャルの取得に失敗: %w", err)
	}
	if s.now().Unix() >= expiresAt {
		return "", ErrNotFound
	}
	return value, nil
}

// Clear はトークンを削除する。
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM credentials WHERE key = ?", Key); err != nil {
		return fmt.Errorf("クレデンシャルの削除に失敗: %w", err)
	}
	return nil
}

// Close はデータベース接続を閉じる。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
