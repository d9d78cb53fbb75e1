package devapi

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/notor/pkg/migration"
	"github.com/nao1215/notor/pkg/notes"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// createdLayout はノートの作成日時の書式。
const createdLayout = "2006-01-02T15:04:05"

// user はusersテーブルの1行。
type user struct {
	ID       int
	Username string
	PassHash string
	Role     string
}

// queries はノートAPIが使うSQLをまとめたもの。
type queries struct {
	db *sql.DB
}

// openDB はSQLiteデータベースを開き、マイグレーションを適用する。
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// インメモリDBは接続ごとに別のデータベースになるため1接続に固定する
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("外部キー制約の有効化に失敗: %w", err)
	}
	if _, err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return db, nil
}

// upsertUser はユーザーを作成する。既に存在する場合はパスワードを上書きする。
func (q *queries) upsertUser(ctx context.Context, username, passHash, role string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (username, pass_hash, role) VALUES (?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET pass_hash = excluded.pass_hash, role = excluded.role`,
		username, passHash, role)
	return err
}

// userByName はユーザー名でユーザーを取得する。
func (q *queries) userByName(ctx context.Context, username string) (user, error) {
	var u user
	err := q.db.QueryRowContext(ctx,
		`SELECT id, username, pass_hash, role FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PassHash, &u.Role)
	return u, err
}

// saveTokenID はユーザーの有効なトークンIDを置き換える。
func (q *queries) saveTokenID(ctx context.Context, username, tokenID string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO user_tokens (username, token_id) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET token_id = excluded.token_id`,
		username, tokenID)
	return err
}

// tokenID はユーザーの有効なトークンIDを取得する。
func (q *queries) tokenID(ctx context.Context, username string) (string, error) {
	var id string
	err := q.db.QueryRowContext(ctx,
		`SELECT token_id FROM user_tokens WHERE username = ?`, username,
	).Scan(&id)
	return id, err
}

// createNote はノートを保存し、保存した行を返す。
func (q *queries) createNote(ctx context.Context, userID int, n notes.Note, created time.Time) (notes.StoredNote, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO notes (user_id, created, title, content) VALUES (?, ?, ?, ?)`,
		userID, created.UTC().Format(createdLayout), n.Title, n.Content)
	if err != nil {
		return notes.StoredNote{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return notes.StoredNote{}, err
	}
	return q.note(ctx, int(id))
}

// note はIDでノートを取得する。
func (q *queries) note(ctx context.Context, id int) (notes.StoredNote, error) {
	var (
		n       notes.StoredNote
		content sql.NullString
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, created, title, content FROM notes WHERE id = ?`, id,
	).Scan(&n.ID, &n.UserID, &n.Created, &n.Title, &content)
	if err != nil {
		return notes.StoredNote{}, err
	}
	if content.Valid {
		n.Content = &content.String
	}
	return n, nil
}

// notesByUser はユーザーのノートをID順に取得する。
func (q *queries) notesByUser(ctx context.Context, userID int) ([]notes.StoredNote, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, created, title, content FROM notes WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []notes.StoredNote{}
	for rows.Next() {
		var (
			n       notes.StoredNote
			content sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Created, &n.Title, &content); err != nil {
			return nil, err
		}
		if content.Valid {
			n.Content = &content.String
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// updateNote はノートのタイトルと本文を更新する。
func (q *queries) updateNote(ctx context.Context, id int, n notes.Note) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ? WHERE id = ?`, n.Title, n.Content, id)
	return err
}

// deleteNote はノートと、そのノートのタグ付けを削除する。
func (q *queries) deleteNote(ctx context.Context, id int) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// findOrCreateTag はユーザーのタグを名前で検索し、無ければ作成する。
func (q *queries) findOrCreateTag(ctx context.Context, userID int, name string) (notes.Tag, error) {
	t := notes.Tag{UserID: userID, Name: name}
	err := q.db.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE user_id = ? AND name = ?`, userID, name,
	).Scan(&t.ID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return notes.Tag{}, err
	}

	res, err := q.db.ExecContext(ctx, `INSERT INTO tags (user_id, name) VALUES (?, ?)`, userID, name)
	if err != nil {
		return notes.Tag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return notes.Tag{}, err
	}
	t.ID = int(id)
	return t, nil
}

// tagNote はノートにタグを付ける。既に付いている場合は何もしない。
func (q *queries) tagNote(ctx context.Context, noteID, tagID int) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO note_tags (note_id, tag_id) VALUES (?, ?)`, noteID, tagID)
	return err
}

// untagNote はノートからタグを外す。付いていない場合は何もしない。
func (q *queries) untagNote(ctx context.Context, noteID, tagID int) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM note_tags WHERE note_id = ? AND tag_id = ?`, noteID, tagID)
	return err
}

// noteTags はノートに付いたタグを取得する。
func (q *queries) noteTags(ctx context.Context, noteID int) ([]notes.Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name FROM tags t
		 JOIN note_tags nt ON nt.tag_id = t.id
		 WHERE nt.note_id = ? ORDER BY t.id`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []notes.Tag{}
	for rows.Next() {
		var t notes.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
