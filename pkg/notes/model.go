package notes

import "fmt"

// Note はフォーム入力から組み立てる新規ノート。クライアント側では検証しない。
type Note struct {
	// Title はノートのタイトル。
	Title string `json:"title"`
	// Content はノートの本文。
	Content string `json:"content"`
}

// Credentials はログインフォームの入力。
type Credentials struct {
	// Username はユーザー名。
	Username string `json:"username"`
	// Pass はパスワード。
	Pass string `json:"pass"`
}

// StoredNote はAPIが返す保存済みのノート。
type StoredNote struct {
	ID      int     `json:"id"`
	UserID  int     `json:"user_id"`
	Created string  `json:"created"`
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

// Tag はAPIが返すタグ。
type Tag struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
}

// APIError は一覧取得などデータを返す操作が失敗した場合のエラー。
type APIError struct {
	// Status はHTTPステータスコード。
	Status int
	// Message はAPIが返した message フィールド。
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIエラー: status=%d, message=%s", e.Status, e.Message)
}
