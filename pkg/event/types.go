// Package event はページ上で発生するユーザー操作のイベントを表す。
//
// page パッケージはこのイベントをバインディングに配送し、
// リンクのクリックなど記録だけを目的とするハンドラはイベントを
// JSONとしてログに出力する。
package event

import (
	"encoding/json"
	"time"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeLoad はページの読み込みが完了したことを表す。
	TypeLoad Type = "DOMContentLoaded"
	// TypeSubmit はフォームが送信されたことを表す。
	TypeSubmit Type = "submit"
	// TypeClick は要素がクリックされたことを表す。
	TypeClick Type = "click"
)

// Event はページ上で発生した1回のユーザー操作。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// Type はイベントの種類。
	Type Type `json:"type"`
	// Target はイベントが発生した要素のID（フォームIDなど）。
	Target string `json:"target"`
	// URL はイベント発生時のページURL。
	URL string `json:"url"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data,omitempty"`
	// CreatedAt はイベントが発生した日時。
	CreatedAt time.Time `json:"created_at"`
}

// SubmitData はsubmitイベントのデータ。フォームの入力値を保持する。
type SubmitData struct {
	// Fields はフォームの入力名と値。
	Fields map[string]string `json:"fields"`
}

// ClickData はclickイベントのデータ。
type ClickData struct {
	// Href はクリックされたリンクの参照先。
	Href string `json:"href"`
}
