// Package outcome はAPIレスポンスをユーザー操作の最終結果に変換する。
//
// ステータスコードがちょうど200であれば成功（ページの再読み込み）、
// それ以外はすべて失敗とし、レスポンスボディの message フィールドを
// エラーメッセージとして取り出す。200以外の2xxも失敗として扱う。
package outcome

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrMalformedErrorBody は失敗レスポンスのボディが {"message": "..."} 形式のJSONでない場合に返される。
var ErrMalformedErrorBody = errors.New("エラーレスポンスの形式が不正です")

// Kind は結果の種類を表す。
type Kind int

const (
	// KindReload は成功し、現在のページを再読み込みすることを表す。
	KindReload Kind = iota + 1
	// KindNavigate は成功し、別のページへ遷移することを表す。
	KindNavigate
	// KindFailure は失敗し、エラーメッセージを表示することを表す。
	KindFailure
)

// String はKindの名前を返す。
func (k Kind) String() string {
	switch k {
	case KindReload:
		return "reload"
	case KindNavigate:
		return "navigate"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome は1回のリクエストの最終結果。
type Outcome struct {
	// Kind は結果の種類。
	Kind Kind
	// Message は失敗時に表示するメッセージ。
	Message string
	// Location は遷移先のパス。KindNavigate の場合のみ設定される。
	Location string
	// Status はレスポンスのHTTPステータスコード。
	Status int
}

// ErrorReply はAPIが失敗時に返すボディの形式。
type ErrorReply struct {
	// Message はエラーの内容。
	Message *string `json:"message"`
}

// Reload は再読み込みの結果を返す。
func Reload() Outcome {
	return Outcome{Kind: KindReload, Status: http.StatusOK}
}

// Navigate はlocationへ遷移する結果を返す。
func Navigate(location string) Outcome {
	return Outcome{Kind: KindNavigate, Location: location, Status: http.StatusOK}
}

// Failure はmessageを表示する失敗の結果を返す。
func Failure(status int, message string) Outcome {
	return Outcome{Kind: KindFailure, Message: message, Status: status}
}

// Resolve はレスポンスを Outcome に変換し、ボディを閉じる。
// 失敗レスポンスのボディが不正な場合は ErrMalformedErrorBody を返す。
func Resolve(resp *http.Response) (Outcome, error) {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Reload(), nil
	}

	message, err := DecodeError(resp.Body)
	if err != nil {
		return Outcome{Status: resp.StatusCode}, fmt.Errorf("status=%d: %w", resp.StatusCode, err)
	}
	return Failure(resp.StatusCode, message), nil
}

// DecodeError は失敗レスポンスのボディから message を取り出す。
func DecodeError(r io.Reader) (string, error) {
	var reply ErrorReply
	if err := json.NewDecoder(r).Decode(&reply); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedErrorBody, err)
	}
	if reply.Message == nil {
		return "", fmt.Errorf("%w: messageフィールドがありません", ErrMalformedErrorBody)
	}
	return *reply.Message, nil
}

// Presenter は結果を画面に反映する表示層。
type Presenter interface {
	// Reload は現在のページ全体を再読み込みする。
	Reload()
	// Navigate は指定のパスへ遷移する。
	Navigate(location string)
	// ShowError はエラー表示要素にメッセージを書き込み、表示状態にする。
	ShowError(message string)
}

// Apply は結果に応じた副作用をPresenterに適用する。
func Apply(o Outcome, p Presenter) {
	switch o.Kind {
	case KindReload:
		p.Reload()
	case KindNavigate:
		p.Navigate(o.Location)
	case KindFailure:
		p.ShowError(o.Message)
	}
}
