// Package notes はノートAPIの操作を表示層から切り離した形で提供する。
//
// 各操作は httpclient でリクエストを発行し、outcome でレスポンスを
// 再読み込み・遷移・エラー表示のいずれかに変換して返す。
// DOMやHTTPハンドラに依存しないため、画面なしでテストできる。
package notes
