// Package web はノートAPIのWebフロントを提供する。
//
// ブラウザから送信されたフォームを page パッケージのバインディングに配送し、
// 操作の結果をHTTPレスポンスに変換する。
//
//   - 再読み込み: 303で元のページへリダイレクトする
//   - 遷移: 303で遷移先へリダイレクトする。ログイン時はクレデンシャルCookieを設定する
//   - エラー表示: エラー表示要素（err_box）を表示したページを返す
//
// クレデンシャルはリクエストのCookieから読み出し、リクエストごとに Session を組み立てる。
package web
