// Package command はノートAPIのコマンドラインクライアントを提供する。
//
// クレデンシャルはSQLiteファイルに保存し、コマンドの実行ごとに Session として読み込む。
// 各操作の結果は outcome.Presenter を実装した端末表示に適用される。
package command
