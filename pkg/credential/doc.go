// Package credential はBearerトークン（クレデンシャル）の保存と読み出しを提供する。
//
// ブラウザのCookieストレージと同じ振る舞いをする Jar と、
// CLIのように複数回の起動をまたいで保持する必要がある場合の SQLiteStore を持つ。
// どちらも Store インターフェースを満たし、固定のキー "Bearer" と
// 有効期限（既定60分）でトークンを保持する。
package credential
