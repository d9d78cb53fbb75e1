// Package middleware はGinベースのサーバーで使用する共通ミドルウェアを提供する。
//
// 開発用ノートAPIのBearerトークン検証、パニックリカバリ、
// WebフロントのCORS設定を含む。エラーはすべて {"message": "..."} 形式で返す。
package middleware
