// Package devapi は開発・テスト用のノートAPIサーバーを提供する。
//
// 本番のノートAPIと同じエンドポイントとエラー形式（{"message": "..."}）を持ち、
// SQLiteにユーザー・ノート・タグを保存する。
//
// エンドポイント:
//   - POST   /auth                     ログイン。{"token": "..."} を返す
//   - PUT    /notes                    ノート作成
//   - GET    /notes                    ノート一覧
//   - GET    /notes/:id                ノート取得
//   - POST   /notes/:id                ノート更新
//   - DELETE /notes/:id                ノート削除
//   - POST   /notes/:id/tags/:tag      タグ付け（タグが無ければ作成する）
//   - DELETE /notes/:id/tags/:tag_id   タグ外し
//   - GET    /notes/:id/tags           ノートのタグ一覧
//
// /auth 以外は Authorization: Bearer <token> が必要。
// ログインのたびにユーザーのトークンIDが更新され、以前のトークンは無効になる。
package devapi
