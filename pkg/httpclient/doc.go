// Package httpclient はノートAPIへのHTTPリクエストを発行するゲートウェイを提供する。
//
// 固定のエンドポイントに対してリクエストを組み立て、必要に応じて
// Session のBearerトークンを Authorization ヘッダーに付与する。
// レスポンスは消費せずにそのまま呼び出し側へ返し、成否の判定は
// outcome パッケージに委ねる。リトライやバックオフは行わない。
package httpclient
