// Package page はページ上のフォームと notes の操作を結び付けるイベントバインディングを提供する。
//
// Page はHTMLページのうちバインディングが必要とする部分（フォーム、
// エラー表示要素、リンク、現在のURL）だけを表すメモリ上のモデルで、
// outcome.Presenter を実装する。Bind はページに存在するフォームにだけ
// submit ハンドラを登録し、すべてのリンクにクリックを記録するハンドラを登録する。
//
// 1回のユーザー操作は次の状態をたどる。
//
//	Idle → Submitting → Awaiting → Reloading | Navigating | ErrorDisplayed
//
// ErrorDisplayed からは次の送信で再び Submitting に進む。
// 同じフォームを連続して送信した場合の重複排除は行わない。
package page
