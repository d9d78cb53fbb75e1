package command

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// terminal は操作の結果を端末に表示する outcome.Presenter。
type terminal struct {
	out io.Writer
	// status はレスポンスのHTTPステータスコード。メッセージが空の場合の表示に使う。
	status int
	// failure は ShowError で受け取ったメッセージ。
	failure string
	failed  bool
}

func (t *terminal) Reload() {
	fmt.Fprintln(t.out, "完了しました")
}

func (t *terminal) Navigate(location string) {
	fmt.Fprintf(t.out, "ログインしました（%s）\n", location)
}

func (t *terminal) ShowError(message string) {
	t.failure = message
	t.failed = true
}

// err は ShowError が呼ばれていればそのメッセージをエラーとして返す。
// メッセージが空の場合はステータスコードから組み立てる。
func (t *terminal) err() error {
	if !t.failed {
		return nil
	}
	if t.failure != "" {
		return errors.New(t.failure)
	}
	if text := http.StatusText(t.status); text != "" {
		return fmt.Errorf("APIがエラーを返しました（%d %s）", t.status, text)
	}
	return fmt.Errorf("APIがエラーを返しました（%d）", t.status)
}
