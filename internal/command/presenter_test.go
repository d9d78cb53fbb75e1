package command

import (
	"bytes"
	"testing"
)

// TestTerminalErr は端末表示のエラー変換を検証する。
func TestTerminalErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		message string
		want    string
	}{
		{name: "メッセージがあればそのまま返すこと", status: 404, message: "ノートが見つかりません", want: "ノートが見つかりません"},
		{name: "メッセージが空ならステータスから組み立てること", status: 500, want: "APIがエラーを返しました（500 Internal Server Error）"},
		{name: "未知のステータスでも空にならないこと", status: 599, want: "APIがエラーを返しました（599）"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			term := &terminal{out: &bytes.Buffer{}, status: tc.status}
			term.ShowError(tc.message)
			err := term.err()
			if err == nil || err.Error() != tc.want {
				t.Errorf("err() = %v, want %q", err, tc.want)
			}
		})
	}

	t.Run("ShowErrorが呼ばれなければnilを返すこと", func(t *testing.T) {
		t.Parallel()

		if err := (&terminal{out: &bytes.Buffer{}}).err(); err != nil {
			t.Errorf("err() = %v, want nil", err)
		}
	})
}
