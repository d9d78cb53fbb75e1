package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New は新しいイベントを生成する。
// dataにはイベント固有のデータ構造体を渡す。nilの場合はDataを空にする。
func New(eventType Type, target, pageURL string, data any) (*Event, error) {
	ev := &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Target:    target,
		URL:       pageURL,
		CreatedAt: time.Now().UTC(),
	}
	if data == nil {
		return ev, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("イベントデータのシリアライズに失敗: %w", err)
	}
	ev.Data = jsonData
	return ev, nil
}

// DecodeData はイベントのDataフィールドを指定された型にデシリアライズする。
func DecodeData[T any](e *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("イベントデータのデシリアライズに失敗: %w", err)
	}
	return &data, nil
}

// String はイベントをログ出力用のJSON文字列にする。
func (e *Event) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("event(%s %s)", e.Type, e.Target)
	}
	return string(b)
}
