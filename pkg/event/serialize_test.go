package event

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestNew はNew関数でイベントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("SubmitDataでイベントを正常に生成できること", func(t *testing.T) {
		t.Parallel()

		data := SubmitData{Fields: map[string]string{"title": "A", "content": "B"}}

		before := time.Now().UTC()
		ev, err := New(TypeSubmit, "newNote", "/web", data)
		after := time.Now().UTC()
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}

		if _, err := uuid.Parse(ev.ID); err != nil {
			t.Errorf("IDがUUIDではない: %q", ev.ID)
		}
		if ev.Type != TypeSubmit || ev.Target != "newNote" || ev.URL != "/web" {
			t.Errorf("ev = %+v", ev)
		}
		if ev.CreatedAt.Before(before) || ev.CreatedAt.After(after) {
			t.Errorf("CreatedAt = %v, 期待する範囲: [%v, %v]", ev.CreatedAt, before, after)
		}

		decoded, err := DecodeData[SubmitData](ev)
		if err != nil {
			t.Fatalf("DecodeData()でエラーが発生: %v", err)
		}
		if decoded.Fields["title"] != "A" || decoded.Fields["content"] != "B" {
			t.Errorf("Fields = %v", decoded.Fields)
		}
	})

	t.Run("dataがnilの場合はDataが空になること", func(t *testing.T) {
		t.Parallel()

		ev, err := New(TypeLoad, "", "/web", nil)
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		if ev.Data != nil {
			t.Errorf("Data = %s, want nil", ev.Data)
		}
	})

	t.Run("シリアライズできないデータはエラーを返すこと", func(t *testing.T) {
		t.Parallel()

		if _, err := New(TypeClick, "a", "/web", make(chan int)); err == nil {
			t.Fatal("New()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("イベントごとに異なるIDが割り当てられること", func(t *testing.T) {
		t.Parallel()

		a, _ := New(TypeClick, "a", "/web", nil)
		b, _ := New(TypeClick, "a", "/web", nil)
		if a.ID == b.ID {
			t.Errorf("IDが重複: %q", a.ID)
		}
	})
}

// TestString はログ出力用の文字列化を検証する。
func TestString(t *testing.T) {
	t.Parallel()

	ev, err := New(TypeClick, "link-0", "/web", ClickData{Href: "/notes/1"})
	if err != nil {
		t.Fatalf("New()でエラーが発生: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(ev.String()), &decoded); err != nil {
		t.Fatalf("String()の結果がJSONではない: %v", err)
	}
	if decoded["type"] != "click" {
		t.Errorf("type = %v, want click", decoded["type"])
	}
	if !strings.Contains(ev.String(), `"href":"/notes/1"`) {
		t.Errorf("String() = %s", ev.String())
	}
}

// TestDecodeData は不正なデータのデシリアライズを検証する。
func TestDecodeData(t *testing.T) {
	t.Parallel()

	ev := &Event{Data: json.RawMessage(`{"href": 1}`)}
	if _, err := DecodeData[ClickData](ev); err == nil {
		t.Fatal("DecodeData()がエラーを返すべきだが、nilが返った")
	}
}
