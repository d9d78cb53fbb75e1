package page

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/notor/pkg/event"
	"github.com/nao1215/notor/pkg/notes"
	"github.com/nao1215/notor/pkg/outcome"
	"github.com/nao1215/notor/pkg/session"
)

// ErrNoteIDNotInURL はページURLからノートIDを取り出せない場合に返される。
var ErrNoteIDNotInURL = errors.New("ページURLにノートIDが含まれていません")

// Actions はバインディングから呼び出すノートAPIの操作。*notes.API が満たす。
type Actions interface {
	SubmitNote(ctx context.Context, sess *session.Session, n notes.Note) (outcome.Outcome, error)
	DeleteNote(ctx context.Context, sess *session.Session, id int) (outcome.Outcome, error)
	TagNote(ctx context.Context, sess *session.Session, id int, tag string) (outcome.Outcome, error)
	Login(ctx context.Context, sess *session.Session, c notes.Credentials) (outcome.Outcome, error)
}

// Bind はページに存在するフォームにハンドラを登録する。
// ページごとに描画されるフォームが異なるため、存在しないフォームには何も登録しない。
// リンクにはクリックをログに記録するだけのハンドラを登録する。
func Bind(p *Page, actions Actions, sess *session.Session) {
	if p.HasForm(FormNewNote) {
		p.On(event.TypeSubmit, FormNewNote, func(ctx context.Context, p *Page, ev *event.Event) error {
			fields, err := fieldsOf(ev)
			if err != nil {
				return err
			}
			n := notes.Note{Title: fields["title"], Content: fields["content"]}
			return run(ctx, p, func(ctx context.Context) (outcome.Outcome, error) {
				return actions.SubmitNote(ctx, sess, n)
			})
		})
	}

	if p.HasForm(FormAddTag) {
		p.On(event.TypeSubmit, FormAddTag, func(ctx context.Context, p *Page, ev *event.Event) error {
			fields, err := fieldsOf(ev)
			if err != nil {
				return err
			}
			// ノートIDは状態として持たず、操作のたびにURLから求める
			id, err := NoteIDFromURL(p.URL())
			if err != nil {
				p.ShowError(err.Error())
				return err
			}
			tag := fields["tag"]
			return run(ctx, p, func(ctx context.Context) (outcome.Outcome, error) {
				return actions.TagNote(ctx, sess, id, tag)
			})
		})
	}

	if p.HasForm(FormLogin) {
		p.On(event.TypeSubmit, FormLogin, func(ctx context.Context, p *Page, ev *event.Event) error {
			fields, err := fieldsOf(ev)
			if err != nil {
				return err
			}
			c := notes.Credentials{Username: fields["username"], Pass: fields["pass"]}
			return run(ctx, p, func(ctx context.Context) (outcome.Outcome, error) {
				return actions.Login(ctx, sess, c)
			})
		})
	}

	if p.HasForm(ActionDeleteNote) {
		p.On(event.TypeSubmit, ActionDeleteNote, func(ctx context.Context, p *Page, ev *event.Event) error {
			fields, err := fieldsOf(ev)
			if err != nil {
				return err
			}
			id, err := strconv.Atoi(fields["id"])
			if err != nil {
				p.ShowError(fmt.Sprintf("ノートIDが不正です: %q", fields["id"]))
				return fmt.Errorf("ノートIDの解析に失敗: %w", err)
			}
			return run(ctx, p, func(ctx context.Context) (outcome.Outcome, error) {
				return actions.DeleteNote(ctx, sess, id)
			})
		})
	}

	for _, href := range p.Links() {
		p.On(event.TypeClick, href, logClick)
	}
}

// run はAPI呼び出しの結果をページに反映する。
// 通信の失敗や不正なエラーボディもエラー表示要素に表示する。
func run(ctx context.Context, p *Page, call func(context.Context) (outcome.Outcome, error)) error {
	p.setState(StateAwaiting)
	o, err := call(ctx)
	if err != nil {
		p.ShowError(err.Error())
		return err
	}
	outcome.Apply(o, p)
	return nil
}

// logClick はリンクのクリックを記録する。画面遷移には関与しない。
func logClick(_ context.Context, _ *Page, ev *event.Event) error {
	log.Printf("[Link] %s", ev)
	return nil
}

func fieldsOf(ev *event.Event) (map[string]string, error) {
	data, err := event.DecodeData[event.SubmitData](ev)
	if err != nil {
		return nil, err
	}
	return data.Fields, nil
}

// NoteIDFromURL はページURLのパス末尾（.../notes/42）からノートIDを取り出す。
func NoteIDFromURL(u *url.URL) (int, error) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-2] != "notes" {
		return 0, fmt.Errorf("%w: %s", ErrNoteIDNotInURL, u.Path)
	}
	id, err := strconv.Atoi(segments[len(segments)-1])
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNoteIDNotInURL, u.Path)
	}
	return id, nil
}
