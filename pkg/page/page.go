package page

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"

	"github.com/nao1215/notor/pkg/event"
)

// 各ページが提供する要素のID。
const (
	// FormNewNote はノート作成フォーム（title, content）。
	FormNewNote = "newNote"
	// FormAddTag はタグ追加フォーム（tag）。
	FormAddTag = "addTag"
	// FormLogin はログインフォーム（username, pass）。
	FormLogin = "login"
	// ActionDeleteNote はノート削除ボタン。フォームではなく直接呼び出される。
	ActionDeleteNote = "deleteNote"
	// ErrorBoxID はエラー表示要素の既定ID。
	ErrorBoxID = "err_box"
)

var (
	// ErrFormNotBound は送信されたフォームにハンドラが登録されていない場合に返される。
	ErrFormNotBound = errors.New("フォームにハンドラが登録されていません")
	// ErrNoErrorBox はページにエラー表示要素がない場合に返される。
	ErrNoErrorBox = errors.New("ページにエラー表示要素がありません")
)

// State は1回のユーザー操作の状態。
type State int

const (
	// StateIdle は操作待ち。
	StateIdle State = iota
	// StateSubmitting はフォーム送信を横取りし、既定の画面遷移を抑止した状態。
	StateSubmitting
	// StateAwaiting はAPIのレスポンス待ち。
	StateAwaiting
	// StateReloading は成功してページを再読み込みした状態。
	StateReloading
	// StateNavigating は成功して別ページへ遷移した状態。
	StateNavigating
	// StateErrorDisplayed はエラー表示要素にメッセージを表示した状態。
	StateErrorDisplayed
)

// String は状態の名前を返す。
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSubmitting:
		return "Submitting"
	case StateAwaiting:
		return "Awaiting"
	case StateReloading:
		return "Reloading"
	case StateNavigating:
		return "Navigating"
	case StateErrorDisplayed:
		return "ErrorDisplayed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrorBox はエラー表示要素。
type ErrorBox struct {
	// ID は要素のID。リビジョンにより "err_box" または "errBox"。
	ID string
	// Text は表示中のメッセージ。
	Text string
	// Visible は表示状態。
	Visible bool
}

// Handler はイベントを処理するハンドラ。
type Handler func(ctx context.Context, p *Page, ev *event.Event) error

// Page はバインディング対象のページ。
type Page struct {
	mu sync.Mutex
	// url は現在のページURL。
	url *url.URL
	// forms はページに存在するフォームのID。
	forms map[string]bool
	// links はページに存在するリンクの参照先。
	links []string
	// errBox はエラー表示要素。ページにない場合はnil。
	errBox *ErrorBox
	// handlers はイベント種別とターゲットごとのハンドラ。
	handlers map[event.Type]map[string]Handler
	state    State
	reloads  int
	location string
}

// Option は Page の生成オプション。
type Option func(*Page)

// WithForms はページに存在するフォームを指定する。
func WithForms(ids ...string) Option {
	return func(p *Page) {
		for _, id := range ids {
			p.forms[id] = true
		}
	}
}

// WithLinks はページに存在するリンクを指定する。
func WithLinks(hrefs ...string) Option {
	return func(p *Page) {
		p.links = append(p.links, hrefs...)
	}
}

// WithErrorBox はエラー表示要素のIDを指定する。
func WithErrorBox(id string) Option {
	return func(p *Page) {
		p.errBox = &ErrorBox{ID: id}
	}
}

// New はrawURLのページを生成する。
func New(rawURL string, opts ...Option) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("ページURLの解析に失敗: %w", err)
	}
	p := &Page{
		url:      u,
		forms:    make(map[string]bool),
		handlers: make(map[event.Type]map[string]Handler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// URL は現在のページURLを返す。
func (p *Page) URL() *url.URL {
	u := *p.url
	return &u
}

// HasForm はページにフォームが存在するかを返す。
func (p *Page) HasForm(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forms[id]
}

// Links はページに存在するリンクを返す。
func (p *Page) Links() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.links)
}

// On はイベント種別とターゲットにハンドラを登録する。
func (p *Page) On(t event.Type, target string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handlers[t] == nil {
		p.handlers[t] = make(map[string]Handler)
	}
	p.handlers[t][target] = h
}

// Bound はイベント種別とターゲットにハンドラが登録されているかを返す。
func (p *Page) Bound(t event.Type, target string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.handlers[t][target]
	return ok
}

// Load はページ読み込み完了を通知する。エラー表示要素は非表示にされる。
func (p *Page) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.errBox != nil {
		p.errBox.Visible = false
	}
	p.state = StateIdle
	h := p.handlers[event.TypeLoad][""]
	p.mu.Unlock()

	if h == nil {
		return nil
	}
	ev, err := event.New(event.TypeLoad, "", p.url.String(), nil)
	if err != nil {
		return err
	}
	return h(ctx, p, ev)
}

// Submit はフォームの送信をバインディングに配送し、操作の最終状態を返す。
func (p *Page) Submit(ctx context.Context, formID string, values url.Values) (State, error) {
	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}
	return p.dispatch(ctx, event.TypeSubmit, formID, event.SubmitData{Fields: fields})
}

// Click はリンクのクリックをバインディングに配送する。
func (p *Page) Click(ctx context.Context, href string) error {
	p.mu.Lock()
	h := p.handlers[event.TypeClick][href]
	p.mu.Unlock()
	if h == nil {
		return nil
	}

	ev, err := event.New(event.TypeClick, href, p.url.String(), event.ClickData{Href: href})
	if err != nil {
		return err
	}
	return h(ctx, p, ev)
}

// dispatch は状態を遷移させながらハンドラを呼び出す。
func (p *Page) dispatch(ctx context.Context, t event.Type, target string, data any) (State, error) {
	p.mu.Lock()
	h, ok := p.handlers[t][target]
	if !ok {
		p.mu.Unlock()
		return p.State(), fmt.Errorf("%w: %s", ErrFormNotBound, target)
	}
	p.state = StateSubmitting
	p.mu.Unlock()

	ev, err := event.New(t, target, p.url.String(), data)
	if err != nil {
		p.setState(StateIdle)
		return StateIdle, err
	}
	if err := h(ctx, p, ev); err != nil {
		return p.State(), err
	}
	return p.State(), nil
}

// State は直近の操作の状態を返す。
func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Page) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// ErrorBox はエラー表示要素の現在の状態を返す。
func (p *Page) ErrorBox() (ErrorBox, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errBox == nil {
		return ErrorBox{}, ErrNoErrorBox
	}
	return *p.errBox, nil
}

// Reloads はページが再読み込みされた回数を返す。
func (p *Page) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

// Location は遷移先のパスを返す。遷移していなければ空文字列。
func (p *Page) Location() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location
}

// Reload はページ全体を再読み込みする。エラー表示はリセットされる。
func (p *Page) Reload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloads++
	if p.errBox != nil {
		p.errBox.Text = ""
		p.errBox.Visible = false
	}
	p.state = StateReloading
}

// Navigate はlocationへ遷移する。
func (p *Page) Navigate(location string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = location
	p.state = StateNavigating
}

// ShowError はエラー表示要素にメッセージを書き込み、表示状態にする。
// エラー表示要素がないページでは状態だけを更新する。
func (p *Page) ShowError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errBox != nil {
		p.errBox.Text = message
		p.errBox.Visible = true
	}
	p.state = StateErrorDisplayed
}
