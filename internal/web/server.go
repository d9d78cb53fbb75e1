package web

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/notor/internal/config"
	"github.com/nao1215/notor/pkg/credential"
	"github.com/nao1215/notor/pkg/httpclient"
	"github.com/nao1215/notor/pkg/middleware"
	"github.com/nao1215/notor/pkg/notes"
	"github.com/nao1215/notor/pkg/page"
	"github.com/nao1215/notor/pkg/session"
)

const (
	// loginPath はログインページのパス。
	loginPath = "/web/login"
	// contextKeySession はリクエストごとの Session をGinコンテキストに格納するキー。
	contextKeySession = "session"
)

// Server はWebフロントのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// api はノートAPIのクライアント。
	api *notes.API
	// cfg はサーバーの設定。
	cfg config.Web
}

// NewServer は新しいWebフロントサーバーを生成する。
func NewServer(cfg config.Web) *Server {
	var clientOpts []httpclient.Option
	if cfg.RequestTimeout > 0 {
		clientOpts = append(clientOpts, httpclient.WithTimeout(cfg.RequestTimeout))
	}
	client := httpclient.New(cfg.APIURL, clientOpts...)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))
	router.SetHTMLTemplate(template.Must(template.New("web").Parse(pageTemplates)))

	s := &Server{
		router: router,
		port:   cfg.Port,
		api:    notes.New(client, notes.WithCredentialTTL(cfg.CredentialTTL)),
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Handler はサーバーのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() {
	web := s.router.Group("/web")
	web.Use(s.loadSession())
	{
		// ノート一覧
		web.GET("", s.handleHome())
		// ノート詳細
		web.GET("/notes/:id", s.handleNote())
		// ログインページ
		web.GET("/login", s.handleLoginPage())

		// ノート作成
		web.POST("/notes", s.handleForm(page.FormNewNote, fixedPage(notes.HomePath)))
		// タグ付け
		web.POST("/notes/:id/tags", s.handleForm(page.FormAddTag, notePage))
		// ノート削除
		web.POST("/delete", s.handleForm(page.ActionDeleteNote, fixedPage(notes.HomePath)))
		// ログイン
		web.POST("/login", s.handleForm(page.FormLogin, fixedPage(loginPath)))
		// ログアウト
		web.POST("/logout", s.handleLogout())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "web"})
	})
}

// pageURLFunc はリクエストからフォームが置かれているページのURLを求める。
type pageURLFunc func(c *gin.Context) string

func fixedPage(path string) pageURLFunc {
	return func(_ *gin.Context) string {
		return path
	}
}

// notePage はノート詳細ページのURLを返す。タグ付けフォームはこのページにある。
func notePage(c *gin.Context) string {
	return "/web/notes/" + c.Param("id")
}

// loadSession はリクエストのCookieからクレデンシャルを読み出し、Session を組み立てるミドルウェアを返す。
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		jar := credential.JarFromRequest(c.Request)
		sess, err := session.Load(jar)
		if err != nil {
			log.Printf("[Web] クレデンシャルの読み込みに失敗: %v", err)
			sess = session.Anonymous()
		}
		c.Set(contextKeySession, sess)
		c.Next()
	}
}

func sessionOf(c *gin.Context) *session.Session {
	if v, ok := c.Get(contextKeySession); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return session.Anonymous()
}

// handleForm はフォーム送信をページのバインディングに配送するハンドラを返す。
// 操作の最終状態に応じてリダイレクトするか、エラー表示要素を表示したページを返す。
func (s *Server) handleForm(formID string, pageURL pageURLFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := page.New(pageURL(c), page.WithForms(formID), page.WithErrorBox(page.ErrorBoxID))
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		sess := sessionOf(c)
		page.Bind(p, s.api, sess)
		if err := p.Load(c.Request.Context()); err != nil {
			log.Printf("[Web] ページの読み込みに失敗: %v", err)
		}

		if err := c.Request.ParseForm(); err != nil {
			p.ShowError(fmt.Sprintf("フォームの解析に失敗しました: %v", err))
			s.renderFailed(c, p)
			return
		}

		state, err := p.Submit(c.Request.Context(), formID, c.Request.PostForm)
		if err != nil {
			log.Printf("[Web] %s の処理に失敗: %v", formID, err)
		}

		switch state {
		case page.StateReloading:
			c.Redirect(http.StatusSeeOther, p.URL().Path)
		case page.StateNavigating:
			if token, ok := sess.Token(); ok {
				http.SetCookie(c.Writer, s.credentialCookie(token))
			}
			c.Redirect(http.StatusSeeOther, p.Location())
		default:
			s.renderFailed(c, p)
		}
	}
}

// credentialCookie はブラウザにクレデンシャルを保存させるCookieを生成する。
func (s *Server) credentialCookie(token string) *http.Cookie {
	cookie := credential.NewCookie(token, s.cfg.CredentialTTL)
	cookie.Secure = s.cfg.CookieSecure
	cookie.HttpOnly = s.cfg.CookieHTTPOnly
	cookie.SameSite = http.SameSiteStrictMode
	return cookie
}

// expireCredential はブラウザのクレデンシャルCookieを削除させる。
func expireCredential(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{Name: credential.Key, Path: "/", MaxAge: -1})
}

// renderFailed はエラー表示要素を表示したページを返す。
func (s *Server) renderFailed(c *gin.Context, p *page.Page) {
	box, err := p.ErrorBox()
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.HTML(http.StatusOK, "failed", gin.H{"Box": box, "Back": p.URL().Path})
}

// handleHome はノート一覧ページを返すハンドラを返す。
// クレデンシャルがなければログインページへリダイレクトする。
func (s *Server) handleHome() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionOf(c)
		if _, ok := sess.Token(); !ok {
			c.Redirect(http.StatusSeeOther, loginPath)
			return
		}

		box := page.ErrorBox{ID: page.ErrorBoxID}
		list, err := s.api.ListNotes(c.Request.Context(), sess)
		if s.redirectIfForbidden(c, err) {
			return
		}
		if err != nil {
			box.Text, box.Visible = err.Error(), true
		}
		c.HTML(http.StatusOK, "home", gin.H{"Box": box, "Notes": list})
	}
}

// handleNote はノート詳細ページを返すハンドラを返す。
func (s *Server) handleNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionOf(c)
		if _, ok := sess.Token(); !ok {
			c.Redirect(http.StatusSeeOther, loginPath)
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.String(http.StatusNotFound, "ノートが見つかりません")
			return
		}

		n, err := s.api.Note(c.Request.Context(), sess, id)
		if s.redirectIfForbidden(c, err) {
			return
		}
		var apiErr *notes.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			c.String(http.StatusNotFound, apiErr.Message)
			return
		}

		box := page.ErrorBox{ID: page.ErrorBoxID}
		if err != nil {
			box.Text, box.Visible = err.Error(), true
			c.HTML(http.StatusOK, "failed", gin.H{"Box": box, "Back": notes.HomePath})
			return
		}

		tags, err := s.api.NoteTags(c.Request.Context(), sess, id)
		if err != nil {
			box.Text, box.Visible = err.Error(), true
		}
		c.HTML(http.StatusOK, "note", gin.H{"Box": box, "Note": n, "Tags": tags})
	}
}

// handleLoginPage はログインページを返すハンドラを返す。
func (s *Server) handleLoginPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "login", gin.H{"Box": page.ErrorBox{ID: page.ErrorBoxID}})
	}
}

// handleLogout はクレデンシャルを破棄してログインページへリダイレクトするハンドラを返す。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.api.Logout(sessionOf(c)); err != nil {
			log.Printf("[Web] ログアウトに失敗: %v", err)
		}
		expireCredential(c)
		c.Redirect(http.StatusSeeOther, loginPath)
	}
}

// redirectIfForbidden はAPIが認証エラーを返した場合にクレデンシャルを削除してログインページへリダイレクトする。
func (s *Server) redirectIfForbidden(c *gin.Context, err error) bool {
	var apiErr *notes.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		return false
	}
	expireCredential(c)
	c.Redirect(http.StatusSeeOther, loginPath)
	return true
}
