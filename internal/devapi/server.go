package devapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/notor/internal/config"
	"github.com/nao1215/notor/pkg/credential"
	"github.com/nao1215/notor/pkg/middleware"
	"github.com/nao1215/notor/pkg/notes"
	"golang.org/x/crypto/bcrypt"
)

const (
	// roleUser は一般ユーザーの権限。
	roleUser = "user"
	// contextKeyUser は認証済みユーザーをGinコンテキストに格納するキー。
	contextKeyUser = "user"
)

// Server は開発用ノートAPIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// queries はノートAPIのクエリ実行オブジェクト。
	queries *queries
	// jwtSecret はJWT署名用の秘密鍵。
	jwtSecret string
	// tokenTTL は発行するトークンの有効期間。
	tokenTTL time.Duration
	// now は現在時刻を返す。
	now func() time.Time
}

// NewServer は新しい開発用ノートAPIサーバーを生成する。
// データベースの初期化と初期ユーザーの登録を行う。
func NewServer(ctx context.Context, cfg config.DevAPI) (*Server, error) {
	sqlDB, err := openDB(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	// タグ名に含まれるエスケープ済みの "/" をパス区切りとして扱わない
	router.UseRawPath = true
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:    router,
		port:      cfg.Port,
		db:        sqlDB,
		queries:   &queries{db: sqlDB},
		jwtSecret: cfg.JWTSecret,
		tokenTTL:  cfg.TokenTTL,
		now:       time.Now,
	}

	if err := s.seedUsers(ctx, cfg.Users); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("初期ユーザーの登録に失敗: %w", err)
	}

	s.setupRoutes()
	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Handler はサーバーのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.db.Close()
}

// seedUsers は "ユーザー名:パスワード[:権限]" 形式のエントリからユーザーを登録する。
func (s *Server) seedUsers(ctx context.Context, entries []string) error {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			return fmt.Errorf("ユーザー定義の形式が不正です: %q", entry)
		}
		role := roleUser
		if len(parts) == 3 && parts[2] != "" {
			role = parts[2]
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(parts[1]), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
		}
		if err := s.queries.upsertUser(ctx, parts[0], string(hash), role); err != nil {
			return fmt.Errorf("ユーザー %s の登録に失敗: %w", parts[0], err)
		}
		log.Printf("[DevAPI] ユーザー %s を登録しました", parts[0])
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// ログイン（認証不要）
	s.router.POST("/auth", s.handleAuth())

	api := s.router.Group("/notes")
	api.Use(middleware.JWTAuth(s.jwtSecret), s.currentToken())
	{
		// ノート作成
		api.PUT("", s.handleCreateNote())
		// ノート一覧取得
		api.GET("", s.handleListNotes())
		// ノート取得
		api.GET("/:id", s.handleGetNote())
		// ノート更新
		api.POST("/:id", s.handleUpdateNote())
		// ノート削除
		api.DELETE("/:id", s.handleDeleteNote())
		// タグ付け
		api.POST("/:id/tags/:tag", s.handleTagNote())
		// タグ外し
		api.DELETE("/:id/tags/:tag", s.handleUntagNote())
		// ノートのタグ一覧取得
		api.GET("/:id/tags", s.handleNoteTags())
	}

	s.router.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, "見つかりません")
	})

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "devapi"})
	})
}

func abort(c *gin.Context, code int, message string) {
	middleware.AbortWithMessage(c, code, message)
}

// handleAuth はログインを処理するハンドラを返す。
// パスワードが一致すれば新しいトークンを発行し、それ以前のトークンを無効にする。
func (s *Server) handleAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notes.Credentials
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, fmt.Sprintf("リクエストが不正です: %v", err))
			return
		}

		u, err := s.queries.userByName(c.Request.Context(), req.Username)
		if errors.Is(err, sql.ErrNoRows) {
			abort(c, http.StatusNotFound, "ユーザーが見つかりません")
			return
		}
		if err != nil {
			abort(c, http.StatusInternalServerError, "ユーザーの取得に失敗しました")
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(req.Pass)); err != nil {
			abort(c, http.StatusForbidden, "パスワードが違います")
			return
		}

		claims := middleware.NewClaims(u.Username, u.Role, s.tokenTTL)
		token, err := middleware.SignJWT(s.jwtSecret, claims)
		if err != nil {
			abort(c, http.StatusInternalServerError, "トークンの発行に失敗しました")
			log.Printf("トークン発行エラー: %v", err)
			return
		}
		if err := s.queries.saveTokenID(c.Request.Context(), u.Username, claims.ID); err != nil {
			abort(c, http.StatusInternalServerError, "トークンの保存に失敗しました")
			log.Printf("トークン保存エラー: %v", err)
			return
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(credential.Key, token, int(s.tokenTTL.Seconds()), "/", "", false, false)
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// currentToken は検証済みトークンがユーザーの最新のトークンであることを確認するミドルウェアを返す。
// 確認できた場合、コンテキストにユーザーを設定する。
func (s *Server) currentToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := middleware.GetUsername(c)

		tokenID, err := s.queries.tokenID(c.Request.Context(), username)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && tokenID != middleware.GetTokenID(c)) {
			abort(c, http.StatusForbidden, "認証トークンが無効です")
			return
		}
		if err != nil {
			abort(c, http.StatusInternalServerError, "トークンの確認に失敗しました")
			log.Printf("トークン確認エラー: %v", err)
			return
		}

		u, err := s.queries.userByName(c.Request.Context(), username)
		if err != nil {
			abort(c, http.StatusForbidden, "認証トークンが無効です")
			return
		}
		c.Set(contextKeyUser, u)
		c.Next()
	}
}

// currentUser はcurrentTokenが設定したユーザーを返す。
func currentUser(c *gin.Context) user {
	u, _ := c.Get(contextKeyUser)
	cu, _ := u.(user)
	return cu
}

// intParam はパスパラメータを整数として取り出す。整数でなければ404を返す。
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		abort(c, http.StatusNotFound, "見つかりません")
		return 0, false
	}
	return v, true
}

// ownedNote はパスパラメータ id のノートを取得し、現在のユーザーの所有であることを確認する。
func (s *Server) ownedNote(c *gin.Context) (notes.StoredNote, bool) {
	id, ok := intParam(c, "id")
	if !ok {
		return notes.StoredNote{}, false
	}

	n, err := s.queries.note(c.Request.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		abort(c, http.StatusNotFound, "ノートが見つかりません")
		return notes.StoredNote{}, false
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, "ノートの取得に失敗しました")
		log.Printf("ノート取得エラー: %v", err)
		return notes.StoredNote{}, false
	}
	if n.UserID != currentUser(c).ID {
		abort(c, http.StatusUnauthorized, "このノートへのアクセス権がありません")
		return notes.StoredNote{}, false
	}
	return n, true
}

// handleCreateNote はノート作成を処理するハンドラを返す。
func (s *Server) handleCreateNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notes.Note
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, fmt.Sprintf("リクエストが不正です: %v", err))
			return
		}

		created, err := s.queries.createNote(c.Request.Context(), currentUser(c).ID, req, s.now())
		if err != nil {
			abort(c, http.StatusInternalServerError, "ノートの作成に失敗しました")
			log.Printf("ノート作成エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, created)
	}
}

// handleListNotes は現在のユーザーのノート一覧取得を処理するハンドラを返す。
func (s *Server) handleListNotes() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := s.queries.notesByUser(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			abort(c, http.StatusInternalServerError, "ノート一覧の取得に失敗しました")
			log.Printf("ノート一覧取得エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// handleGetNote はノート取得を処理するハンドラを返す。
func (s *Server) handleGetNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := s.ownedNote(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

// handleUpdateNote はノート更新を処理するハンドラを返す。
func (s *Server) handleUpdateNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := s.ownedNote(c)
		if !ok {
			return
		}

		var req notes.Note
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, fmt.Sprintf("リクエストが不正です: %v", err))
			return
		}

		if err := s.queries.updateNote(c.Request.Context(), n.ID, req); err != nil {
			abort(c, http.StatusInternalServerError, "ノートの更新に失敗しました")
			log.Printf("ノート更新エラー: %v", err)
			return
		}
		c.Status(http.StatusOK)
	}
}

// handleDeleteNote はノート削除を処理するハンドラを返す。
// ノートに付いたタグ付けも削除する。
func (s *Server) handleDeleteNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := s.ownedNote(c)
		if !ok {
			return
		}

		if err := s.queries.deleteNote(c.Request.Context(), n.ID); err != nil {
			abort(c, http.StatusInternalServerError, "ノートの削除に失敗しました")
			log.Printf("ノート削除エラー: %v", err)
			return
		}
		c.Status(http.StatusOK)
	}
}

// handleTagNote はタグ付けを処理するハンドラを返す。
// 同名のタグがユーザーに無ければ作成してから付ける。
func (s *Server) handleTagNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := s.ownedNote(c)
		if !ok {
			return
		}

		name := c.Param("tag")
		if name == "" {
			abort(c, http.StatusBadRequest, "タグ名が空です")
			return
		}

		tag, err := s.queries.findOrCreateTag(c.Request.Context(), currentUser(c).ID, name)
		if err != nil {
			abort(c, http.StatusInternalServerError, "タグの作成に失敗しました")
			log.Printf("タグ作成エラー: %v", err)
			return
		}
		if err := s.queries.tagNote(c.Request.Context(), n.ID, tag.ID); err != nil {
			abort(c, http.StatusInternalServerError, "タグ付けに失敗しました")
			log.Printf("タグ付けエラー: %v", err)
			return
		}
		c.Status(http.StatusOK)
	}
}

// handleUntagNote はタグ外しを処理するハンドラを返す。
// パスの :tag にはタグIDを指定する。
func (s *Server) handleUntagNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := s.ownedNote(c)
		if !ok {
			return
		}
		tagID, ok := intParam(c, "tag")
		if !ok {
			return
		}

		if err := s.queries.untagNote(c.Request.Context(), n.ID, tagID); err != nil {
			abort(c, http.StatusInternalServerError, "タグ外しに失敗しました")
			log.Printf("タグ外しエラー: %v", err)
			return
		}
		c.Status(http.StatusOK)
	}
}

// handleNoteTags はノートのタグ一覧取得を処理するハンドラを返す。
func (s *Server) handleNoteTags() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := s.ownedNote(c)
		if !ok {
			return
		}

		tags, err := s.queries.noteTags(c.Request.Context(), n.ID)
		if err != nil {
			abort(c, http.StatusInternalServerError, "タグ一覧の取得に失敗しました")
			log.Printf("タグ一覧取得エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, tags)
	}
}
