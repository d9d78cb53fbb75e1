package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
// Subject にユーザー名を持つ。
type JWTClaims struct {
	jwt.RegisteredClaims
	// Role はユーザーの権限（"user" または "admin"）。
	Role string `json:"role"`
}

const (
	// contextKeyUsername は認証済みユーザー名をGinコンテキストに格納するキー。
	contextKeyUsername = "username"
	// contextKeyTokenID は検証済みトークンのIDをGinコンテキストに格納するキー。
	contextKeyTokenID = "token_id"
)

// issuer はトークンの発行者。
const issuer = "notor-devapi"

// NewClaims はユーザー名と権限から有効期間ttlのクレームを生成する。
// トークンIDには新しいUUIDを割り当てる。
func NewClaims(username, role string, ttl time.Duration) JWTClaims {
	now := time.Now()
	return JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
		Role: role,
	}
}

// SignJWT はクレームをHS512で署名したJWTトークンを返す。
func SignJWT(secret string, claims JWTClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// GenerateJWT はユーザー名と権限から有効期間ttlのJWTトークンを生成する。
func GenerateJWT(secret, username, role string, ttl time.Duration) (string, error) {
	return SignJWT(secret, NewClaims(username, role, ttl))
}

// JWTAuth はAuthorizationヘッダーのBearerトークンを検証するGinミドルウェアを返す。
// 検証に失敗した場合は403と {"message": "..."} を返す。
// 成功した場合、コンテキストに "username" と "token_id" を設定する。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortForbidden(c, "認証ヘッダーがありません")
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			abortForbidden(c, "認証ヘッダーの形式が不正です")
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
		if errors.Is(err, jwt.ErrTokenExpired) {
			abortForbidden(c, "認証トークンの有効期限が切れています")
			return
		}
		if err != nil || !token.Valid || claims.Subject == "" {
			abortForbidden(c, "認証トークンが無効です")
			return
		}

		c.Set(contextKeyUsername, claims.Subject)
		c.Set(contextKeyTokenID, claims.ID)
		c.Next()
	}
}

// GetUsername はGinコンテキストから認証済みユーザー名を取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetUsername(c *gin.Context) string {
	username, _ := c.Get(contextKeyUsername)
	if name, ok := username.(string); ok {
		return name
	}
	return ""
}

func abortForbidden(c *gin.Context, message string) {
	AbortWithMessage(c, http.StatusForbidden, message)
}

// GetTokenID はGinコンテキストから検証済みトークンのIDを取得する。
func GetTokenID(c *gin.Context) string {
	return c.GetString(contextKeyTokenID)
}
