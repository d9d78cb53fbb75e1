package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// スタックトレースの出力は gin.CustomRecovery に任せ、クライアントには500と {"message": "..."} を返す。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("[PANIC] %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		AbortWithMessage(c, http.StatusInternalServerError, "内部サーバーエラーが発生しました")
	})
}

// AbortWithMessage は後続のハンドラを中断し、{"message": "..."} 形式のエラーを返す。
func AbortWithMessage(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}
