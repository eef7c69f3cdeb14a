package server

import (
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// クロスオリジン分離ヘッダー
// カメラAPIなどをセキュアコンテキスト外でも使えるようにする
const (
	HeaderEmbedderPolicy = "Cross-Origin-Embedder-Policy"
	HeaderOpenerPolicy   = "Cross-Origin-Opener-Policy"

	EmbedderPolicyValue = "require-corp"
	OpenerPolicyValue   = "same-origin"
)

// HeaderRequestID はリクエストIDのヘッダー名
const HeaderRequestID = "X-Request-ID"

// CrossOriginIsolation はすべてのレスポンスにCOEP/COOPヘッダーを付与する
// ハンドラーが書き込む前に設定するので、エラー応答にも必ず含まれる
func CrossOriginIsolation() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(HeaderEmbedderPolicy, EmbedderPolicyValue)
		c.Header(HeaderOpenerPolicy, OpenerPolicyValue)
		c.Next()
	}
}

// RequestID はリクエストIDを引き継ぐか新しく生成する
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}

// RequestLogger はリクエストごとにデバッグログを出力する
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if !log.Core().Enabled(zap.DebugLevel) {
			return
		}
		log.Debug("HTTPリクエスト",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}

// Recovery はハンドラー内のパニックを500応答に変換する
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.Error("リクエスト処理中にパニックが発生しました",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")),
		)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// AllowMethods は指定以外のメソッドを405で拒否する
func AllowMethods(methods ...string) gin.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(c *gin.Context) {
		if !slices.Contains(methods, c.Request.Method) {
			c.Header("Allow", allow)
			c.AbortWithStatus(http.StatusMethodNotAllowed)
			return
		}
		c.Next()
	}
}

// GuardPath は ".." セグメントやNULを含むパスを400で拒否する
func GuardPath() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.IndexByte(p, 0) >= 0 || containsDotDot(p) {
			c.String(http.StatusBadRequest, "invalid URL path\n")
			c.Abort()
			return
		}
		c.Next()
	}
}

// NoCache はブラウザのキャッシュを無効化する
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Next()
	}
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }
