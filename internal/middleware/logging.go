// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"bytes"
	"io"
	"speaker-negotiator/pkg/log"
	"time"

	"github.com/gin-gonic/gin"
)

// 请求体和响应体只记录前 maxLoggedBody 个字节
const maxLoggedBody = 2048

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

// LoggerConfig 控制 RequestLogger 的行为。
// SkipPaths 中的路径（例如 /metrics）完全不记录；
// OmitBodyPaths 中的路由只记录状态和耗时，不记录请求/响应体（登录、签发 token 等）。
// 两者都按路由模板匹配，例如 /negotiate/ws/:token。
type LoggerConfig struct {
	SkipPaths     []string
	OmitBodyPaths []string
}

// RequestLogger 是一个 Gin 中间件，记录每个请求的状态、耗时和截断后的请求/响应体。
func RequestLogger(cfg LoggerConfig) gin.HandlerFunc {
	skip := toSet(cfg.SkipPaths)
	omitBody := toSet(cfg.OmitBodyPaths)
	return func(c *gin.Context) {
		path := routePath(c)
		if skip[path] {
			c.Next()
			return
		}
		startTime := time.Now()

		if omitBody[path] {
			c.Next()
			log.Infow("HTTP Request Log",
				"statusCode", c.Writer.Status(),
				"latency", time.Since(startTime).String(),
				"clientIP", c.ClientIP(),
				"method", c.Request.Method,
				"path", path,
			)
			return
		}

		// 读取并重新缓存请求体，以便后续处理函数可以正常读取
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))

		// 使用自定义的 ResponseWriter 捕获响应
		blw := &bodyLogWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"requestBody", truncate(requestBody),
			"responseBody", blw.body.String(),
		)
	}
}

// routePath 优先返回路由模板，路径参数里的 token 不会出现在日志中。
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

func toSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "..."
	}
	return string(b)
}
