package router

import (
	"context"
	"crypto/subtle"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"

	"resume-advisor/internal/api/handler"
	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
)

// RequestIDHeader 请求ID响应头
const RequestIDHeader = "X-Request-ID"

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, analysisHandler *handler.AnalysisHandler, auth config.AuthConfig) {
	h.Use(RequestID(), AccessLog())

	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")
	if mw := APIKeyAuth(auth); mw != nil {
		api.Use(mw)
	}

	api.GET("/job-categories", analysisHandler.HandleJobCategories)
	api.POST("/analyze/text", analysisHandler.HandleAnalyzeText)
	api.POST("/analyze/upload", analysisHandler.HandleAnalyzeUpload)

	api.POST("/submissions", analysisHandler.HandleSubmit)
	api.GET("/submissions/:uuid", analysisHandler.HandleGetSubmission)
	api.GET("/submissions/:uuid/report", analysisHandler.HandleDownloadReport)
}

// RequestID 沿用客户端的请求ID, 没有时生成一个, 并写入上下文日志
func RequestID() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Response.Header.Set(RequestIDHeader, id)
		ctx.Set("request_id", id)

		l := logger.Logger.With().Str("request_id", id).Logger()
		ctx.Next(l.WithContext(c))
	}
}

// AccessLog 记录请求与响应状态
func AccessLog() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		hlog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		hlog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	}
}

// APIKeyAuth 配置了 key 时启用的鉴权中间件, 未配置返回 nil
func APIKeyAuth(auth config.AuthConfig) app.HandlerFunc {
	keys := make([][]byte, 0, len(auth.APIKeys))
	for _, k := range auth.APIKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	header := auth.Header
	if header == "" {
		header = "X-API-Key"
	}

	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+header, ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			for _, k := range keys {
				if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "API Key 无效或缺失"})
		}),
	)
}
