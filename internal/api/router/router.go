package router

import (
	"context"
	"errors"
	"strconv"

	"career-engine-go/internal/api/handler"
	"career-engine-go/internal/engine"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, engineHandler *handler.EngineHandler) {
	api := h.Group("/api/v1")

	api.POST("/skills/extract", func(c context.Context, ctx *app.RequestContext) {
		var req handler.ExtractSkillsRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := engineHandler.HandleExtractSkills(c, req)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/resume/score", func(c context.Context, ctx *app.RequestContext) {
		var req handler.ScoreResumeRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := engineHandler.HandleScoreResume(c, req)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/careers/predict", func(c context.Context, ctx *app.RequestContext) {
		var req handler.PredictCareersRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := engineHandler.HandlePredictCareers(c, req)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/feedback", func(c context.Context, ctx *app.RequestContext) {
		var req handler.FeedbackRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := engineHandler.HandleSubmitFeedback(c, req)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusAccepted, resp)
	})

	api.POST("/jobs/match", func(c context.Context, ctx *app.RequestContext) {
		var req handler.JobMatchRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := engineHandler.HandleMatchJob(c, req)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 学习洞察
	api.GET("/feedback/stats", func(c context.Context, ctx *app.RequestContext) {
		resp, err := engineHandler.HandleFeedbackStats(c)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/patterns/top", func(c context.Context, ctx *app.RequestContext) {
		limit := 10
		if raw := ctx.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		resp, err := engineHandler.HandleTopPatterns(c, limit)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/skills/:skill/careers", func(c context.Context, ctx *app.RequestContext) {
		resp, err := engineHandler.HandleSkillCareers(c, ctx.Param("skill"))
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, engineHandler.HandleHealth(c))
	})
}

// respondError 按引擎错误分类映射HTTP状态码
func respondError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
	case errors.Is(err, engine.ErrUpstreamUnavailable):
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": err.Error()})
	case errors.Is(err, engine.ErrDataIntegrity):
		ctx.JSON(consts.StatusUnprocessableEntity, utils.H{"error": err.Error()})
	default:
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
	}
}
