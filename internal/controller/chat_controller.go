package controller

import (
	"errors"
	"net/http"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	projects    ProjectAssistant
	analytics   AnalyticsAssistant
	recommender string
}

func NewChatController(projects ProjectAssistant, analytics AnalyticsAssistant, recommender string) *ChatController {
	return &ChatController{projects: projects, analytics: analytics, recommender: recommender}
}

func bindChat(ctx *gin.Context) (*model.ChatRequest, bool) {
	var req model.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" || req.StudentID == "" {
		util.BadRequest(ctx, "Query and studentId required")
		return nil, false
	}
	return &req, true
}

func bindStudent(ctx *gin.Context) (string, bool) {
	var req model.StudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.StudentID == "" {
		util.BadRequest(ctx, "studentId required")
		return "", false
	}
	return req.StudentID, true
}

// @Summary 项目与任务助手
// @Tags 聊天
// @Accept json
// @Produce json
// @Param request body model.ChatRequest true "问题与学生 ID"
// @Success 200 {object} util.Response{data=model.ChatResponse}
// @Failure 400 {object} util.Response
// @Router /api/chat [post]
func (c *ChatController) Chat(ctx *gin.Context) {
	req, ok := bindChat(ctx)
	if !ok {
		return
	}

	resp, err := c.projects.Handle(ctx.Request.Context(), req.Query, req.StudentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 学习分析助手
// @Tags 聊天
// @Accept json
// @Produce json
// @Param request body model.ChatRequest true "问题与学生 ID"
// @Success 200 {object} util.Response{data=model.ChatResponse}
// @Failure 400 {object} util.Response
// @Router /api/chat/analytics [post]
func (c *ChatController) Analytics(ctx *gin.Context) {
	req, ok := bindChat(ctx)
	if !ok {
		return
	}

	resp, err := c.analytics.Handle(ctx.Request.Context(), req.Query, req.StudentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 学习活动热力图
// @Description 最近一年每天的进度更新次数
// @Tags 聊天
// @Accept json
// @Produce json
// @Param request body model.StudentRequest true "学生 ID"
// @Success 200 {object} util.Response{data=model.Heatmap}
// @Router /api/heatmap [post]
func (c *ChatController) Heatmap(ctx *gin.Context) {
	studentID, ok := bindStudent(ctx)
	if !ok {
		return
	}

	heatmap, err := c.projects.Heatmap(ctx.Request.Context(), studentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, heatmap)
}

// @Summary 聊天模块连通性检查
// @Tags 聊天
// @Accept json
// @Produce json
// @Param request body model.StudentRequest true "学生 ID"
// @Success 200 {object} util.Response{data=model.ConnectionStatus}
// @Router /api/chat/test [post]
func (c *ChatController) TestConnection(ctx *gin.Context) {
	studentID, ok := bindStudent(ctx)
	if !ok {
		return
	}

	status, err := c.projects.TestConnection(ctx.Request.Context(), studentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	status.Recommender = c.recommender
	util.Success(ctx, status)
}

// @Summary 学生的即时风险评估
// @Tags 聊天
// @Produce json
// @Param studentId path string true "学生 ObjectID"
// @Success 200 {object} util.Response{data=model.StudentPrediction}
// @Failure 404 {object} util.Response
// @Router /api/analytics/predictions/{studentId} [get]
func (c *ChatController) StudentPredictions(ctx *gin.Context) {
	pred, err := c.analytics.GetPredictions(ctx.Request.Context(), ctx.Param("studentId"))
	if errors.Is(err, util.ErrStudentNotFound) {
		util.Error(ctx, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, pred)
}
