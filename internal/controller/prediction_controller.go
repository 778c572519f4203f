package controller

import (
	"errors"
	"net/http"
	"path/filepath"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/service"
	"smart_lms_analytics/internal/util"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const studentContextKey = "student_context"

type PredictionController struct {
	predictor Predictor
}

func NewPredictionController(predictor Predictor) *PredictionController {
	return &PredictionController{predictor: predictor}
}

// @Summary 模型信息
// @Tags 预测
// @Produce json
// @Success 200 {object} util.Response{data=model.ModelInfo}
// @Router /api/model/info [get]
func (c *PredictionController) ModelInfo(ctx *gin.Context) {
	if !c.predictor.ModelLoaded() {
		util.LogInternalError(ctx, util.ErrModelNotLoaded)
		return
	}
	util.Success(ctx, c.predictor.ModelInfo())
}

// @Summary 特征列表
// @Tags 预测
// @Produce json
// @Success 200 {object} util.Response{data=model.FeatureList}
// @Router /api/features [get]
func (c *PredictionController) Features(ctx *gin.Context) {
	util.Success(ctx, service.Features())
}

// @Summary 示例学生数据
// @Tags 预测
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/sample [get]
func (c *PredictionController) Sample(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"samples": service.Samples(),
		"usage":   `Copy the "data" object and POST to /api/predict`,
	})
}

// @Summary 单个学生风险预测
// @Description 返回风险概率、等级、风险因素与个性化推荐
// @Tags 预测
// @Accept json
// @Produce json
// @Param record body object true "27 个特征，可选 student_id 与 student_context"
// @Success 200 {object} util.Response{data=model.PredictionResponse}
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/predict [post]
func (c *PredictionController) Predict(ctx *gin.Context) {
	if ctx.ContentType() != util.MimeJSON {
		util.BadRequest(ctx, "Content-Type must be application/json")
		return
	}

	var body map[string]interface{}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, "Invalid JSON body")
		return
	}

	studentCtx := studentContextOf(body[studentContextKey])
	delete(body, studentContextKey)

	resp, err := c.predictor.Assess(ctx.Request.Context(), model.FeatureRecord(body), studentCtx, service.ChannelSingle)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// studentContextOf 请求体中 student_context 的宽松解析
func studentContextOf(v interface{}) *model.StudentContext {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	spec, _ := m["specialization"].(string)
	return &model.StudentContext{
		Year:           util.IntOr(m["year"], 1),
		Semester:       util.IntOr(m["semester"], 1),
		Specialization: spec,
	}
}

// @Summary 批量预测
// @Description 单个学生失败不影响其它学生
// @Tags 预测
// @Accept json
// @Produce json
// @Param request body model.BatchRequest true "学生列表"
// @Success 200 {object} util.Response{data=model.BatchResponse}
// @Failure 400 {object} util.Response
// @Router /api/predict/batch [post]
func (c *PredictionController) PredictBatch(ctx *gin.Context) {
	var req model.BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Request must contain a students list")
		return
	}
	if len(req.Students) == 0 {
		util.BadRequest(ctx, "Students list is empty")
		return
	}

	util.Success(ctx, c.predictor.PredictBatch(ctx.Request.Context(), req.Students))
}

// @Summary CSV 批量打分
// @Description 表头为特征名，返回每行的 risk_score、risk_level、risk_label
// @Tags 预测
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV 文件"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/predict/csv [post]
func (c *PredictionController) PredictCSV(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, util.ErrEmptyUpload.Error())
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		util.BadRequest(ctx, util.ErrUnsupportedUpload.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()

	batch, err := c.predictor.PredictCSV(ctx.Request.Context(), f)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, batch)
}

// @Summary 预测审计记录
// @Tags 预测
// @Produce json
// @Param student_id query string false "学生 ID"
// @Param limit query int false "条数" default(50)
// @Success 200 {object} util.Response
// @Router /api/predictions/audit [get]
func (c *PredictionController) AuditLog(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	audits, err := c.predictor.AuditLog(ctx.Request.Context(), ctx.Query("student_id"), limit)
	if errors.Is(err, util.ErrAuditDisabled) {
		util.Error(ctx, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, audits)
}
