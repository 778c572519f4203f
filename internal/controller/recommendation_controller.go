package controller

import (
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/service"
	"smart_lms_analytics/internal/util"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	recs RecommendationGenerator
}

func NewRecommendationController(recs RecommendationGenerator) *RecommendationController {
	return &RecommendationController{recs: recs}
}

// @Summary 生成学习建议
// @Description 按风险等级与风险因素生成解释、行动步骤和激励语，后端失败时退回规则
// @Tags 推荐
// @Accept json
// @Produce json
// @Param request body model.RecommendationRequest true "风险信息"
// @Success 200 {object} util.Response{data=model.Recommendation}
// @Failure 400 {object} util.Response
// @Router /api/recommendations [post]
func (c *RecommendationController) Generate(ctx *gin.Context) {
	var req model.RecommendationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	data := req.StudentData
	if data == nil {
		data = model.FeatureRecord{}
	}
	factors := req.RiskFactors
	if factors == nil {
		factors = service.IdentifyRiskFactors(data)
	}

	rec := c.recs.Generate(ctx.Request.Context(), model.RecommendationInput{
		StudentData:     data,
		RiskLevel:       req.RiskLevel,
		RiskProbability: req.RiskProbability,
		RiskFactors:     factors,
		Context:         req.Context,
	}, req.StudentID)

	util.Success(ctx, rec)
}
