package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"career-engine-go/internal/config"
	"career-engine-go/internal/engine"
	"career-engine-go/internal/logger"
	"career-engine-go/internal/storage"
	"career-engine-go/internal/tracing"
	"career-engine-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// EngineHandler 评分与推荐引擎的HTTP协调层
// 引擎核心保持纯粹，持久化、缓存、归档、消息分发都在这一层编排
type EngineHandler struct {
	cfg     *config.Config
	storage *storage.Storage

	extractor *engine.SkillExtractor
	scorer    *engine.ATSRubricScorer
	predictor *engine.CareerPredictor
	learning  *engine.LearningEngine
	matcher   *engine.JobFitMatcher
}

// NewEngineHandler 创建引擎协调器
func NewEngineHandler(
	cfg *config.Config,
	st *storage.Storage,
	extractor *engine.SkillExtractor,
	scorer *engine.ATSRubricScorer,
	predictor *engine.CareerPredictor,
	learning *engine.LearningEngine,
	matcher *engine.JobFitMatcher,
) *EngineHandler {
	return &EngineHandler{
		cfg:       cfg,
		storage:   st,
		extractor: extractor,
		scorer:    scorer,
		predictor: predictor,
		learning:  learning,
		matcher:   matcher,
	}
}

// ExtractSkillsRequest 技能提取请求
type ExtractSkillsRequest struct {
	Text string `json:"text"`
}

// ExtractSkillsResponse 技能提取响应
type ExtractSkillsResponse struct {
	Skills []string `json:"skills"`
	Count  int      `json:"count"`
}

// HandleExtractSkills 从自由文本提取技能
// 提取是全函数：无命中返回空列表，不报错
func (h *EngineHandler) HandleExtractSkills(ctx context.Context, req ExtractSkillsRequest) (*ExtractSkillsResponse, error) {
	skills := h.extractor.Extract(req.Text)
	return &ExtractSkillsResponse{Skills: skills, Count: len(skills)}, nil
}

// ScoreResumeRequest ATS评分请求
type ScoreResumeRequest struct {
	Text            string   `json:"text"`
	Skills          []string `json:"skills,omitempty"`
	SectionsPresent []string `json:"sections_present,omitempty"`
	TargetRole      string   `json:"target_role,omitempty"`
}

// ScoreResumeResponse ATS评分响应
type ScoreResumeResponse struct {
	AnalysisID string          `json:"analysis_id"`
	Report     types.ATSReport `json:"report"`
	// Predictions 顺带返回的职业预测，便于前端一次展示
	Predictions []types.CareerCandidate `json:"predictions,omitempty"`
}

// HandleScoreResume ATS评分
// 评分落历史表；原文短期缓存进Redis并异步归档到对象存储
func (h *EngineHandler) HandleScoreResume(ctx context.Context, req ScoreResumeRequest) (*ScoreResumeResponse, error) {
	if strings.TrimSpace(req.Text) == "" && len(req.Skills) == 0 {
		return nil, fmt.Errorf("%w: text与skills至少提供一个", engine.ErrValidation)
	}

	tracer := otel.Tracer("career-engine/handler")
	ctx, span := tracer.Start(ctx, "engine.ScoreResume")
	defer span.End()
	span.SetAttributes(
		attribute.String("resume.preview", tracing.SafeResumeContent(req.Text)),
		attribute.String("target_role", req.TargetRole),
	)

	report := h.scorer.Score(types.ResumeData{
		Text:            req.Text,
		Skills:          req.Skills,
		SectionsPresent: req.SectionsPresent,
		TargetRole:      req.TargetRole,
	})

	uuidV7, err := uuid.NewV7()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, fmt.Errorf("生成分析ID失败: %w", err)
	}
	analysisID := uuidV7.String()

	// 预测失败不影响评分结果本身
	predictions, err := h.predictor.Predict(ctx, report.DetectedSkills)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("评分附带的职业预测失败")
		predictions = nil
	}
	predictedCareer := ""
	if len(predictions) > 0 {
		predictedCareer = predictions[0].Career
	}

	// 评分历史与归档都是增强路径，失败降级为纯内存响应
	if repo := h.storage.AnalysisRepo(); repo != nil {
		if err := repo.SaveAnalysis(ctx, analysisID, report, req.TargetRole, predictedCareer); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("analysis_id", analysisID).Msg("写入评分历史失败")
		} else {
			h.archiveAnalysisText(ctx, analysisID, req.Text)
		}
	}

	return &ScoreResumeResponse{
		AnalysisID:  analysisID,
		Report:      report,
		Predictions: predictions,
	}, nil
}

// archiveAnalysisText 缓存原文并异步归档到对象存储
func (h *EngineHandler) archiveAnalysisText(ctx context.Context, analysisID, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if h.storage.Redis != nil {
		if err := h.storage.Redis.CacheAnalysisText(ctx, analysisID, text, 24*time.Hour); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("简历原文缓存失败")
		}
	}
	if h.storage.MinIO == nil {
		return
	}

	go func() {
		archiveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		objectKey, err := h.storage.MinIO.ArchiveAnalysisText(archiveCtx, analysisID, text)
		if err != nil {
			logger.Error().Err(err).Str("analysis_id", analysisID).Msg("简历原文归档失败")
			return
		}
		if repo := h.storage.AnalysisRepo(); repo != nil {
			if err := repo.MarkArchived(archiveCtx, analysisID, objectKey); err != nil {
				logger.Error().Err(err).Str("analysis_id", analysisID).Msg("更新归档状态失败")
			}
		}
	}()
}

// PredictCareersRequest 职业预测请求，skills与text至少提供一个
type PredictCareersRequest struct {
	Skills []string `json:"skills,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// PredictCareersResponse 职业预测响应
type PredictCareersResponse struct {
	Skills     []string                `json:"skills"`
	Candidates []types.CareerCandidate `json:"candidates"`
}

// HandlePredictCareers 职业预测
func (h *EngineHandler) HandlePredictCareers(ctx context.Context, req PredictCareersRequest) (*PredictCareersResponse, error) {
	tracer := otel.Tracer("career-engine/handler")
	ctx, span := tracer.Start(ctx, "engine.PredictCareers")
	defer span.End()

	skills := req.Skills
	if len(skills) == 0 && strings.TrimSpace(req.Text) != "" {
		skills = h.extractor.Extract(req.Text)
	}
	span.SetAttributes(attribute.Int("skills.count", len(skills)))

	candidates, err := h.predictor.Predict(ctx, skills)
	if err != nil {
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeClassifier,
			attribute.Int("skills.count", len(skills)))
		return nil, err
	}
	return &PredictCareersResponse{Skills: skills, Candidates: candidates}, nil
}

// FeedbackRequest 反馈提交请求
type FeedbackRequest struct {
	PredictedCareer string   `json:"predicted_career"`
	CorrectCareer   string   `json:"correct_career,omitempty"`
	Skills          []string `json:"skills"`
	Polarity        string   `json:"polarity"`
}

// FeedbackResponse 反馈提交响应
type FeedbackResponse struct {
	FeedbackID string `json:"feedback_id"`
	// Mode 处理模式: queued(异步入队) / applied(同步已生效)
	Mode string `json:"mode"`
}

// HandleSubmitFeedback 提交反馈
// 队列可用时发布后立即返回，由消费worker驱动学习引擎；
// 队列缺席时退化为同步路径，学习在请求内完成
func (h *EngineHandler) HandleSubmitFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResponse, error) {
	event := types.FeedbackEvent{
		PredictedCareer: req.PredictedCareer,
		CorrectCareer:   req.CorrectCareer,
		Skills:          req.Skills,
		Polarity:        types.FeedbackPolarity(strings.ToLower(strings.TrimSpace(req.Polarity))),
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成反馈ID失败: %w", err)
	}
	feedbackID := uuidV7.String()

	if h.storage.RabbitMQ != nil {
		msg := storage.FeedbackMessage{
			FeedbackID:  feedbackID,
			Event:       event,
			SubmittedAt: time.Now().UnixMilli(),
		}
		if err := h.storage.RabbitMQ.PublishFeedback(ctx, msg); err == nil {
			return &FeedbackResponse{FeedbackID: feedbackID, Mode: "queued"}, nil
		} else {
			logger.Ctx(ctx).Warn().Err(err).Msg("反馈入队失败，退化为同步处理")
		}
	}

	if err := h.applyFeedback(ctx, feedbackID, event); err != nil {
		return nil, err
	}
	return &FeedbackResponse{FeedbackID: feedbackID, Mode: "applied"}, nil
}

// applyFeedback 驱动学习引擎并落审计记录，同步与消费路径共用
func (h *EngineHandler) applyFeedback(ctx context.Context, feedbackID string, event types.FeedbackEvent) error {
	if err := h.learning.RecordFeedback(ctx, event); err != nil {
		return err
	}
	if repo := h.storage.FeedbackRepo(); repo != nil {
		if err := repo.SaveRecord(ctx, feedbackID, event); err != nil {
			// 模式表已更新，审计失败只记日志不回滚学习效果
			logger.Ctx(ctx).Error().Err(err).Str("feedback_id", feedbackID).Msg("写入反馈审计记录失败")
		}
	}
	return nil
}

// StartFeedbackConsumers 启动反馈消费worker，阻塞直到ctx取消
// RabbitMQ缺席时直接返回，反馈全部走同步路径
func (h *EngineHandler) StartFeedbackConsumers(ctx context.Context) error {
	if h.storage.RabbitMQ == nil {
		return nil
	}
	workers := h.cfg.RabbitMQ.ConsumerWorkers["feedback_consumer_workers"]
	if workers <= 0 {
		workers = 2
	}
	logger.Info().Int("workers", workers).Msg("启动反馈消费worker")

	return h.storage.RabbitMQ.ConsumeFeedback(ctx, workers, func(msgCtx context.Context, msg storage.FeedbackMessage) error {
		err := h.applyFeedback(msgCtx, msg.FeedbackID, msg.Event)
		// 结构非法的消息重试也不会成功，确认后丢弃
		if errors.Is(err, engine.ErrValidation) {
			logger.Warn().Err(err).Str("feedback_id", msg.FeedbackID).Msg("丢弃结构非法的反馈消息")
			return nil
		}
		return err
	})
}

// JobMatchRequest 岗位匹配请求
type JobMatchRequest struct {
	ResumeSkills    []string `json:"resume_skills,omitempty"`
	ResumeText      string   `json:"resume_text,omitempty"`
	RequiredSkills  []string `json:"required_skills,omitempty"`
	PreferredSkills []string `json:"preferred_skills,omitempty"`
	JobDescription  string   `json:"job_description,omitempty"`
}

// HandleMatchJob 简历-岗位匹配
// 简历技能缺省时从简历文本提取；必备/加分技能都缺省时从岗位描述提取作为必备集
func (h *EngineHandler) HandleMatchJob(ctx context.Context, req JobMatchRequest) (*types.JobFitResult, error) {
	tracer := otel.Tracer("career-engine/handler")
	ctx, span := tracer.Start(ctx, "engine.MatchJob")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.preview",
			tracing.SafeAttributeValue("job_description", req.JobDescription, tracing.DefaultMaxLength)),
	)

	resumeSkills := req.ResumeSkills
	if len(resumeSkills) == 0 {
		resumeSkills = h.extractor.Extract(req.ResumeText)
	}

	required := req.RequiredSkills
	preferred := req.PreferredSkills
	if len(required) == 0 && len(preferred) == 0 && strings.TrimSpace(req.JobDescription) != "" {
		required = h.extractor.Extract(req.JobDescription)
	}

	result := h.matcher.Match(ctx, resumeSkills, required, preferred, req.ResumeText, req.JobDescription)
	return &result, nil
}

// FeedbackStatsResponse 反馈统计响应
type FeedbackStatsResponse struct {
	Stats storage.FeedbackStats `json:"stats"`
	// PerCareer 各职业的反馈准确率，反馈总量降序
	PerCareer []storage.CareerAccuracy `json:"per_career"`
}

// HandleFeedbackStats 反馈统计，学习洞察接口之一
func (h *EngineHandler) HandleFeedbackStats(ctx context.Context) (*FeedbackStatsResponse, error) {
	repo := h.storage.FeedbackRepo()
	if repo == nil {
		return nil, fmt.Errorf("%w: 反馈统计需要MySQL", engine.ErrUpstreamUnavailable)
	}
	stats, err := repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	perCareer, err := repo.AccuracyByCareer(ctx)
	if err != nil {
		return nil, err
	}
	return &FeedbackStatsResponse{Stats: stats, PerCareer: perCareer}, nil
}

// TopPatternsResponse 高置信模式响应
type TopPatternsResponse struct {
	Patterns []types.SkillCareerPattern `json:"patterns"`
}

// HandleTopPatterns 按置信度降序返回学习到的模式
func (h *EngineHandler) HandleTopPatterns(ctx context.Context, limit int) (*TopPatternsResponse, error) {
	patterns, err := h.storage.PatternStore().TopPatterns(ctx, limit)
	if err != nil {
		return nil, err
	}
	if patterns == nil {
		patterns = []types.SkillCareerPattern{}
	}
	return &TopPatternsResponse{Patterns: patterns}, nil
}

// SkillCareersResponse 单技能的职业关联响应
type SkillCareersResponse struct {
	Skill    string                     `json:"skill"`
	Patterns []types.SkillCareerPattern `json:"patterns"`
}

// HandleSkillCareers 给定技能学到的职业关联，按置信度降序
func (h *EngineHandler) HandleSkillCareers(ctx context.Context, skill string) (*SkillCareersResponse, error) {
	skill = strings.ToLower(strings.TrimSpace(skill))
	if skill == "" {
		return nil, fmt.Errorf("%w: skill不能为空", engine.ErrValidation)
	}

	patterns, err := h.storage.PatternStore().ListBySkills(ctx, []string{skill})
	if err != nil {
		return nil, err
	}
	// 内存后端的ListBySkills已按置信度排序，GORM后端改用带排序的专用查询
	if gs, ok := h.storage.PatternStore().(*storage.GormPatternStore); ok {
		if sorted, err := gs.CareersForSkill(ctx, skill); err == nil {
			patterns = sorted
		}
	}
	if patterns == nil {
		patterns = []types.SkillCareerPattern{}
	}
	return &SkillCareersResponse{Skill: skill, Patterns: patterns}, nil
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components"`
}

// HandleHealth 健康检查，核心引擎永远可用，组件状态如实上报
func (h *EngineHandler) HandleHealth(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:     "ok",
		Components: h.storage.ComponentStatus(),
	}
}
