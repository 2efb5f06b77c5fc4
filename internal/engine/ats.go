package engine

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"career-engine-go/internal/types"
)

// ATS评分卡权重，四个维度之和恒为1.0
const (
	WeightKeywords = 0.40
	WeightFormat   = 0.25
	WeightSections = 0.20
	WeightContent  = 0.15
)

// 关键词维度在无目标岗位时的词表覆盖系数：
// 检出技能数达到词表规模的10%即得满分
const vocabularyCoverageFactor = 0.10

// requiredSections 章节维度检查的必备章节，每缺一个扣除等额分数
var requiredSections = []string{"contact", "experience", "education", "skills"}

// sectionCues 各章节的探测线索词，命中任意一个即视为章节存在
var sectionCues = map[string][]string{
	"contact":    {"email", "phone", "@", "linkedin", "github"},
	"experience": {"experience", "work history", "employment"},
	"education":  {"education", "degree", "university", "college", "bachelor", "master"},
	"skills":     {"skills", "technologies", "competencies", "expertise"},
}

// 内容维度使用的量化成果模式
var metricPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+%`),
	regexp.MustCompile(`\$[\d,]+[kmb]?`),
	regexp.MustCompile(`(?i)\d+\+?\s*(years?|yrs?)`),
	regexp.MustCompile(`(?i)\d+\s*(projects?|clients?|users?|customers?)`),
	regexp.MustCompile(`(?i)increased\s+by\s+\d+`),
	regexp.MustCompile(`(?i)reduced\s+by\s+\d+`),
	regexp.MustCompile(`(?i)\d+[x]\s*(improvement|faster|increase)`),
	regexp.MustCompile(`(?i)[1-9]\d*\s*(team\s+)?members?`),
}

// verbPatterns 行为动词的整词匹配正则，启动时一次性编译
var verbPatterns = func() []*regexp.Regexp {
	ps := make([]*regexp.Regexp, len(actionVerbs))
	for i, verb := range actionVerbs {
		ps[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(verb) + `\b`)
	}
	return ps
}()

// 格式维度使用的结构线索
var (
	emailPattern       = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern       = regexp.MustCompile(`[\d\s\-()+]{10,}`)
	oddGlyphPattern    = regexp.MustCompile(`[│├└┌┐┘┴┬┤►▸▪▫●○★☆✓✗✔✘→←↑↓]`)
	tableLayoutPattern = regexp.MustCompile(`\t{2,}| {10,}`)
	imageRefPattern    = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|bmp|svg)`)
)

// ATSRubricScorer 按固定加权评分卡对简历做ATS兼容性评分
// 评分对缺失的可选字段是全函数：缺什么该维度记0分，绝不报错
type ATSRubricScorer struct {
	extractor *SkillExtractor
}

// NewATSRubricScorer 构造评分器
func NewATSRubricScorer(extractor *SkillExtractor) *ATSRubricScorer {
	return &ATSRubricScorer{extractor: extractor}
}

// Score 计算简历的ATS评分
// resume.Skills 为空时从 Text 重新提取；SectionsPresent 为空时从 Text 探测
func (s *ATSRubricScorer) Score(resume types.ResumeData) types.ATSReport {
	textLower := strings.ToLower(resume.Text)

	skills := resume.Skills
	if len(skills) == 0 {
		skills = s.extractor.Extract(resume.Text)
	}

	sections := s.detectSections(textLower, resume.SectionsPresent)

	keywordScore, found, missing := s.scoreKeywords(skills, resume.TargetRole)
	formatScore := s.scoreFormat(resume.Text, textLower)
	sectionScore := s.scoreSections(sections)
	contentScore, verbCount, metricCount, generics := s.scoreContent(resume.Text, textLower)

	overall := clampScore(
		keywordScore*WeightKeywords +
			formatScore*WeightFormat +
			sectionScore*WeightSections +
			contentScore*WeightContent,
	)

	return types.ATSReport{
		OverallScore: round1(overall),
		Breakdown: []types.RubricComponent{
			{Name: "keywords", Weight: WeightKeywords, Score: round1(keywordScore)},
			{Name: "format", Weight: WeightFormat, Score: round1(formatScore)},
			{Name: "sections", Weight: WeightSections, Score: round1(sectionScore)},
			{Name: "content", Weight: WeightContent, Score: round1(contentScore)},
		},
		KeywordsFound:   found,
		KeywordsMissing: missing,
		Sections:        sections,
		ActionVerbCount: verbCount,
		MetricCount:     metricCount,
		GenericPhrases:  generics,
		DetectedSkills:  skills,
	}
}

// scoreKeywords 关键词维度
// 有目标岗位时按岗位参照集的命中比例计分；否则按词表覆盖率计分（封顶100）
func (s *ATSRubricScorer) scoreKeywords(skills []string, targetRole string) (float64, []string, []string) {
	skillSet := make(map[string]struct{}, len(skills))
	for _, sk := range skills {
		skillSet[strings.ToLower(sk)] = struct{}{}
	}

	reference := CareerSkills[strings.ToLower(targetRole)]
	if len(reference) == 0 {
		// 无参照集：检出技能数对词表规模按覆盖系数折算
		if len(SkillVocabulary) == 0 {
			return 0, []string{}, []string{}
		}
		target := float64(len(SkillVocabulary)) * vocabularyCoverageFactor
		score := math.Min(100, float64(len(skillSet))/target*100)
		found := make([]string, 0, len(skillSet))
		for sk := range skillSet {
			found = append(found, sk)
		}
		sort.Strings(found)
		return score, found, []string{}
	}

	found := make([]string, 0, len(reference))
	missing := make([]string, 0, len(reference))
	for _, kw := range reference {
		if _, ok := skillSet[kw]; ok {
			found = append(found, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	sort.Strings(found)
	sort.Strings(missing)
	score := float64(len(found)) / float64(len(reference)) * 100
	return score, found, missing
}

// scoreFormat 格式维度：从100起步，每发现一个ATS不友好问题扣15分
func (s *ATSRubricScorer) scoreFormat(text, textLower string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	issues := 0
	if !emailPattern.MatchString(text) {
		issues++
	}
	if !phonePattern.MatchString(text) {
		issues++
	}
	if oddGlyphPattern.MatchString(text) {
		issues++
	}
	if tableLayoutPattern.MatchString(text) {
		issues++
	}
	if imageRefPattern.MatchString(textLower) {
		issues++
	}

	// 长段落过多说明缺少条目化结构
	longParagraphs := 0
	for _, line := range strings.Split(text, "\n") {
		if len(line) > 200 {
			longParagraphs++
		}
	}
	if longParagraphs > 3 {
		issues++
	}

	// 篇幅异常（过短或过长）
	wordCount := len(strings.Fields(text))
	if wordCount < 200 || wordCount > 1500 {
		issues++
	}

	return clampScore(100 - float64(issues)*15)
}

// detectSections 章节探测
// 调用方显式声明了章节时以声明为准，否则按线索词从文本探测
func (s *ATSRubricScorer) detectSections(textLower string, declared []string) map[string]bool {
	sections := make(map[string]bool, len(requiredSections))

	if len(declared) > 0 {
		declaredSet := make(map[string]struct{}, len(declared))
		for _, d := range declared {
			declaredSet[strings.ToLower(d)] = struct{}{}
		}
		for _, name := range requiredSections {
			_, ok := declaredSet[name]
			sections[name] = ok
		}
		return sections
	}

	for _, name := range requiredSections {
		present := false
		for _, cue := range sectionCues[name] {
			if strings.Contains(textLower, cue) {
				present = true
				break
			}
		}
		sections[name] = present
	}
	return sections
}

// scoreSections 章节维度：四个必备章节各占25分
func (s *ATSRubricScorer) scoreSections(sections map[string]bool) float64 {
	present := 0
	for _, name := range requiredSections {
		if sections[name] {
			present++
		}
	}
	return float64(present) / float64(len(requiredSections)) * 100
}

// scoreContent 内容维度
// 量化成果每处10分（上限50）+ 行为动词每个5分（上限50）- 泛泛空话每条10分（扣分上限30）
func (s *ATSRubricScorer) scoreContent(text, textLower string) (float64, int, int, []string) {
	verbCount := 0
	for _, p := range verbPatterns {
		if p.MatchString(textLower) {
			verbCount++
		}
	}

	metricCount := 0
	for _, p := range metricPatterns {
		metricCount += len(p.FindAllString(text, -1))
	}

	generics := make([]string, 0)
	for _, phrase := range genericPhrases {
		if strings.Contains(textLower, phrase) {
			generics = append(generics, phrase)
		}
	}
	sort.Strings(generics)

	score := math.Min(50, float64(metricCount)*10) +
		math.Min(50, float64(verbCount)*5) -
		math.Min(30, float64(len(generics))*10)
	return clampScore(score), verbCount, metricCount, generics
}

// clampScore 将分数裁剪到 [0,100]
func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// round1 四舍五入保留一位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
