package engine

import "sort"

// 技能词表与职业参照数据
// 词表中的技能均为规范化小写形式，是全系统技能标识的唯一来源

// CareerSkills 各职业的参照技能集合，用于关键词评分和分类器的职业空间
var CareerSkills = map[string][]string{
	"data scientist": {
		"python", "machine learning", "statistics", "sql", "tensorflow",
		"pandas", "numpy", "scikit-learn", "deep learning", "data visualization",
	},
	"frontend developer": {
		"html", "css", "javascript", "react", "vue", "typescript",
		"angular", "webpack", "sass", "responsive design",
	},
	"backend developer": {
		"python", "java", "nodejs", "sql", "api", "docker",
		"mongodb", "postgresql", "rest", "microservices",
	},
	"mobile app developer": {
		"flutter", "react native", "swift", "kotlin", "android",
		"ios", "dart", "mobile ui", "firebase",
	},
	"devops engineer": {
		"docker", "kubernetes", "aws", "azure", "ci/cd",
		"jenkins", "terraform", "linux", "ansible", "monitoring",
	},
	"full stack developer": {
		"javascript", "react", "nodejs", "python", "sql",
		"html", "css", "git", "docker", "rest api",
	},
	"machine learning engineer": {
		"python", "tensorflow", "pytorch", "machine learning", "deep learning",
		"neural networks", "nlp", "computer vision", "mlops",
	},
	"software engineer": {
		"python", "java", "javascript", "sql", "git",
		"algorithms", "data structures", "oop", "testing",
	},
	"web developer": {
		"html", "css", "javascript", "php", "mysql",
		"responsive design", "wordpress", "bootstrap",
	},
	"data analyst": {
		"python", "sql", "excel", "tableau", "data visualization",
		"statistics", "pandas", "power bi",
	},
	"project manager": {
		"agile", "scrum", "jira", "communication", "leadership",
		"risk management", "budgeting", "planning",
	},
	"digital marketer": {
		"seo", "ppc", "social media", "email marketing",
		"google ads", "facebook ads", "content marketing",
	},
	"financial analyst": {
		"financial modeling", "excel", "budgeting", "forecasting",
		"analysis", "valuation", "financial reporting",
	},
	"hr manager": {
		"recruitment", "employee relations", "payroll", "hris", "training",
		"labor law", "performance management", "benefits administration",
	},
}

// 词表中额外的通用技能，不专属于某个职业参照集
var extraSkills = []string{
	"c#", "go", "ruby", "scala", "redis", "graphql", "spring",
	"django", "flask", "express", "bash", "devops", "grafana",
	"prometheus", "spark", "hadoop", "jupyter", "r", "figma",
	"ui/ux", "bootstrap", "sqlite", "gcp", "teamwork",
	"problem solving", "project management", "analytical",
	"critical thinking", "negotiation", "time management",
}

// actionVerbs 内容评分使用的行为动词库
var actionVerbs = []string{
	// 领导类
	"led", "managed", "directed", "supervised", "coordinated", "executed",
	"spearheaded", "orchestrated", "oversaw", "mentored",
	// 成果类
	"achieved", "accomplished", "delivered", "exceeded", "surpassed",
	"attained", "completed", "won",
	// 创建类
	"created", "developed", "designed", "built", "established",
	"implemented", "launched", "initiated", "founded", "introduced",
	// 改进类
	"improved", "enhanced", "optimized", "streamlined", "increased",
	"reduced", "accelerated", "upgraded", "transformed",
	// 分析类
	"analyzed", "evaluated", "assessed", "researched", "investigated",
	"identified", "discovered", "examined", "audited",
	// 技术类
	"programmed", "engineered", "automated", "integrated", "deployed",
	"configured", "debugged", "tested", "maintained",
}

// genericPhrases 应避免的泛泛空话，每命中一条对内容分施加固定扣分
var genericPhrases = []string{
	"team player", "hard worker", "detail oriented", "self starter",
	"go getter", "think outside the box", "results driven",
	"excellent communication skills", "highly motivated",
	"responsible for", "duties included", "worked on", "helped with",
	"assisted with", "was responsible", "various tasks",
	"fast learner", "passionate", "synergy", "proactive",
}

// buildVocabulary 合并所有职业参照集与通用技能，去重后形成全量词表
func buildVocabulary() []string {
	seen := make(map[string]struct{})
	var vocab []string
	for _, skills := range CareerSkills {
		for _, s := range skills {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				vocab = append(vocab, s)
			}
		}
	}
	for _, s := range extraSkills {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			vocab = append(vocab, s)
		}
	}
	return vocab
}

// SkillVocabulary 全量技能词表
var SkillVocabulary = buildVocabulary()

// KnownCareers 返回所有已知职业名，顺序稳定（字典序）
func KnownCareers() []string {
	careers := make([]string, 0, len(CareerSkills))
	for c := range CareerSkills {
		careers = append(careers, c)
	}
	sort.Strings(careers)
	return careers
}
