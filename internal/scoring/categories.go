package scoring

import (
	"regexp"
)

// Category names as reported to clients.
const (
	CategoryEducation       = "Education"
	CategoryProjects        = "Projects"
	CategoryWorkExperience  = "Work Experience"
	CategoryTechnicalSkills = "Technical Skills"
	CategoryAchievements    = "Achievements"
)

// Categories lists every category in report order.
var Categories = []string{
	CategoryEducation,
	CategoryProjects,
	CategoryWorkExperience,
	CategoryTechnicalSkills,
	CategoryAchievements,
}

const pointsPerMatch = 20

var categoryPatterns = map[string]*regexp.Regexp{
	CategoryEducation:       regexp.MustCompile(`(?i)(education|university|college|degree|bachelor|master|phd)`),
	CategoryProjects:        regexp.MustCompile(`(?i)(project|developed|implemented|created|built)`),
	CategoryWorkExperience:  regexp.MustCompile(`(?i)(experience|work|job|position|employment|company)`),
	CategoryTechnicalSkills: regexp.MustCompile(`(?i)(skills|technologies|programming|software|technical)`),
	CategoryAchievements:    regexp.MustCompile(`(?i)(achievement|award|honor|certification|accomplishment)`),
}

// KeywordScorer scores each category by keyword hits, 20 points per hit, capped at 100.
type KeywordScorer struct{}

// CategoryScores returns a score per category for text.
func (KeywordScorer) CategoryScores(text string) map[string]float64 {
	scores := make(map[string]float64, len(Categories))
	for _, name := range Categories {
		matches := len(categoryPatterns[name].FindAllStringIndex(text, -1))
		score := matches * pointsPerMatch
		if score > 100 {
			score = 100
		}
		scores[name] = float64(score)
	}
	return scores
}

// Evaluate scores text and derives flags, overall score and completeness.
func (k KeywordScorer) Evaluate(text string) Result {
	scores := k.CategoryScores(text)
	var sum float64
	for _, name := range Categories {
		sum += scores[name]
	}
	res := FromCategoryScores(sum/float64(len(Categories)), scores)
	res.WordCount = WordCount(text)
	return res
}
