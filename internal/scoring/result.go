package scoring

import "fmt"

// Source identifies which scorer produced a Result.
type Source string

const (
	SourceWordCount  Source = "wordcount"
	SourceCategories Source = "categories"
)

// Result is an ephemeral analysis; it is never persisted.
type Result struct {
	Source             Source          `json:"source"`
	OverallScore       int             `json:"overallScore"`
	CategoryScores     map[string]int  `json:"categoryScores,omitempty"`
	Categories         map[string]bool `json:"categories,omitempty"`
	ComponentsComplete float64         `json:"componentsComplete"`
	Feedback           string          `json:"feedback"`
	WordCount          int             `json:"wordCount,omitempty"`
}

// FromCategoryScores builds a Result from raw category scores, e.g. those
// returned by the external scan service. Unknown categories are ignored and
// missing ones count as zero.
func FromCategoryScores(overall float64, raw map[string]float64) Result {
	scores := make(map[string]int, len(Categories))
	flags := make(map[string]bool, len(Categories))
	for _, name := range Categories {
		v := raw[name]
		scores[name] = Round(v)
		flags[name] = Present(v)
	}
	res := Result{
		Source:             SourceCategories,
		OverallScore:       Round(overall),
		CategoryScores:     scores,
		Categories:         flags,
		ComponentsComplete: ComponentsComplete(flags),
	}
	res.Feedback = categoryFeedback(flags)
	return res
}

// ComponentsComplete is the share of categories flagged present.
func ComponentsComplete(flags map[string]bool) float64 {
	if len(Categories) == 0 {
		return 0
	}
	present := 0
	for _, name := range Categories {
		if flags[name] {
			present++
		}
	}
	return float64(present) / float64(len(Categories))
}

// Missing lists absent categories in report order.
func Missing(flags map[string]bool) []string {
	var out []string
	for _, name := range Categories {
		if !flags[name] {
			out = append(out, name)
		}
	}
	return out
}

func categoryFeedback(flags map[string]bool) string {
	missing := Missing(flags)
	switch len(missing) {
	case 0:
		return "All key resume sections are present."
	case len(Categories):
		return "No key resume sections were detected. Consider adding education, projects, experience, skills and achievements."
	case 1:
		return fmt.Sprintf("Consider strengthening the %s section.", missing[0])
	default:
		return fmt.Sprintf("Consider strengthening %d sections, starting with %s.", len(missing), missing[0])
	}
}
