package resumes

type scanRequest struct {
	ResumeURL string `json:"resumeUrl"`
}

type legacyParseRequest struct {
	ResumeURL string `json:"resumeURL"`
}

type legacyParseResponse struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

type legacyScanResponse struct {
	OverallScore   int            `json:"overallScore"`
	CategoryScores map[string]int `json:"categoryScores"`
}
