package types

import "time"

// ExperienceMatch is the coarse tier derived from the semantic score
type ExperienceMatch string

const (
	ExperienceWeak     ExperienceMatch = "Weak"
	ExperienceModerate ExperienceMatch = "Moderate"
	ExperienceStrong   ExperienceMatch = "Strong"
)

// AnalysisResult is the outcome of scoring a resume, optionally against a job description
type AnalysisResult struct {
	ATSScore        float64         `json:"ats_score"`
	MatchedSkills   []string        `json:"matched_skills"`
	MissingSkills   []string        `json:"missing_skills"`
	ExperienceMatch ExperienceMatch `json:"experience_match"`
	Suggestions     []string        `json:"suggestions"`
	SemanticScore   *float64        `json:"semantic_score,omitempty"`
	SkillScore      *float64        `json:"skill_score,omitempty"`
	Mode            string          `json:"mode"`
}

// Analysis modes
const (
	ModeComparative  = "comparative"
	ModeGeneralAudit = "general_audit"
)

// OptimizationMetadata records the request that produced an optimized derivative
type OptimizationMetadata struct {
	JobDescription string    `json:"job_description"`
	CompanyName    string    `json:"company_name,omitempty"`
	OptimizedAt    time.Time `json:"optimized_at"`
}

// Resume is the persisted document for one uploaded or derived resume version
type Resume struct {
	ID                   string                `json:"id"`
	UserID               string                `json:"user_id"`
	Filename             string                `json:"filename"`
	ContentText          string                `json:"content_text"`
	Skills               []string              `json:"skills"`
	ATSScore             *float64              `json:"ats_score"`
	AnalysisResult       *AnalysisResult       `json:"analysis_result"`
	Version              int                   `json:"version"`
	ParentResumeID       *string               `json:"parent_resume_id"`
	UploadedAt           time.Time             `json:"uploaded_at"`
	LastAnalyzedAt       *time.Time            `json:"last_analyzed_at,omitempty"`
	OptimizedContent     *OptimizeResumeOutput `json:"optimized_content,omitempty"`
	OptimizationMetadata *OptimizationMetadata `json:"optimization_metadata,omitempty"`
	QualityCheck         *QualityReport        `json:"quality_check,omitempty"`
	QualityCheckedAt     *time.Time            `json:"quality_checked_at,omitempty"`
	ScoreExplanation     *ScoreExplanation     `json:"score_explanation,omitempty"`
	ExplanationAt        *time.Time            `json:"explanation_generated_at,omitempty"`
	InterviewPrep        *InterviewPrep        `json:"interview_prep,omitempty"`
	InterviewPrepAt      *time.Time            `json:"interview_prep_generated_at,omitempty"`

	// Seq is the store-assigned insertion sequence, used to break version ties.
	Seq int64 `json:"-"`
}

// Score returns the ATS score, treating a missing score as zero
func (r *Resume) Score() float64 {
	if r == nil || r.ATSScore == nil {
		return 0
	}
	return *r.ATSScore
}

// IsOptimized reports whether the resume was produced by the optimizer
func (r *Resume) IsOptimized() bool {
	return r.OptimizedContent != nil
}

// UploadResponse is returned after a resume has been stored
type UploadResponse struct {
	ResumeID        string   `json:"resume_id"`
	Message         string   `json:"message"`
	ExtractedSkills []string `json:"extracted_skills"`
}

// ResumeSummary is the list view of a resume
type ResumeSummary struct {
	ID             string          `json:"id"`
	Filename       string          `json:"filename"`
	UploadedAt     time.Time       `json:"uploaded_at"`
	ATSScore       *float64        `json:"ats_score"`
	AnalysisResult *AnalysisResult `json:"analysis_result"`
	Version        int             `json:"version"`
	ParentResumeID *string         `json:"parent_resume_id"`
}

// VersionEntry is one row of a version history
type VersionEntry struct {
	ID                   string                `json:"id"`
	Version              int                   `json:"version"`
	Filename             string                `json:"filename"`
	UploadedAt           time.Time             `json:"uploaded_at"`
	ATSScore             *float64              `json:"ats_score"`
	IsOptimized          bool                  `json:"is_optimized"`
	ParentResumeID       *string               `json:"parent_resume_id"`
	OptimizationMetadata *OptimizationMetadata `json:"optimization_metadata"`
}

// VersionHistory lists a resume together with its derivatives
type VersionHistory struct {
	ResumeID      string         `json:"resume_id"`
	TotalVersions int            `json:"total_versions"`
	Versions      []VersionEntry `json:"versions"`
}

// Trend values of a version comparison
const (
	TrendImproved  = "improved"
	TrendDeclined  = "declined"
	TrendUnchanged = "unchanged"
)

// VersionDelta is the numeric comparison of two resume versions
type VersionDelta struct {
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Delta    float64 `json:"delta"`
	Trend    string  `json:"trend"`
}

// VersionRef identifies one side of a comparison
type VersionRef struct {
	ID      string  `json:"id"`
	Version int     `json:"version"`
	Score   float64 `json:"score"`
}

// VersionComparison is the response of a version comparison
type VersionComparison struct {
	Version1   VersionRef        `json:"version1"`
	Version2   VersionRef        `json:"version2"`
	Comparison ComparisonDetails `json:"comparison"`
}

// ComparisonDetails holds the numeric delta and the optional provider narrative
type ComparisonDetails struct {
	ScoreChange VersionDelta         `json:"score_change"`
	Narrative   *ComparisonNarrative `json:"narrative,omitempty"`
}

// SuggestionsInput is sent to the provider for general-audit feedback
type SuggestionsInput struct {
	ResumeText     string   `json:"resumeText"`
	JobDescription string   `json:"jobDescription,omitempty"`
	MissingSkills  []string `json:"missingSkills,omitempty"`
}

// SuggestionsOutput is the provider's improvement list
type SuggestionsOutput struct {
	Suggestions []string `json:"suggestions"`
}

// OptimizeResumeInput is sent to the provider to rewrite a resume for a job
type OptimizeResumeInput struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	CompanyName    string `json:"companyName,omitempty"`
}

// OptimizedBullet is one rewritten experience bullet
type OptimizedBullet struct {
	Original  string `json:"original"`
	Optimized string `json:"optimized"`
	Reason    string `json:"reason"`
}

// OptimizeResumeOutput is the provider's rewrite of a resume
type OptimizeResumeOutput struct {
	OptimizedSummary    string            `json:"optimized_summary"`
	OptimizedSkills     []string          `json:"optimized_skills"`
	OptimizedExperience []OptimizedBullet `json:"optimized_experience"`
	ATSImprovementScore float64           `json:"ats_improvement_score"`
	ChangesExplanation  string            `json:"changes_explanation"`
}

// OptimizeResponse is returned after a derivative has been stored
type OptimizeResponse struct {
	OptimizeResumeOutput
	OptimizedResumeID string `json:"optimized_resume_id"`
	Version           int    `json:"version"`
}

// CompareVersionsInput is sent to the provider for a narrative comparison
type CompareVersionsInput struct {
	PreviousText  string  `json:"previousText"`
	CurrentText   string  `json:"currentText"`
	PreviousScore float64 `json:"previousScore"`
	CurrentScore  float64 `json:"currentScore"`
}

// KeyChange is one section-level change between versions
type KeyChange struct {
	Section     string `json:"section"`
	ChangeType  string `json:"change_type"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// ComparisonNarrative explains why two versions score differently
type ComparisonNarrative struct {
	KeyChanges     []KeyChange `json:"key_changes"`
	Improvements   []string    `json:"improvements"`
	Regressions    []string    `json:"regressions"`
	Recommendation string      `json:"recommendation"`
}

// QualityIssue is one problem found by the quality audit
type QualityIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Location string `json:"location"`
	Issue    string `json:"issue"`
	Example  string `json:"example"`
}

// QualitySuggestion is one proposed rewrite from the quality audit
type QualitySuggestion struct {
	IssueType string `json:"issue_type"`
	Current   string `json:"current"`
	Suggested string `json:"suggested"`
	Reason    string `json:"reason"`
}

// QualityReport is the provider's confidence and authenticity audit
type QualityReport struct {
	ConfidenceScore   float64             `json:"confidence_score"`
	AuthenticityScore float64             `json:"authenticity_score"`
	Issues            []QualityIssue      `json:"issues"`
	Suggestions       []QualitySuggestion `json:"suggestions"`
	RiskLevel         string              `json:"risk_level"`
	OverallAssessment string              `json:"overall_assessment"`
}

// QualityCheckInput is sent to the provider for a quality audit
type QualityCheckInput struct {
	ResumeText string `json:"resumeText"`
}

// ExplanationFactor is one influence on the score, with evidence from the resume
type ExplanationFactor struct {
	Factor   string `json:"factor"`
	Impact   string `json:"impact"`
	Evidence string `json:"evidence"`
}

// ImprovementAction is a concrete step with its expected effect on the score
type ImprovementAction struct {
	Action         string `json:"action"`
	ExpectedImpact string `json:"expected_impact"`
	Priority       string `json:"priority"`
}

// ScoreBreakdown is the provider's per-dimension view of the score
type ScoreBreakdown struct {
	SkillsMatch         float64 `json:"skills_match"`
	ExperienceRelevance float64 `json:"experience_relevance"`
	KeywordOptimization float64 `json:"keyword_optimization"`
	FormattingQuality   float64 `json:"formatting_quality"`
}

// ScoreExplanation explains a stored analysis result
type ScoreExplanation struct {
	Reasoning          string              `json:"reasoning"`
	PositiveFactors    []ExplanationFactor `json:"positive_factors"`
	NegativeFactors    []ExplanationFactor `json:"negative_factors"`
	ImprovementActions []ImprovementAction `json:"improvement_actions"`
	ScoreBreakdown     ScoreBreakdown      `json:"score_breakdown"`
}

// ExplainScoreInput is sent to the provider to explain an analysis
type ExplainScoreInput struct {
	ResumeText     string   `json:"resumeText"`
	JobDescription string   `json:"jobDescription"`
	ATSScore       float64  `json:"atsScore"`
	MatchedSkills  []string `json:"matchedSkills"`
	MissingSkills  []string `json:"missingSkills"`
}

// InterviewQuestion is one generated interview question
type InterviewQuestion struct {
	Question   string `json:"question"`
	FocusArea  string `json:"focus_area"`
	Difficulty string `json:"difficulty"`
}

// InterviewPrep is a set of role-specific interview questions
type InterviewPrep struct {
	Technical         []InterviewQuestion `json:"technical"`
	Behavioral        []InterviewQuestion `json:"behavioral"`
	Situational       []InterviewQuestion `json:"situational"`
	OverallDifficulty string              `json:"overall_difficulty"`
	PreparationTips   []string            `json:"preparation_tips"`
}

// InterviewQuestionsInput is sent to the provider for interview preparation
type InterviewQuestionsInput struct {
	ResumeText     string   `json:"resumeText"`
	JobDescription string   `json:"jobDescription"`
	MissingSkills  []string `json:"missingSkills"`
}

// SkillsReport is the output of a plain skill extraction
type SkillsReport struct {
	Skills            []string `json:"skills"`
	VocabularyVersion string   `json:"vocabulary_version"`
}
