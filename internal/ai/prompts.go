package ai

import (
	"strconv"
	"strings"

	"skillsnap/internal/config"
)

// Placeholders substituted into user prompt templates. Custom templates may use any subset.
const (
	PlaceholderResume         = "{resume}"
	PlaceholderJobDescription = "{job_description}"
	PlaceholderCompany        = "{company_context}"
	PlaceholderMissingSkills  = "{missing_skills}"
	PlaceholderPreviousText   = "{previous_resume}"
	PlaceholderCurrentText    = "{current_resume}"
	PlaceholderPreviousScore  = "{previous_score}"
	PlaceholderCurrentScore   = "{current_score}"
	PlaceholderATSScore       = "{ats_score}"
	PlaceholderMatchedSkills  = "{matched_skills}"
)

// DefaultSystemPrompts provides the default system instructions, keyed by operation
var DefaultSystemPrompts = map[string]string{
	config.OperationFeedback: `You are an experienced career coach and ATS (Applicant Tracking System) expert. Your core principles are:

- Give specific, actionable advice grounded in the resume text
- Never invent experience the candidate does not have
- Prefer concrete rewrites over generic encouragement`,

	config.OperationOptimize: `You are an expert resume writer and ATS optimization specialist with a strict commitment to honesty. Your core principles are:

- Preserve ALL factual information (dates, companies, education)
- NEVER invent, exaggerate, or misattribute skills or experiences
- Every optimized statement must be traceable to the original resume
- Maintain a professional tone`,

	config.OperationCompare: `You are a resume improvement analyst. You compare two versions of the same resume and explain,
section by section, which changes moved the ATS score and in which direction.`,

	config.OperationQuality: `You are a resume quality auditor. You look for:
1. Weak or passive language
2. Buzzword overuse
3. Vague claims without evidence
4. Unrealistic skill claims
5. Inconsistencies

You quote the offending text and propose a concrete replacement for every issue you report.`,

	config.OperationExplain: `You are an AI explainability expert. You give clear, actionable reasoning for why a resume
received its ATS score. Every factor you name must be backed by evidence quoted from the resume or the job description.`,

	config.OperationInterview: `You are an expert technical interviewer. You write interview questions that test the
candidate's real experience and the gaps between the resume and the role.`,
}

// DefaultUserPrompts provides the default user prompt templates, keyed by operation
var DefaultUserPrompts = map[string]string{
	config.OperationFeedback: `Review the following resume and give the three most valuable improvements the candidate can make.
Each suggestion must be a single actionable sentence.

Resume:
{resume}

Target job description (may be empty):
{job_description}

Skills the job asks for that the resume lacks (may be empty):
{missing_skills}

Respond with JSON only.`,

	config.OperationOptimize: `Rewrite the following resume to match the job description{company_context}.

Rules:
1. Preserve ALL factual information (dates, companies, education)
2. Enhance language to match job requirements
3. Add relevant ATS keywords from the job description
4. Improve action verbs and quantifiable achievements

Original Resume:
{resume}

Job Description:
{job_description}

For each rewritten experience bullet give the original text, the optimized text and the reason.
ats_improvement_score is the expected improvement from 0 to 100. Respond with JSON only.`,

	config.OperationCompare: `Compare these two resume versions and explain what changed and why it improved (or worsened) the score.

Version 1 (Score: {previous_score}%):
{previous_resume}

Version 2 (Score: {current_score}%):
{current_resume}

change_type is one of added, removed, modified. impact is one of positive, negative, neutral.
Respond with JSON only.`,

	config.OperationQuality: `Audit this resume for confidence, authenticity and quality issues.

Resume:
{resume}

Issue type is one of weak_language, buzzwords, vague_claim, unrealistic, inconsistency.
Severity and risk_level are one of high, medium, low. Scores range from 0 to 100.
Respond with JSON only.`,

	config.OperationExplain: `Explain why this resume received its ATS score.

Resume:
{resume}

Job Description:
{job_description}

Current ATS Score: {ats_score}%
Matched Skills: {matched_skills}
Missing Skills: {missing_skills}

impact and priority are one of high, medium, low. expected_impact is written as "+<number> points".
Every score_breakdown value ranges from 0 to 100. Respond with JSON only.`,

	config.OperationInterview: `Generate interview questions for this candidate and role.

Resume:
{resume}

Job Description:
{job_description}

Skills the candidate is missing, to focus on (may be empty):
{missing_skills}

Give five technical, five behavioral and five situational questions. difficulty and overall_difficulty
are one of easy, medium, hard. Respond with JSON only.`,
}

// renderPrompt substitutes placeholders in a user prompt template.
func renderPrompt(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for placeholder, value := range values {
		pairs = append(pairs, placeholder, value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func companyContext(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return " at " + name
	}
	return ""
}

// resolvePrompt selects the correct prompt string based on a clear priority order:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. A hardcoded default prompt.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
