package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillsnap/internal/types"
)

// PostgresStore persists resumes in a PostgreSQL table. Analysis and provider results are JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL, verifies the connection and creates the schema if needed.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, storeFailure("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storeFailure("ping", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, storeFailure("schema setup", err)
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS resumes (
	id TEXT PRIMARY KEY,
	seq BIGSERIAL NOT NULL,
	user_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	content_text TEXT NOT NULL,
	skills JSONB NOT NULL DEFAULT '[]',
	ats_score DOUBLE PRECISION,
	analysis_result JSONB,
	version INTEGER NOT NULL DEFAULT 1,
	parent_resume_id TEXT,
	uploaded_at TIMESTAMPTZ NOT NULL,
	last_analyzed_at TIMESTAMPTZ,
	optimized_content JSONB,
	optimization_metadata JSONB,
	quality_check JSONB,
	quality_checked_at TIMESTAMPTZ
);
ALTER TABLE resumes ADD COLUMN IF NOT EXISTS score_explanation JSONB;
ALTER TABLE resumes ADD COLUMN IF NOT EXISTS explanation_generated_at TIMESTAMPTZ;
ALTER TABLE resumes ADD COLUMN IF NOT EXISTS interview_prep JSONB;
ALTER TABLE resumes ADD COLUMN IF NOT EXISTS interview_prep_generated_at TIMESTAMPTZ;
CREATE INDEX IF NOT EXISTS resumes_user_id_idx ON resumes (user_id, uploaded_at DESC);
CREATE INDEX IF NOT EXISTS resumes_parent_idx ON resumes (parent_resume_id);
`)
	return err
}

func (s *PostgresStore) Driver() string { return "postgres" }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const selectColumns = `id, seq, user_id, filename, content_text, skills, ats_score, analysis_result, version,
	parent_resume_id, uploaded_at, last_analyzed_at, optimized_content, optimization_metadata, quality_check,
	quality_checked_at, score_explanation, explanation_generated_at, interview_prep, interview_prep_generated_at`

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*types.Resume, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM resumes WHERE id = $1`, id)
	r, err := scanResume(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, storeFailure("get resume", err)
	}
	return r, nil
}

func (s *PostgresStore) FindMany(ctx context.Context, q Query) ([]*types.Resume, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	var args []any
	where := filterSQL(q.Filter, &args)
	if len(q.AnyOf) > 0 {
		var ors []string
		for _, f := range q.AnyOf {
			ors = append(ors, "("+strings.Join(filterSQL(f, &args), " AND ")+")")
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + selectColumns + ` FROM resumes`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	if q.SortBy != "" {
		// SortBy is whitelisted by validateQuery
		sb.WriteString(string(q.SortBy))
		if q.Descending {
			sb.WriteString(" DESC")
		}
		sb.WriteString(", ")
	}
	sb.WriteString("seq")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, storeFailure("find resumes", err)
	}
	defer rows.Close()

	var out []*types.Resume
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, storeFailure("scan resume", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("find resumes", err)
	}
	return out, nil
}

func filterSQL(f Filter, args *[]any) []string {
	var clauses []string
	for field, value := range f {
		if value == nil {
			clauses = append(clauses, string(field)+" IS NULL")
			continue
		}
		*args = append(*args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", field, len(*args)))
	}
	if len(clauses) == 0 {
		clauses = append(clauses, "TRUE")
	}
	return clauses
}

func (s *PostgresStore) InsertOne(ctx context.Context, r *types.Resume) error {
	skills, analysis, optimized, metadata, quality, err := marshalDocuments(r)
	if err != nil {
		return storeFailure("encode resume", err)
	}
	explanation, interview, err := marshalPreparation(r)
	if err != nil {
		return storeFailure("encode resume", err)
	}

	err = s.pool.QueryRow(ctx, `
INSERT INTO resumes (id, user_id, filename, content_text, skills, ats_score, analysis_result, version,
	parent_resume_id, uploaded_at, last_analyzed_at, optimized_content, optimization_metadata, quality_check,
	quality_checked_at, score_explanation, explanation_generated_at, interview_prep, interview_prep_generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
RETURNING seq`,
		r.ID, r.UserID, r.Filename, r.ContentText, skills, r.ATSScore, analysis, r.Version,
		r.ParentResumeID, r.UploadedAt, r.LastAnalyzedAt, optimized, metadata, quality, r.QualityCheckedAt,
		explanation, r.ExplanationAt, interview, r.InterviewPrepAt,
	).Scan(&r.Seq)
	if err != nil {
		return storeFailure("insert resume", err)
	}
	return nil
}

func (s *PostgresStore) MergeUpdateOne(ctx context.Context, id string, p Patch) error {
	if p.IsEmpty() {
		_, err := s.GetByID(ctx, id)
		return err
	}

	var sets []string
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if p.Filename != nil {
		set("filename", *p.Filename)
	}
	if p.Skills != nil {
		b, err := json.Marshal(*p.Skills)
		if err != nil {
			return storeFailure("encode skills", err)
		}
		set("skills", b)
	}
	if p.ATSScore != nil {
		set("ats_score", *p.ATSScore)
	}
	if p.AnalysisResult != nil {
		b, err := json.Marshal(p.AnalysisResult)
		if err != nil {
			return storeFailure("encode analysis", err)
		}
		set("analysis_result", b)
	}
	if p.LastAnalyzedAt != nil {
		set("last_analyzed_at", *p.LastAnalyzedAt)
	}
	if p.QualityCheck != nil {
		b, err := json.Marshal(p.QualityCheck)
		if err != nil {
			return storeFailure("encode quality check", err)
		}
		set("quality_check", b)
	}
	if p.QualityCheckedAt != nil {
		set("quality_checked_at", *p.QualityCheckedAt)
	}
	if p.ScoreExplanation != nil {
		b, err := json.Marshal(p.ScoreExplanation)
		if err != nil {
			return storeFailure("encode score explanation", err)
		}
		set("score_explanation", b)
	}
	if p.ExplanationAt != nil {
		set("explanation_generated_at", *p.ExplanationAt)
	}
	if p.InterviewPrep != nil {
		b, err := json.Marshal(p.InterviewPrep)
		if err != nil {
			return storeFailure("encode interview prep", err)
		}
		set("interview_prep", b)
	}
	if p.InterviewPrepAt != nil {
		set("interview_prep_generated_at", *p.InterviewPrepAt)
	}

	tag, err := s.pool.Exec(ctx, `UPDATE resumes SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return storeFailure("update resume", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PostgresStore) DeleteOne(ctx context.Context, id string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return 0, storeFailure("delete resume", err)
	}
	return tag.RowsAffected(), nil
}

func scanResume(row pgx.Row) (*types.Resume, error) {
	var (
		r                                     types.Resume
		skills, analysis, optimized, metadata []byte
		quality, explanation, interview       []byte
		uploadedAt                            time.Time
	)
	err := row.Scan(&r.ID, &r.Seq, &r.UserID, &r.Filename, &r.ContentText, &skills, &r.ATSScore, &analysis,
		&r.Version, &r.ParentResumeID, &uploadedAt, &r.LastAnalyzedAt, &optimized, &metadata, &quality,
		&r.QualityCheckedAt, &explanation, &r.ExplanationAt, &interview, &r.InterviewPrepAt)
	if err != nil {
		return nil, err
	}
	r.UploadedAt = uploadedAt.UTC()

	if err := unmarshalIfSet(skills, &r.Skills); err != nil {
		return nil, err
	}
	if len(analysis) > 0 {
		r.AnalysisResult = &types.AnalysisResult{}
		if err := json.Unmarshal(analysis, r.AnalysisResult); err != nil {
			return nil, fmt.Errorf("decode analysis_result: %w", err)
		}
	}
	if len(optimized) > 0 {
		r.OptimizedContent = &types.OptimizeResumeOutput{}
		if err := json.Unmarshal(optimized, r.OptimizedContent); err != nil {
			return nil, fmt.Errorf("decode optimized_content: %w", err)
		}
	}
	if len(metadata) > 0 {
		r.OptimizationMetadata = &types.OptimizationMetadata{}
		if err := json.Unmarshal(metadata, r.OptimizationMetadata); err != nil {
			return nil, fmt.Errorf("decode optimization_metadata: %w", err)
		}
	}
	if len(quality) > 0 {
		r.QualityCheck = &types.QualityReport{}
		if err := json.Unmarshal(quality, r.QualityCheck); err != nil {
			return nil, fmt.Errorf("decode quality_check: %w", err)
		}
	}
	if len(explanation) > 0 {
		r.ScoreExplanation = &types.ScoreExplanation{}
		if err := json.Unmarshal(explanation, r.ScoreExplanation); err != nil {
			return nil, fmt.Errorf("decode score_explanation: %w", err)
		}
	}
	if len(interview) > 0 {
		r.InterviewPrep = &types.InterviewPrep{}
		if err := json.Unmarshal(interview, r.InterviewPrep); err != nil {
			return nil, fmt.Errorf("decode interview_prep: %w", err)
		}
	}
	return &r, nil
}

func unmarshalIfSet(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// marshalDocuments encodes the JSONB columns. Unset values stay nil so they are stored as NULL.
func marshalDocuments(r *types.Resume) (skills, analysis, optimized, metadata, quality []byte, err error) {
	list := r.Skills
	if list == nil {
		list = []string{}
	}
	if skills, err = json.Marshal(list); err != nil {
		return
	}
	if r.AnalysisResult != nil {
		if analysis, err = json.Marshal(r.AnalysisResult); err != nil {
			return
		}
	}
	if r.OptimizedContent != nil {
		if optimized, err = json.Marshal(r.OptimizedContent); err != nil {
			return
		}
	}
	if r.OptimizationMetadata != nil {
		if metadata, err = json.Marshal(r.OptimizationMetadata); err != nil {
			return
		}
	}
	if r.QualityCheck != nil {
		quality, err = json.Marshal(r.QualityCheck)
	}
	return
}

// marshalPreparation encodes the provider-generated explanation and interview columns.
func marshalPreparation(r *types.Resume) (explanation, interview []byte, err error) {
	if r.ScoreExplanation != nil {
		if explanation, err = json.Marshal(r.ScoreExplanation); err != nil {
			return
		}
	}
	if r.InterviewPrep != nil {
		interview, err = json.Marshal(r.InterviewPrep)
	}
	return
}
