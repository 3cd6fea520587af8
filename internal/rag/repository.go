package rag

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]{0,62}$`)

// PgRepository searches a pgvector table populated elsewhere. Expected schema:
//
//	CREATE TABLE <index> (
//		id        bigserial PRIMARY KEY,
//		namespace text NOT NULL DEFAULT '',
//		content   text NOT NULL,
//		metadata  jsonb NOT NULL DEFAULT '{}',
//		embedding vector(<dim>) NOT NULL
//	);
type PgRepository struct {
	db        *pgxpool.Pool
	table     string
	namespace string
}

func NewPgRepository(db *pgxpool.Pool, indexName, namespace string) (*PgRepository, error) {
	if !identRe.MatchString(indexName) {
		return nil, fmt.Errorf("invalid pgvector index name %q", indexName)
	}
	return &PgRepository{
		db:        db,
		table:     pgx.Identifier{indexName}.Sanitize(),
		namespace: namespace,
	}, nil
}

// SimilaritySearch orders by cosine distance; score is 1 - distance.
func (r *PgRepository) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]RetrievedDocument, error) {
	if k <= 0 {
		k = 3
	}

	vec := pgvector.NewVector(vector)

	rows, err := r.db.Query(ctx, `
		SELECT content, metadata, 1 - (embedding <=> $1) AS score
		FROM `+r.table+`
		WHERE namespace = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, vec, r.namespace, k)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	var docs []RetrievedDocument
	for rows.Next() {
		var (
			content string
			meta    map[string]any
			score   float64
		)
		if err := rows.Scan(&content, &meta, &score); err != nil {
			return nil, fmt.Errorf("pgvector scan: %w", err)
		}
		docs = append(docs, RetrievedDocument{
			Text:     content,
			Score:    float32(score),
			Metadata: StringMetadata(meta),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector rows: %w", err)
	}

	return RankDocuments(docs, k), nil
}

// StringMetadata flattens loosely typed metadata to strings; nil values are dropped.
func StringMetadata(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

var _ VectorIndex = (*PgRepository)(nil)
