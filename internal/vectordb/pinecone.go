// Package vectordb holds read-only rag.VectorIndex adapters for hosted vector databases.
package vectordb

import (
	"context"
	"fmt"

	"github.com/josinaldojr/medical-rag/internal/rag"
	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// TextKey is the metadata/payload field holding the document text, as LangChain writes it.
const TextKey = "text"

// Pinecone queries one namespace of an existing Pinecone index.
type Pinecone struct {
	conn *pinecone.IndexConnection
}

func NewPinecone(ctx context.Context, apiKey, indexName, namespace string) (*Pinecone, error) {
	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}

	idx, err := pc.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("describe pinecone index %q: %w", indexName, err)
	}

	conn, err := pc.Index(pinecone.NewIndexConnParams{
		Host:      idx.Host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("connect pinecone index %q: %w", indexName, err)
	}

	return &Pinecone{conn: conn}, nil
}

func (p *Pinecone) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]rag.RetrievedDocument, error) {
	resp, err := p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(k),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	return matchesToDocuments(resp.Matches, k), nil
}

func (p *Pinecone) Close() error {
	return p.conn.Close()
}

// matchesToDocuments skips matches without a vector and ranks the rest.
func matchesToDocuments(matches []*pinecone.ScoredVector, k int) []rag.RetrievedDocument {
	docs := make([]rag.RetrievedDocument, 0, len(matches))
	for _, m := range matches {
		if m == nil || m.Vector == nil {
			continue
		}
		docs = append(docs, structToDocument(m.Vector.Metadata, m.Score))
	}
	return rag.RankDocuments(docs, k)
}

func structToDocument(md *structpb.Struct, score float32) rag.RetrievedDocument {
	meta := rag.StringMetadata(md.AsMap())
	text := meta[TextKey]
	delete(meta, TextKey)
	if len(meta) == 0 {
		meta = nil
	}
	return rag.RetrievedDocument{
		Text:     text,
		Score:    score,
		Metadata: meta,
	}
}

var _ rag.VectorIndex = (*Pinecone)(nil)
