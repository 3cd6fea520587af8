package vectordb

import (
	"context"
	"fmt"

	"github.com/josinaldojr/medical-rag/internal/rag"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// NamespaceKey is the payload field used to scope points to a namespace.
const NamespaceKey = "namespace"

// Qdrant searches one collection over gRPC; the collection is named after the index.
type Qdrant struct {
	conn       *grpc.ClientConn
	points     qdrantclient.PointsClient
	collection string
	namespace  string
}

func NewQdrant(addr, collection, namespace string) (*Qdrant, error) {
	return DialQdrant(addr, collection, namespace, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// DialQdrant is NewQdrant with caller-supplied dial options (TLS, custom dialers).
func DialQdrant(target, collection, namespace string, opts ...grpc.DialOption) (*Qdrant, error) {
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	return &Qdrant{
		conn:       conn,
		points:     qdrantclient.NewPointsClient(conn),
		collection: collection,
		namespace:  namespace,
	}, nil
}

func (q *Qdrant) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]rag.RetrievedDocument, error) {
	req := &qdrantclient.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(k),
		Filter:         namespaceFilter(q.namespace),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}

	resp, err := q.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Qdrant: %w", err)
	}

	docs := make([]rag.RetrievedDocument, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		docs = append(docs, payloadToDocument(point.GetPayload(), point.GetScore()))
	}
	return rag.RankDocuments(docs, k), nil
}

func (q *Qdrant) Close() error {
	return q.conn.Close()
}

func namespaceFilter(namespace string) *qdrantclient.Filter {
	if namespace == "" {
		return nil
	}
	return &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{{
			ConditionOneOf: &qdrantclient.Condition_Field{
				Field: &qdrantclient.FieldCondition{
					Key: NamespaceKey,
					Match: &qdrantclient.Match{
						MatchValue: &qdrantclient.Match_Keyword{Keyword: namespace},
					},
				},
			},
		}},
	}
}

func payloadToDocument(payload map[string]*qdrantclient.Value, score float32) rag.RetrievedDocument {
	doc := rag.RetrievedDocument{Score: score}

	for k, v := range payload {
		switch k {
		case TextKey:
			doc.Text = v.GetStringValue()
		case NamespaceKey:
		default:
			if doc.Metadata == nil {
				doc.Metadata = make(map[string]string)
			}
			doc.Metadata[k] = payloadString(v)
		}
	}
	return doc
}

func payloadString(v *qdrantclient.Value) string {
	switch kind := v.GetKind().(type) {
	case *qdrantclient.Value_StringValue:
		return kind.StringValue
	case *qdrantclient.Value_IntegerValue:
		return fmt.Sprint(kind.IntegerValue)
	case *qdrantclient.Value_DoubleValue:
		return fmt.Sprint(kind.DoubleValue)
	case *qdrantclient.Value_BoolValue:
		return fmt.Sprint(kind.BoolValue)
	default:
		return ""
	}
}

var _ rag.VectorIndex = (*Qdrant)(nil)
