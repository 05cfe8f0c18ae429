// Package rerankutils is the rerank utility package
package rerankutils

import (
	"fmt"

	"github.com/studyloop/satchel/pkg/rerank"
	"github.com/studyloop/satchel/pkg/rerank/tei"
)

type NewRerankerOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	MaxLength    int
}

func NewReranker(o *NewRerankerOpts) (rerank.Reranker, error) {
	switch o.ProviderType {
	case "tei":
		return tei.NewReranker(tei.Config{
			BaseURL:   o.TargetURL,
			Model:     o.Model,
			MaxLength: o.MaxLength,
		})
	default:
		return nil, fmt.Errorf("unsupported rerank provider: %s", o.ProviderType)
	}
}
