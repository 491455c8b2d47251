package domain

import "context"

// Movie 上游原样返回的影片对象，本系统只读不存
type Movie map[string]any

type SearchResult struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalResults int     `json:"totalResults"`
	TotalPages   int     `json:"totalPages"`
}

// MovieGateway 上游影片数据源
type MovieGateway interface {
	Popular(ctx context.Context) ([]Movie, error)
	GetByID(ctx context.Context, id int64, relations ...string) (Movie, error)
	Search(ctx context.Context, query string, page int) (*SearchResult, error)
}
