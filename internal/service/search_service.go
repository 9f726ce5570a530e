package service

import (
	"context"
	"strings"
	"time"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"

	"gorm.io/gorm"
)

const (
	searchAllLimit  = 20
	searchKindLimit = 50
	activeWindow    = 7 * 24 * time.Hour
)

type SearchService struct {
	repo  *rdb.SearchRepository
	clock Clock
}

func NewSearchService(db *gorm.DB, clk Clock) *SearchService {
	return &SearchService{repo: &rdb.SearchRepository{DB: db}, clock: clk}
}

// Search kind 为空等同 all；all 最多返回 20 条
func (s *SearchService) Search(ctx context.Context, query string, kind model.SearchKind, limit int) ([]model.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkg.Errorf(pkg.CodeInvalidArgument, "search", "empty query")
	}
	if kind == "" {
		kind = model.SearchAll
	}
	capN := searchKindLimit
	switch kind {
	case model.SearchAll:
		capN = searchAllLimit
	case model.SearchIdeas, model.SearchTasks, model.SearchFiles:
	default:
		return nil, pkg.Errorf(pkg.CodeInvalidArgument, "search", "unknown kind %q", kind)
	}
	if limit <= 0 || limit > capN {
		limit = capN
	}
	return s.repo.Search(ctx, query, kind, limit)
}

// Dashboard 近 7 天活跃算活跃用户
func (s *SearchService) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	return s.repo.Dashboard(ctx, s.clock.Now().Add(-activeWindow))
}
