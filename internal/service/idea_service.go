package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/repository/redis"

	"gorm.io/gorm"
)

const maxTitleLen = 200

type IdeaService struct {
	repo  *rdb.IdeaRepository
	board *redis.LeaderboardCache
	clock Clock
}

// VoteCountReconciler 票数提示值对账
type VoteCountReconciler struct {
	repo      *rdb.VoteCountReconcilerRepo
	batchSize int
	interval  time.Duration
}

func NewIdeaService(db *gorm.DB, clk Clock, board *redis.LeaderboardCache) *IdeaService {
	return &IdeaService{
		repo:  &rdb.IdeaRepository{DB: db},
		board: board,
		clock: clk,
	}
}

func NewVoteCountReconciler(db *gorm.DB) *VoteCountReconciler {
	return &VoteCountReconciler{
		repo:      &rdb.VoteCountReconcilerRepo{DB: db},
		batchSize: 500,
		interval:  5 * time.Minute,
	}
}

// CreateIdea 作者 +10 积分
func (s *IdeaService) CreateIdea(ctx context.Context, title, description string, authorID int64, priority model.Priority) (int64, error) {
	title, err := cleanTitle("idea.create", title)
	if err != nil {
		return 0, err
	}
	if authorID == 0 {
		return 0, pkg.Errorf(pkg.CodeInvalidArgument, "idea.create", "invalid author id")
	}
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return 0, pkg.Errorf(pkg.CodeInvalidArgument, "idea.create", "unknown priority %q", priority)
	}
	idea := &model.Idea{
		Title:       title,
		Description: strings.TrimSpace(description),
		AuthorID:    authorID,
		Priority:    priority,
		Status:      model.IdeaOpen,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, idea); err != nil {
		return 0, err
	}
	invalidateBoard(ctx, s.board)
	slog.Info("idea created", "idea_id", idea.ID, "author_id", authorID, "priority", priority)
	return idea.ID, nil
}

// VoteForIdea 已投过返回 false
func (s *IdeaService) VoteForIdea(ctx context.Context, voterID, ideaID int64) (bool, error) {
	if voterID == 0 || ideaID == 0 {
		return false, pkg.Errorf(pkg.CodeInvalidArgument, "idea.vote", "invalid id")
	}
	voted, err := s.repo.Vote(ctx, voterID, ideaID, s.clock.Now())
	if err != nil {
		return false, err
	}
	if voted {
		slog.Info("idea voted", "idea_id", ideaID, "voter_id", voterID)
	}
	return voted, nil
}

func (s *IdeaService) ListIdeas(ctx context.Context, limit, offset int) ([]model.IdeaView, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *IdeaService) GetIdea(ctx context.Context, id int64) (*model.IdeaView, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *IdeaService) CloseIdea(ctx context.Context, id int64) (bool, error) {
	changed, err := s.repo.Close(ctx, id)
	if err == nil && changed {
		slog.Info("idea closed", "idea_id", id)
	}
	return changed, err
}

// Run 对账定时任务启动器
func (r *VoteCountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.ReconcileOnce(ctx); err != nil {
				slog.Error("vote reconcile failed", "err", err)
			}
		}
	}
}

// ReconcileOnce 分批扫完全部想法，返回修正的条数
func (r *VoteCountReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	var (
		lastID int64
		fixed  int
	)
	for {
		batch, next, err := r.repo.ReconcileList(ctx, r.batchSize, lastID)
		if err != nil {
			return fixed, err
		}
		if len(batch) == 0 {
			return fixed, nil
		}
		for _, p := range batch {
			actual, err := r.repo.RealVotes(ctx, p.ID)
			if err != nil {
				slog.Warn("count votes failed", "idea_id", p.ID, "err", err)
				continue
			}
			if actual == p.Votes {
				continue
			}
			if err := r.repo.FixVotes(ctx, p.ID, actual); err != nil {
				slog.Warn("fix votes failed", "idea_id", p.ID, "err", err)
				continue
			}
			fixed++
		}
		lastID = next
	}
}

func cleanTitle(op, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", pkg.Errorf(pkg.CodeInvalidArgument, op, "title is empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", pkg.Errorf(pkg.CodeInvalidArgument, op, "title longer than %d characters", maxTitleLen)
	}
	return title, nil
}
