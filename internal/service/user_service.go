package service

import (
	"context"
	"log/slog"
	"strings"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/repository/redis"

	"gorm.io/gorm"
)

type UserService struct {
	repo   *rdb.UserRepository
	ledger *rdb.LedgerRepository
	board  *redis.LeaderboardCache
	admins map[int64]struct{}
	clock  Clock
}

func NewUserService(db *gorm.DB, clk Clock, board *redis.LeaderboardCache, adminIDs []int64) *UserService {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &UserService{
		repo:   &rdb.UserRepository{DB: db},
		ledger: &rdb.LedgerRepository{DB: db},
		board:  board,
		admins: admins,
		clock:  clk,
	}
}

// Register 首次接触：不存在则建档，然后刷新活跃时间
func (s *UserService) Register(ctx context.Context, id int64, username string) (bool, error) {
	created, err := s.EnsureUser(ctx, id, username)
	if err != nil {
		return false, err
	}
	if err := s.TouchActivity(ctx, id); err != nil {
		return created, err
	}
	if created {
		slog.Info("user registered", "user_id", id, "username", username)
	}
	return created, nil
}

func (s *UserService) EnsureUser(ctx context.Context, id int64, username string) (bool, error) {
	if id == 0 {
		return false, pkg.Errorf(pkg.CodeInvalidArgument, "user.ensure", "invalid user id")
	}
	return s.repo.EnsureUser(ctx, id, strings.TrimSpace(username), s.clock.Now())
}

func (s *UserService) TouchActivity(ctx context.Context, id int64) error {
	return s.repo.TouchActivity(ctx, id, s.clock.Now())
}

// AdjustKarma 底层原语，业务流程应走 ledger 事件
func (s *UserService) AdjustKarma(ctx context.Context, id int64, delta int64) error {
	if err := s.repo.AdjustKarma(ctx, id, delta); err != nil {
		return err
	}
	invalidateBoard(ctx, s.board)
	return nil
}

func (s *UserService) GetRole(ctx context.Context, id int64) (model.Role, error) {
	return s.repo.GetRole(ctx, id)
}

func (s *UserService) SetRole(ctx context.Context, id int64, role model.Role) error {
	if !role.Valid() {
		return pkg.Errorf(pkg.CodeInvalidArgument, "user.set_role", "unknown role %q", role)
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return err
	}
	slog.Info("user role changed", "user_id", id, "role", role)
	return nil
}

// IsAdmin 配置白名单或库中角色为 admin/owner
func (s *UserService) IsAdmin(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.admins[id]; ok {
		return true, nil
	}
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return false, err
	}
	return role.Privileged(), nil
}

func (s *UserService) AcceptRules(ctx context.Context, id int64) error {
	return s.repo.AcceptRules(ctx, id)
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) Karma(ctx context.Context, id int64) (int64, error) {
	return s.repo.Karma(ctx, id)
}

// History 积分流水
func (s *UserService) History(ctx context.Context, id int64, limit int) ([]model.KarmaEntry, error) {
	return s.ledger.History(ctx, id, limit)
}

// Leaderboard 先读缓存，未命中回源并回填
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]model.User, error) {
	if limit <= 0 || limit > redis.LeaderboardSize {
		limit = 10
	}
	if list, ok, err := s.board.Get(ctx); err == nil && ok {
		return head(list, limit), nil
	} else if err != nil {
		slog.Warn("leaderboard cache read failed", "err", err)
	}
	version, verErr := s.board.Version(ctx)
	list, err := s.repo.TopByKarma(ctx, redis.LeaderboardSize)
	if err != nil {
		return nil, err
	}
	if verErr != nil {
		slog.Warn("leaderboard cache version read failed", "err", verErr)
	} else if _, err := s.board.Set(ctx, list, version); err != nil {
		slog.Warn("leaderboard cache fill failed", "err", err)
	}
	return head(list, limit), nil
}

func head[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}
