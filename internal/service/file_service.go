package service

import (
	"context"
	"log/slog"
	"strings"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"

	"gorm.io/gorm"
)

type FileService struct {
	repo  *rdb.FileRepository
	clock Clock
}

func NewFileService(db *gorm.DB, clk Clock) *FileService {
	return &FileService{repo: &rdb.FileRepository{DB: db}, clock: clk}
}

// SaveFile 登记外部存储句柄；tags 逗号分隔，统一小写去空格
func (s *FileService) SaveFile(ctx context.Context, uploaderID int64, handle, title string, tags []string) (int64, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return 0, pkg.Errorf(pkg.CodeInvalidArgument, "file.save", "empty storage handle")
	}
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			clean = append(clean, t)
		}
	}
	f := &model.File{
		UploaderID:    uploaderID,
		StorageHandle: handle,
		Title:         strings.TrimSpace(title),
		Tags:          strings.Join(clean, ","),
		UploadedAt:    s.clock.Now().UTC(),
	}
	if err := s.repo.Save(ctx, f); err != nil {
		return 0, err
	}
	slog.Info("file saved", "file_id", f.ID, "uploader_id", uploaderID)
	return f.ID, nil
}

func (s *FileService) FilesByTag(ctx context.Context, tag string, limit int) ([]model.File, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, pkg.Errorf(pkg.CodeInvalidArgument, "file.by_tag", "empty tag")
	}
	return s.repo.ByTag(ctx, tag, limit)
}

func (s *FileService) GetFile(ctx context.Context, id int64) (*model.File, error) {
	return s.repo.FindByID(ctx, id)
}
