package model

import "time"

// File 只登记外部存储句柄，不保存内容
type File struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	UploaderID    int64     `gorm:"not null;index" json:"uploader_id"`
	StorageHandle string    `gorm:"size:255;not null" json:"storage_handle"`
	Title         string    `gorm:"size:200;not null;default:''" json:"title"`
	Tags          string    `gorm:"size:255;not null;default:''" json:"tags"`
	UploadedAt    time.Time `gorm:"index" json:"uploaded_at"`

	Uploader *User `gorm:"foreignKey:UploaderID;constraint:OnDelete:CASCADE" json:"-"`
}

func (File) TableName() string { return "files" }
