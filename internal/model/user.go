package model

import "time"

type Role string

const (
	RoleMember   Role = "member"
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
	RoleInactive Role = "inactive"
)

// Valid 角色白名单
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleOwner, RoleInactive:
		return true
	}
	return false
}

// Privileged admin 与 owner 可执行管理操作
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleOwner
}

// User 成员；ID 由外部渠道分配，不自增
type User struct {
	ID            int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username      string    `gorm:"size:64;index;not null;default:''" json:"username"`
	Karma         int64     `gorm:"not null;default:0;index" json:"karma"`
	Role          Role      `gorm:"size:16;not null;default:member" json:"role"`
	LastActive    time.Time `gorm:"index" json:"last_active"`
	JoinedAt      time.Time `gorm:"not null" json:"joined_at"`
	AcceptedRules bool      `gorm:"not null;default:false" json:"accepted_rules"`
}

func (User) TableName() string { return "users" }
