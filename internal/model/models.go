package model

import (
	"time"
)

// Project 一次营销策划项目，对应一个协作会话
type Project struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"size:64;uniqueIndex;not null"`
	Context   string    `json:"context" gorm:"type:text;not null"`
	Personas  string    `json:"personas" gorm:"size:500"` // 逗号分隔的人设 ID
	Status    string    `json:"status" gorm:"size:50;default:pending"` // pending, thinking, introducing, conversing, finalizing, done, failed
	Rounds    int       `json:"rounds" gorm:"default:0"`
	ErrorMsg  string    `json:"error_msg" gorm:"size:1000"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CollaborationRecord 协作完成后的产出存档
// 会话记录和交付物以 JSON 文本落库，反馈迭代后覆盖写
type CollaborationRecord struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SessionID    string    `json:"session_id" gorm:"size:64;index;not null"`
	ResultJSON   string    `json:"result_json" gorm:"type:text"`
	Deliverables string    `json:"deliverables" gorm:"type:text"`
	TotalRounds  int       `json:"total_rounds" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VideoJob 营销视频生成任务
type VideoJob struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SessionID  string    `json:"session_id" gorm:"size:64;index;not null"`
	Platform   string    `json:"platform" gorm:"size:50;default:youtube"`
	Script     string    `json:"script" gorm:"type:text"`
	Status     string    `json:"status" gorm:"size:50;default:pending"` // pending, scripted, rendering, ready, failed
	OutputPath string    `json:"output_path" gorm:"size:500"`
	ErrorMsg   string    `json:"error_msg" gorm:"size:1000"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
