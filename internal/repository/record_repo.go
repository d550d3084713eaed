package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/agentcrew/backend/internal/model"
)

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

// Upsert 按 session_id 覆盖写，反馈迭代后的新产出顶掉旧档
func (r *recordRepository) Upsert(record *model.CollaborationRecord) error {
	var existing model.CollaborationRecord
	err := r.db.Where("session_id = ?", record.SessionID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(record).Error
	}
	if err != nil {
		return err
	}

	existing.ResultJSON = record.ResultJSON
	existing.Deliverables = record.Deliverables
	existing.TotalRounds = record.TotalRounds
	return r.db.Save(&existing).Error
}

func (r *recordRepository) GetBySessionID(sessionID string) (*model.CollaborationRecord, error) {
	var record model.CollaborationRecord
	err := r.db.Where("session_id = ?", sessionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) Delete(sessionID string) error {
	return r.db.Where("session_id = ?", sessionID).Delete(&model.CollaborationRecord{}).Error
}
