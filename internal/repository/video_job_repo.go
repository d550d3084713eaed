package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/agentcrew/backend/internal/model"
)

type videoJobRepository struct {
	db *gorm.DB
}

func NewVideoJobRepository(db *gorm.DB) VideoJobRepository {
	return &videoJobRepository{db: db}
}

func (r *videoJobRepository) Create(job *model.VideoJob) error {
	return r.db.Create(job).Error
}

func (r *videoJobRepository) Get(id uint) (*model.VideoJob, error) {
	var job model.VideoJob
	err := r.db.First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *videoJobRepository) GetBySessionID(sessionID string) ([]model.VideoJob, error) {
	var jobs []model.VideoJob
	err := r.db.Where("session_id = ?", sessionID).Order("created_at desc").Find(&jobs).Error
	return jobs, err
}

func (r *videoJobRepository) Save(job *model.VideoJob) error {
	return r.db.Save(job).Error
}
