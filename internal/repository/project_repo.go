package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/agentcrew/backend/internal/model"
)

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(project *model.Project) error {
	return r.db.Create(project).Error
}

func (r *projectRepository) List() ([]model.Project, error) {
	var projects []model.Project
	err := r.db.Order("created_at desc").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) GetBySessionID(sessionID string) (*model.Project, error) {
	var project model.Project
	err := r.db.Where("session_id = ?", sessionID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) Save(project *model.Project) error {
	return r.db.Save(project).Error
}

func (r *projectRepository) UpdateStatus(sessionID, status string, rounds int) error {
	return r.db.Model(&model.Project{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status": status,
			"rounds": rounds,
		}).Error
}

func (r *projectRepository) Delete(sessionID string) error {
	return r.db.Where("session_id = ?", sessionID).Delete(&model.Project{}).Error
}
