package repository

import (
	"errors"

	"github.com/agentcrew/backend/internal/model"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

type ProjectRepository interface {
	Create(project *model.Project) error
	List() ([]model.Project, error)
	GetBySessionID(sessionID string) (*model.Project, error)
	Save(project *model.Project) error
	UpdateStatus(sessionID, status string, rounds int) error
	Delete(sessionID string) error
}

type RecordRepository interface {
	Upsert(record *model.CollaborationRecord) error
	GetBySessionID(sessionID string) (*model.CollaborationRecord, error)
	Delete(sessionID string) error
}

type VideoJobRepository interface {
	Create(job *model.VideoJob) error
	Get(id uint) (*model.VideoJob, error)
	GetBySessionID(sessionID string) ([]model.VideoJob, error)
	Save(job *model.VideoJob) error
}
