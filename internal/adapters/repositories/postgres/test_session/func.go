package test_session

import (
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/entities"
	"gorm.io/gorm"
)

func (r *SessionRepositoryImpl) CreateSession(session *entities.TestSession) error {
	return r.db.Create(session).Error
}

// UpdateSessionState обновляет состояние сессии без отметки о завершении
func (r *SessionRepositoryImpl) UpdateSessionState(sessionID, state string) error {
	result := r.db.Model(&entities.TestSession{}).
		Where("session_id = ?", sessionID).
		Update("state", state)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FinishSession переводит сессию в терминальное состояние и фиксирует время
func (r *SessionRepositoryImpl) FinishSession(sessionID, state string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"state":       state,
		"finished_at": &now,
	}
	result := r.db.Model(&entities.TestSession{}).Where("session_id = ?", sessionID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *SessionRepositoryImpl) GetSessionByID(sessionID string) (*entities.TestSession, error) {
	var session entities.TestSession
	err := r.db.Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetAllSessions возвращает все сохраненные сессии, новые первыми
func (r *SessionRepositoryImpl) GetAllSessions() ([]entities.TestSession, error) {
	var sessions []entities.TestSession
	if err := r.db.Order("started_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepositoryImpl) SaveResult(result *entities.MeasurementResult) error {
	return r.db.Create(result).Error
}

// GetResultsBySession возвращает результаты шагов в порядке выполнения
func (r *SessionRepositoryImpl) GetResultsBySession(sessionID string) ([]entities.MeasurementResult, error) {
	var results []entities.MeasurementResult
	err := r.db.Where("session_id = ?", sessionID).Order("step_index ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
