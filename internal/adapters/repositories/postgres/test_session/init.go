package test_session

import (
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"gorm.io/gorm"
)

type SessionRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) interfaces.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}
