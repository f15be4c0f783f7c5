package repositories

import (
	"github.com/yigit/courseatlas/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	CatalogTransactor    *CatalogTransactor
	TermRepository       *TermRepository
	SectionRepository    *SectionRepository
	InstructorRepository *InstructorRepository
	AnalyticsRepository  *AnalyticsRepository
}

// NewRepositories initializes all repositories on the shared pool
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		CatalogTransactor:    NewCatalogTransactor(database),
		TermRepository:       NewTermRepository(database.Pool),
		SectionRepository:    NewSectionRepository(database.Pool),
		InstructorRepository: NewInstructorRepository(database.Pool),
		AnalyticsRepository:  NewAnalyticsRepository(database.Pool),
	}
}
