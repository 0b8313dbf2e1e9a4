package library

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/librarydesk/lms/internal/db"
	"github.com/librarydesk/lms/internal/metrics"
	"github.com/librarydesk/lms/internal/repo"
	"github.com/librarydesk/lms/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockPublisher records published event types
type MockPublisher struct {
	mu     sync.Mutex
	events []string
}

func (m *MockPublisher) Publish(_ context.Context, eventType string, _ map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
	return nil
}

func (m *MockPublisher) Published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func (m *MockPublisher) Has(eventType string) bool {
	for _, e := range m.Published() {
		if e == eventType {
			return true
		}
	}
	return false
}

type testEnv struct {
	db        *db.DB
	catalog   *CatalogService
	lending   *LendingService
	profiles  *ProfileService
	publisher *MockPublisher
}

func setupTestDB(t *testing.T) *db.DB {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	database := &db.DB{DB: gormDB}
	require.NoError(t, db.RunMigrations(database))
	return database
}

func setupEnv(t *testing.T) *testEnv {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	m := metrics.New()
	publisher := &MockPublisher{}

	catalogRepo := repo.NewCatalogRepository(database, log)
	lendingRepo := repo.NewLendingRepository(database, log)
	userRepo := repo.NewUserRepository(database, log)

	return &testEnv{
		db:        database,
		catalog:   NewCatalogService(catalogRepo, lendingRepo, publisher, m, log),
		lending:   NewLendingService(lendingRepo, publisher, m, log),
		profiles:  NewProfileService(userRepo, log),
		publisher: publisher,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func (e *testEnv) seedBook(t *testing.T, sectionName, bookName, author string) (*db.Section, *db.Book) {
	ctx := context.Background()
	section, err := e.catalog.CreateSection(ctx, SectionInput{Name: sectionName, Description: "desc"})
	require.NoError(t, err)
	book, err := e.catalog.CreateBook(ctx, section.ID, BookInput{Name: bookName, Author: author, Description: "desc", Path: "path1"})
	require.NoError(t, err)
	return section, book
}
