package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/librarydesk/lms/internal/events"
	"github.com/librarydesk/lms/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var v *ValidationError
	require.True(t, errors.As(err, &v), "expected validation error, got %v", err)
	assert.Equal(t, field, v.Field)
	assert.Contains(t, v.Message, field)
}

func TestCreateSectionValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.catalog.CreateSection(ctx, SectionInput{Name: "", Description: "desc"})
	assertValidation(t, err, "name")

	_, err = env.catalog.CreateSection(ctx, SectionInput{Name: "Fiction", Description: ""})
	assertValidation(t, err, "description")

	sections, err := env.catalog.ListSections(ctx)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestUpdateSectionAllowsEmptyDescription(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	section, err := env.catalog.CreateSection(ctx, SectionInput{Name: "Fiction", Description: "Novels"})
	require.NoError(t, err)

	err = env.catalog.UpdateSection(ctx, section.ID, SectionUpdate{Name: "", Description: "x"})
	assertValidation(t, err, "name")

	require.NoError(t, env.catalog.UpdateSection(ctx, section.ID, SectionUpdate{Name: "Fiction & Fantasy", Description: ""}))

	updated, err := env.catalog.GetSection(ctx, section.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fiction & Fantasy", updated.Name)
	assert.Empty(t, updated.Description)

	// Unknown ids are silently ignored
	assert.NoError(t, env.catalog.UpdateSection(ctx, 999, SectionUpdate{Name: "Ghost"}))
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.catalog.GetSection(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.catalog.GetBook(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSectionRemovesEveryBook(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	section, _ := env.seedBook(t, "Fiction", "Dune", "Herbert")
	for _, name := range []string{"Emma", "Ulysses", "Beloved"} {
		_, err := env.catalog.CreateBook(ctx, section.ID, BookInput{Name: name, Author: "a", Description: "d"})
		require.NoError(t, err)
	}
	_, other := env.seedBook(t, "Poetry", "Odes", "Keats")

	require.NoError(t, env.catalog.DeleteSection(ctx, section.ID))

	listings, err := env.catalog.ListBooks(ctx, section.ID)
	require.NoError(t, err)
	assert.Empty(t, listings)

	all, err := env.catalog.ListAllBooks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, other.ID, all[0].ID)

	_, err = env.catalog.GetSection(ctx, section.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookValidationOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	section, err := env.catalog.CreateSection(ctx, SectionInput{Name: "Fiction", Description: "desc"})
	require.NoError(t, err)

	_, err = env.catalog.CreateBook(ctx, section.ID, BookInput{})
	assertValidation(t, err, "name")

	_, err = env.catalog.CreateBook(ctx, section.ID, BookInput{Name: "Dune"})
	assertValidation(t, err, "author")

	_, err = env.catalog.CreateBook(ctx, section.ID, BookInput{Name: "Dune", Author: "Herbert"})
	assertValidation(t, err, "content")

	// Path is optional and stored verbatim
	book, err := env.catalog.CreateBook(ctx, section.ID, BookInput{Name: "Dune", Author: "Herbert", Description: "d", Path: "../not/a/real/file"})
	require.NoError(t, err)
	assert.Equal(t, "../not/a/real/file", book.Path)
}

func TestUpdateBookKeepsPathAndSection(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	section, book := env.seedBook(t, "Fiction", "Dune", "Herbert")

	err := env.catalog.UpdateBook(ctx, book.ID, BookInput{Name: "Dune", Author: "", Description: "d"})
	assertValidation(t, err, "author")

	require.NoError(t, env.catalog.UpdateBook(ctx, book.ID, BookInput{Name: "Dune Messiah", Author: "F. Herbert", Description: "sequel", Path: "other"}))

	updated, err := env.catalog.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Name)
	assert.Equal(t, "F. Herbert", updated.Author)
	assert.Equal(t, "sequel", updated.Description)
	assert.Equal(t, "path1", updated.Path)
	assert.Equal(t, section.ID, updated.SectionID)
}

func TestListBooksAnnotatesState(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	section, available := env.seedBook(t, "Fiction", "Emma", "Austen")
	requested, err := env.catalog.CreateBook(ctx, section.ID, BookInput{Name: "Dune", Author: "Herbert", Description: "d"})
	require.NoError(t, err)
	assigned, err := env.catalog.CreateBook(ctx, section.ID, BookInput{Name: "Ulysses", Author: "Joyce", Description: "d"})
	require.NoError(t, err)

	_, err = env.lending.Request(ctx, Actor{ID: 7, Role: RoleUser}, requested.ID)
	require.NoError(t, err)
	_, err = env.lending.Request(ctx, Actor{ID: 8, Role: RoleUser}, requested.ID)
	require.NoError(t, err)
	_, err = env.lending.Assign(ctx, 9, assigned.ID)
	require.NoError(t, err)

	listings, err := env.catalog.ListBooks(ctx, section.ID)
	require.NoError(t, err)
	require.Len(t, listings, 3)

	byID := map[uint]BookListing{}
	for _, l := range listings {
		byID[l.ID] = l
	}

	assert.Equal(t, StateAvailable, byID[available.ID].State)
	assert.Empty(t, byID[available.ID].RequestedBy)

	assert.Equal(t, StateRequested, byID[requested.ID].State)
	assert.ElementsMatch(t, []uint{7, 8}, byID[requested.ID].RequestedBy)

	assert.Equal(t, StateAssigned, byID[assigned.ID].State)
	assert.Equal(t, []uint{9}, byID[assigned.ID].AssignedTo)
}

func TestSearchEmptyQueryIsNoop(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.seedBook(t, "Fiction", "Dune", "Herbert")

	result, err := env.catalog.Search(ctx, "")
	require.NoError(t, err)
	assert.False(t, result.Performed)
	assert.Empty(t, result.Matches)
	assert.Zero(t, result.Count)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	section, book := env.seedBook(t, "Fiction", "Dune", "Herbert")

	for _, query := range []string{"dune", "DUNE", "un", "herb"} {
		result, err := env.catalog.Search(ctx, query)
		require.NoError(t, err)
		assert.True(t, result.Performed)
		require.Equal(t, 1, result.Count, query)
		assert.Equal(t, repo.SearchMatch{SectionID: section.ID, BookID: book.ID, Name: "Dune"}, result.Matches[0])
	}

	result, err := env.catalog.Search(ctx, "tolkien")
	require.NoError(t, err)
	assert.True(t, result.Performed)
	assert.Zero(t, result.Count)
	assert.NotNil(t, result.Matches)
}

func TestSearchFoldsNonASCIILetters(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	section, book := env.seedBook(t, "Pâtisserie", "Éclair", "Zoë")

	for _, query := range []string{"éclair", "ÉCLAIR", "Éclair", "ZOË", "zoë"} {
		result, err := env.catalog.Search(ctx, query)
		require.NoError(t, err)
		require.Equal(t, 1, result.Count, query)
		assert.Equal(t, repo.SearchMatch{SectionID: section.ID, BookID: book.ID, Name: "Éclair"}, result.Matches[0])
	}
}

func TestCatalogPublishesEvents(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, book := env.seedBook(t, "Fiction", "Dune", "Herbert")
	require.NoError(t, env.catalog.DeleteBook(ctx, book.ID))

	assert.Eventually(t, func() bool {
		return env.publisher.Has(events.EventSectionCreated) &&
			env.publisher.Has(events.EventBookCreated) &&
			env.publisher.Has(events.EventBookDeleted)
	}, time.Second, 10*time.Millisecond)
}

func TestOverview(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, book := env.seedBook(t, "Fiction", "Dune", "Herbert")
	_, err := env.lending.Assign(ctx, 1, book.ID)
	require.NoError(t, err)

	stats, err := env.catalog.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.SectionCount)
	assert.Equal(t, int64(1), stats.BookCount)
	assert.Equal(t, int64(1), stats.AssignmentCount)
	assert.Zero(t, stats.RequestCount)
}
