package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/storage"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/testutil"
)

func TestOpenDatabaseValidatesConfiguration(testingT *testing.T) {
	testCases := []struct {
		name          string
		configuration storage.Config
		expectedError error
	}{
		{
			name:          "missingDriverName",
			configuration: storage.Config{DataSourceName: "file:test?mode=memory"},
			expectedError: storage.ErrMissingDatabaseDriverName,
		},
		{
			name:          "unsupportedDriver",
			configuration: storage.Config{DriverName: "postgres", DataSourceName: "dsn"},
			expectedError: storage.ErrUnsupportedDatabaseDriver,
		},
		{
			name:          "missingDataSourceName",
			configuration: storage.Config{DriverName: storage.DriverNameSQLite},
			expectedError: storage.ErrMissingDataSourceName,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(nestedT *testing.T) {
			_, openErr := storage.OpenDatabase(testCase.configuration)
			require.ErrorIs(nestedT, openErr, testCase.expectedError)
		})
	}
}

func TestOpenDatabaseAndMigrate(testingT *testing.T) {
	database := testutil.NewSQLiteTestDatabase(testingT).OpenMigrated(testingT)

	item := model.FeedbackItem{
		ID:          storage.NewID(),
		Type:        model.FeedbackTypeGeneral,
		Title:       "Persisted item",
		Description: "a description long enough to store",
		Status:      model.FeedbackStatusOpen,
	}
	require.NoError(testingT, database.Create(&item).Error)

	var loaded model.FeedbackItem
	require.NoError(testingT, database.First(&loaded, "id = ?", item.ID).Error)
	require.Equal(testingT, "Persisted item", loaded.Title)
	require.False(testingT, loaded.CreatedAt.IsZero())
}

func TestUpvoteUniquenessEnforced(testingT *testing.T) {
	database := testutil.NewSQLiteTestDatabase(testingT).OpenMigrated(testingT)

	firstUpvote := model.FeedbackUpvote{ID: storage.NewID(), FeedbackID: "fb-1", ViewerID: "viewer-1"}
	require.NoError(testingT, database.Create(&firstUpvote).Error)

	duplicateUpvote := model.FeedbackUpvote{ID: storage.NewID(), FeedbackID: "fb-1", ViewerID: "viewer-1"}
	require.Error(testingT, database.Create(&duplicateUpvote).Error)

	otherViewerUpvote := model.FeedbackUpvote{ID: storage.NewID(), FeedbackID: "fb-1", ViewerID: "viewer-2"}
	require.NoError(testingT, database.Create(&otherViewerUpvote).Error)
}

func TestNewIDUniqueness(testingT *testing.T) {
	first := storage.NewID()
	second := storage.NewID()
	require.NotEmpty(testingT, first)
	require.NotEqual(testingT, first, second)
	require.Len(testingT, first, 36)
}
