package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/storage"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/stubserver"
)

const (
	commandUseName          = "stubserver"
	commandShortDescription = "Run the local feedback board API"
	commandLongDescription  = "Launch the stub feedback board API used for development and integration testing"

	missingConfigurationMessage  = "missing required configuration"
	loggerCreationErrorMessage   = "logger"
	unexpectedArgumentsMessage   = "unexpected command arguments"
	commandInitializationFailure = "failed to configure command"
	flagNotDefinedMessage        = "flag %s not defined"
	environmentApplyErrorMessage = "failed to apply environment configuration"

	logEventListening         = "listening"
	logFieldAddress           = "addr"
	loggerContextOpenDatabase = "open_db"
	loggerContextAutoMigrate  = "migrate"
	loggerContextServer       = "server"

	flagNameApplicationAddress  = "app-addr"
	flagNameDatabasePath        = "db-path"
	flagNameSessionSecret       = "session-secret"
	flagNameUploadDirectory     = "upload-dir"
	flagUsageApplicationAddress = "address for the HTTP server to listen on"
	flagUsageDatabasePath       = "SQLite database path"
	flagUsageSessionSecret      = "secret used to sign viewer session cookies"
	flagUsageUploadDirectory    = "directory receiving uploaded attachments"

	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeyDatabasePath       = "DB_PATH"
	environmentKeySessionSecret      = "SESSION_SECRET"
	environmentKeyUploadDirectory    = "UPLOAD_DIR"

	defaultApplicationAddress = ":8080"
	defaultDatabasePath       = "feedback_board.db"
	defaultUploadDirectory    = "uploads"

	readHeaderTimeoutSeconds = 5
)

// StubConfig captures configuration needed to run the stub API.
type StubConfig struct {
	ApplicationAddress string
	DatabasePath       string
	SessionSecret      string
	UploadDirectory    string
}

// DatabaseOpener opens a database connection for the stub server.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// StubApplication constructs and executes the stub server command.
type StubApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewStubApplication creates a StubApplication with default dependencies.
func NewStubApplication() *StubApplication {
	return &StubApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *StubApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *StubApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the stub server.
func (application *StubApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *StubApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeyDatabasePath, defaultDatabasePath)
	application.configurationLoader.SetDefault(environmentKeySessionSecret, "")
	application.configurationLoader.SetDefault(environmentKeyUploadDirectory, defaultUploadDirectory)
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.String(flagNameDatabasePath, defaultDatabasePath, flagUsageDatabasePath)
	commandFlags.String(flagNameSessionSecret, "", flagUsageSessionSecret)
	commandFlags.String(flagNameUploadDirectory, defaultUploadDirectory, flagUsageUploadDirectory)

	bindings := []struct {
		environmentKey string
		flagName       string
	}{
		{environmentKeyApplicationAddress, flagNameApplicationAddress},
		{environmentKeyDatabasePath, flagNameDatabasePath},
		{environmentKeySessionSecret, flagNameSessionSecret},
		{environmentKeyUploadDirectory, flagNameUploadDirectory},
	}
	for _, binding := range bindings {
		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	return nil
}

func (application *StubApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *StubApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentApplyErrorMessage, setErr)
	}

	return nil
}

func (application *StubApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	stubConfig := StubConfig{
		ApplicationAddress: application.configurationLoader.GetString(environmentKeyApplicationAddress),
		DatabasePath:       strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabasePath)),
		SessionSecret:      strings.TrimSpace(application.configurationLoader.GetString(environmentKeySessionSecret)),
		UploadDirectory:    strings.TrimSpace(application.configurationLoader.GetString(environmentKeyUploadDirectory)),
	}

	if stubConfig.DatabasePath == "" {
		return fmt.Errorf("%s: %s", missingConfigurationMessage, flagNameDatabasePath)
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, databaseErr := application.databaseOpener(storage.Config{
		DriverName:     storage.DriverNameSQLite,
		DataSourceName: stubConfig.DatabasePath,
	})
	if databaseErr != nil {
		logger.Fatal(loggerContextOpenDatabase, zap.Error(databaseErr))
	}

	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		logger.Fatal(loggerContextAutoMigrate, zap.Error(migrateErr))
	}

	apiServer := stubserver.NewServer(database, logger, stubserver.Config{
		SessionSecret:   stubConfig.SessionSecret,
		UploadDirectory: stubConfig.UploadDirectory,
	})

	httpServer := &http.Server{
		Addr:              stubConfig.ApplicationAddress,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening, zap.String(logFieldAddress, stubConfig.ApplicationAddress))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal(loggerContextServer, zap.Error(serveErr))
	}

	return nil
}

func main() {
	application := NewStubApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
