package board

import (
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

const (
	defaultPageSize         = 12
	defaultSearchDebounce   = 400 * time.Millisecond
	defaultToastTTL         = 5 * time.Second
	defaultBannerTTL        = 5 * time.Second
	defaultUploadPurgeDelay = 2 * time.Second
	defaultRefreshInterval  = time.Minute
	environmentLocal        = "local"
	environmentProduction   = "production"
	environmentDevelopment  = "development"
)

// defaultAllowedExtensions mirrors the server-side upload allow-list. The two
// lists must match exactly for a rejected file to be rejected on both sides.
var defaultAllowedExtensions = model.AllowedAttachmentExtensions

// Config carries the tunable delays and limits of the board controllers.
// Fixed production values are presentation constants; tests shorten them.
type Config struct {
	PageSize          int
	SearchDebounce    time.Duration
	ToastTTL          time.Duration
	BannerTTL         time.Duration
	UploadPurgeDelay  time.Duration
	RefreshInterval   time.Duration
	MaxAttachedFiles  int
	MaxUploadBytes    int64
	AllowedExtensions []string
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:          defaultPageSize,
		SearchDebounce:    defaultSearchDebounce,
		ToastTTL:          defaultToastTTL,
		BannerTTL:         defaultBannerTTL,
		UploadPurgeDelay:  defaultUploadPurgeDelay,
		RefreshInterval:   defaultRefreshInterval,
		MaxAttachedFiles:  model.MaxAttachedFiles,
		MaxUploadBytes:    model.MaxAttachmentBytes,
		AllowedExtensions: defaultAllowedExtensions,
	}
}

func (configuration Config) withDefaults() Config {
	defaults := DefaultConfig()
	if configuration.PageSize <= 0 {
		configuration.PageSize = defaults.PageSize
	}
	if configuration.SearchDebounce <= 0 {
		configuration.SearchDebounce = defaults.SearchDebounce
	}
	if configuration.ToastTTL <= 0 {
		configuration.ToastTTL = defaults.ToastTTL
	}
	if configuration.BannerTTL <= 0 {
		configuration.BannerTTL = defaults.BannerTTL
	}
	if configuration.UploadPurgeDelay <= 0 {
		configuration.UploadPurgeDelay = defaults.UploadPurgeDelay
	}
	if configuration.RefreshInterval <= 0 {
		configuration.RefreshInterval = defaults.RefreshInterval
	}
	if configuration.MaxAttachedFiles <= 0 {
		configuration.MaxAttachedFiles = defaults.MaxAttachedFiles
	}
	if configuration.MaxUploadBytes <= 0 {
		configuration.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if len(configuration.AllowedExtensions) == 0 {
		configuration.AllowedExtensions = defaults.AllowedExtensions
	}
	return configuration
}

// Viewer identifies the authenticated actor, when one exists.
type Viewer struct {
	Name  string
	Email string
}

// IsAuthenticated reports whether an actor is present.
func (viewer *Viewer) IsAuthenticated() bool {
	return viewer != nil && (viewer.Email != "" || viewer.Name != "")
}

// DetectEnvironment derives the default environment indicator from the API
// target and build mode. The value stays user-overridable on the form.
func DetectEnvironment(apiBaseURL string, productionBuild bool) string {
	if looksLoopback(apiBaseURL) {
		return environmentLocal
	}
	if productionBuild {
		return environmentProduction
	}
	return environmentDevelopment
}

func looksLoopback(apiBaseURL string) bool {
	for _, loopbackMarker := range []string{"localhost", "127.0.0.1", "[::1]"} {
		if strings.Contains(apiBaseURL, loopbackMarker) {
			return true
		}
	}
	return false
}
