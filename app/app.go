package app

import (
	"github.com/go-chi/oauth"

	"github.com/TRSiddique/university-association-sub000/config"
	"github.com/TRSiddique/university-association-sub000/database"
	"github.com/TRSiddique/university-association-sub000/export"
)

// App bundles what HTTP handlers need. Config.TokenTTL and
// BearerServer.TokenTTL are both promoted, so always name the field.
type App struct {
	*database.Store
	*oauth.BearerServer
	config.Config
}

// ExportOptions formats export timestamps in the configured zone.
func (a App) ExportOptions() export.Options {
	return export.Options{Location: a.Config.Location}
}
