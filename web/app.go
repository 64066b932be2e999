package web

import (
	"github.com/jakelazaroff/activitypub-starter-kit/activitypub"
	"github.com/jakelazaroff/activitypub-starter-kit/db"
	"github.com/jakelazaroff/activitypub-starter-kit/util"
)

// App bundles the wired components the handlers work against. Everything is
// injected from main; no handler reaches for process-wide state.
type App struct {
	Conf          *util.AppConfig
	DB            *db.DB
	Verifier      *activitypub.Verifier
	Relationships *activitypub.Relationships
	Broadcaster   *activitypub.Broadcaster
	PublicKeyPem  string
}
