package web

import (
	"crypto/rand"
	"crypto/rsa"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jakelazaroff/activitypub-starter-kit/activitypub"
	"github.com/jakelazaroff/activitypub-starter-kit/db"
	"github.com/jakelazaroff/activitypub-starter-kit/util"
)

// newTestApp wires a full App against a throwaway database. Outbound
// deliveries go nowhere; tests that need them assert on the error paths.
func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conf := &util.AppConfig{}
	conf.Conf.Host = "127.0.0.1"
	conf.Conf.HttpPort = 3000
	conf.Conf.Domain = "example.com"
	conf.Conf.Account = "alice"
	conf.Conf.Protocol = "https"

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	resolver := activitypub.NewResolver(nil, 0)
	signer := activitypub.NewSigner(resolver, key, conf.ActorIRI(), nil)

	return &App{
		Conf:          conf,
		DB:            database,
		Verifier:      activitypub.NewVerifier(resolver),
		Relationships: activitypub.NewRelationships(database, signer, conf.ActorIRI(), conf.BaseURL()),
		Broadcaster:   activitypub.NewBroadcaster(signer, database),
		PublicKeyPem:  "-----BEGIN PUBLIC KEY-----\ntest\n-----END PUBLIC KEY-----\n",
	}
}
