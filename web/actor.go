package web

import (
	"encoding/json"
	"fmt"
)

// GetActor renders the local actor document, public key block included.
func GetActor(app *App) ([]byte, error) {
	actor := app.Conf.ActorIRI()

	doc := map[string]any{
		"@context": []string{
			"https://www.w3.org/ns/activitystreams",
			"https://w3id.org/security/v1",
		},
		"id":                actor,
		"type":              "Person",
		"preferredUsername": app.Conf.Conf.Account,
		"inbox":             fmt.Sprintf("%s/inbox", actor),
		"outbox":            fmt.Sprintf("%s/outbox", actor),
		"followers":         fmt.Sprintf("%s/followers", actor),
		"following":         fmt.Sprintf("%s/following", actor),
		"publicKey": map[string]any{
			"id":           fmt.Sprintf("%s#main-key", actor),
			"owner":        actor,
			"publicKeyPem": app.PublicKeyPem,
		},
	}

	return json.Marshal(doc)
}
