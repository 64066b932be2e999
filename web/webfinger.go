package web

import (
	"encoding/json"
	"fmt"
)

// GetWebfinger maps the single local account handle to its actor URL. Any
// other resource is unknown.
func GetWebfinger(app *App, resource string) ([]byte, bool) {
	subject := fmt.Sprintf("acct:%s@%s", app.Conf.Conf.Account, app.Conf.Conf.Domain)
	if resource != subject {
		return nil, false
	}

	doc := map[string]any{
		"subject": subject,
		"links": []map[string]any{
			{
				"rel":  "self",
				"type": "application/activity+json",
				"href": app.Conf.ActorIRI(),
			},
		},
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, false
	}
	return body, true
}

func GetWebFingerNotFound() string {
	return `{"detail":"Not Found"}`
}
