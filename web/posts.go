package web

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// GetPost renders a single stored post as its ActivityPub object, with the id
// rewritten to its canonical URL under the actor.
func GetPost(app *App, id uuid.UUID) ([]byte, error) {
	post, err := app.DB.ReadPostById(id)
	if err != nil {
		return nil, err
	}

	var contents map[string]any
	if err := json.Unmarshal([]byte(post.Contents), &contents); err != nil {
		return nil, err
	}
	contents["id"] = fmt.Sprintf("%s/posts/%s", app.Conf.ActorIRI(), post.Id)

	return json.Marshal(contents)
}
