package web

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jakelazaroff/activitypub-starter-kit/activitypub"
)

// BasicAuthMiddleware guards the admin surface when credentials are
// configured. Unset credentials leave it open, for local development.
func BasicAuthMiddleware(user, pass string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user == "" || pass == "" {
			c.Next()
			return
		}

		u, p, ok := c.Request.BasicAuth()
		if !ok || !safeCompare(u, user) || !safeCompare(p, pass) {
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}

// safeCompare compares credentials in constant time, independent of length.
func safeCompare(input, secret string) bool {
	a := sha256.Sum256([]byte(input))
	b := sha256.Sum256([]byte(secret))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// HandleCreate publishes a new post: the object and its wrapping Create
// activity are stored, and the activity is broadcast to all followers.
func HandleCreate(c *gin.Context, app *App) {
	body, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var req struct {
		Object map[string]any `json:"object"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Object == nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if _, ok := req.Object["type"].(string); !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	if err := PublishObject(app, req.Object); err != nil {
		log.Printf("Admin: Failed to publish post: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusNoContent)
}

// PublishObject stores the object and a Create activity wrapping it, then
// fans the activity out to followers. The fan-out is not awaited.
func PublishObject(app *App, object map[string]any) error {
	actor := app.Conf.ActorIRI()
	published := time.Now().UTC().Format(time.RFC3339)

	obj := map[string]any{
		"attributedTo": actor,
		"published":    published,
		"to":           []string{publicAudience},
		"cc":           []string{fmt.Sprintf("%s/followers", actor)},
	}
	for k, v := range object {
		obj[k] = v
	}

	objectID := uuid.New()
	objectJSON, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal object: %w", err)
	}
	if err := app.DB.CreatePost(objectID, string(objectJSON)); err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}

	embedded := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		embedded[k] = v
	}
	embedded["id"] = fmt.Sprintf("%s/posts/%s", actor, objectID)

	create := map[string]any{
		"@context":  activitypub.ActivityStreamsContext,
		"type":      "Create",
		"published": published,
		"actor":     actor,
		"to":        []string{publicAudience},
		"cc":        []string{fmt.Sprintf("%s/followers", actor)},
		"object":    embedded,
	}

	activityID := uuid.New()
	createJSON, err := json.Marshal(create)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}
	if err := app.DB.CreatePost(activityID, string(createJSON)); err != nil {
		return fmt.Errorf("failed to store activity: %w", err)
	}

	broadcast := make(map[string]any, len(create)+1)
	for k, v := range create {
		broadcast[k] = v
	}
	broadcast["id"] = fmt.Sprintf("%s/posts/%s", actor, activityID)
	app.Broadcaster.Broadcast(broadcast)

	return nil
}

// HandleFollow initiates a follow of the remote actor named in the body.
func HandleFollow(c *gin.Context, app *App) {
	remote, ok := remoteActorFromBody(c)
	if !ok {
		return
	}

	err := app.Relationships.Follow(c.Request.Context(), remote)
	switch {
	case errors.Is(err, activitypub.ErrAlreadyFollowing):
		c.JSON(http.StatusConflict, gin.H{"error": "already following"})
	case err != nil:
		log.Printf("Admin: Follow of %s failed: %v", remote, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver follow request"})
	default:
		c.Status(http.StatusNoContent)
	}
}

// HandleUnfollow undoes a follow. The local record is gone either way; a
// failed Undo delivery is still reported.
func HandleUnfollow(c *gin.Context, app *App) {
	remote, ok := remoteActorFromBody(c)
	if !ok {
		return
	}

	if err := app.Relationships.Unfollow(c.Request.Context(), remote); err != nil {
		log.Printf("Admin: Undo delivery to %s failed: %v", remote, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver undo"})
		return
	}

	c.Status(http.StatusNoContent)
}

func remoteActorFromBody(c *gin.Context) (string, bool) {
	var req struct {
		Actor string `json:"actor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Actor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing actor"})
		return "", false
	}
	return req.Actor, true
}
