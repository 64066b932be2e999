package domain

import (
	"github.com/google/uuid"
	"time"
)

// Post is a locally stored activity or object, kept as opaque JSON. Posts are
// append-only; nothing in the federation core mutates or deletes them.
type Post struct {
	Id        uuid.UUID
	Contents  string // raw activity/object JSON
	CreatedAt time.Time
}

// Follower is a remote actor who follows the local actor. Unique per
// (actor, uri); re-insertion never duplicates.
type Follower struct {
	Actor     string // remote actor URI
	URI       string // the remote Follow activity's id
	CreatedAt time.Time
}

// Following is the local actor's subscription to a remote actor. At most one
// row per remote actor; Confirmed flips to true when the matching Accept
// arrives and is never reset.
type Following struct {
	Actor     string // remote actor URI
	URI       string // the local Follow activity's id
	Confirmed bool
	CreatedAt time.Time
}
