package activitypub

import "encoding/json"

const ActivityStreamsContext = "https://www.w3.org/ns/activitystreams"

// Activity represents a generic ActivityPub activity. Object is either a URI
// string or an embedded object.
type Activity struct {
	Context any    `json:"@context,omitempty"`
	ID      string `json:"id"`
	Type    string `json:"type"`
	Actor   string `json:"actor"`
	Object  any    `json:"object,omitempty"`
}

// EmbeddedObject is the subset of an embedded activity object the follow
// protocol cares about.
type EmbeddedObject struct {
	ID    string
	Type  string
	Actor string
}

// embeddedObject normalizes an activity's object field: a bare URI string
// yields an object with only ID set, a map yields id/type/actor.
func embeddedObject(obj any) EmbeddedObject {
	switch o := obj.(type) {
	case string:
		return EmbeddedObject{ID: o}
	case map[string]any:
		var e EmbeddedObject
		if id, ok := o["id"].(string); ok {
			e.ID = id
		}
		if typ, ok := o["type"].(string); ok {
			e.Type = typ
		}
		if actor, ok := o["actor"].(string); ok {
			e.Actor = actor
		}
		return e
	}
	return EmbeddedObject{}
}

// decodeActivity parses raw activity JSON into both the typed envelope and
// the raw map (the map is re-embedded when replying, e.g. Accept-on-Follow).
func decodeActivity(raw []byte) (Activity, map[string]any, error) {
	var act Activity
	if err := json.Unmarshal(raw, &act); err != nil {
		return act, nil, err
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return act, nil, err
	}
	return act, asMap, nil
}
