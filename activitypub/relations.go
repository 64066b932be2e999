package activitypub

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jakelazaroff/activitypub-starter-kit/domain"
)

// Store is the persistence surface the relationship state machine drives.
// Implementations serialize concurrent writes internally; no locking is added
// here.
type Store interface {
	SaveFollower(actor, uri string) error
	DeleteFollower(actor, uri string) (bool, error)
	ReadAllFollowers() ([]domain.Follower, error)

	SaveFollowing(actor, uri string) error
	ReadFollowingByActor(actor string) (*domain.Following, error)
	ConfirmFollowing(uri string) (bool, error)
	DeleteFollowing(actor string) error
}

// Relationships applies inbound and outbound Follow, Accept, and Undo
// activities to the local follower/following records.
type Relationships struct {
	store    Store
	signer   Sender
	actorURI string
	newID    func() string
}

// NewRelationships creates the relationship state machine for the local actor.
// idBase is the URL prefix freshly minted activity ids are placed under, e.g.
// "https://example.com".
func NewRelationships(store Store, signer Sender, actorURI, idBase string) *Relationships {
	return &Relationships{
		store:    store,
		signer:   signer,
		actorURI: actorURI,
		newID: func() string {
			return fmt.Sprintf("%s/%s", idBase, uuid.New())
		},
	}
}

// HandleActivity applies a verified inbound activity. sender is the
// authenticated actor id returned by the Verifier; the raw body is passed so
// replies can embed the original activity verbatim.
func (rel *Relationships) HandleActivity(ctx context.Context, sender string, raw []byte) error {
	act, asMap, err := decodeActivity(raw)
	if err != nil {
		return fmt.Errorf("failed to parse activity: %w", err)
	}

	log.Printf("Inbox: Received %s from %s", act.Type, sender)

	switch act.Type {
	case "Follow":
		return rel.handleFollow(ctx, act, asMap)
	case "Accept":
		return rel.handleAccept(act)
	case "Undo":
		return rel.handleUndo(act)
	default:
		// Other activity types (Create, Like, Announce, ...) are acknowledged
		// without effect; this endpoint only tracks relationships.
		log.Printf("Inbox: Ignoring %s activity %s", act.Type, act.ID)
		return nil
	}
}

// handleFollow records the new follower and replies with a signed Accept.
// The follower record is persisted before the Accept is attempted and kept
// even when delivery fails: the remote can always re-send the Follow, while a
// dropped record would lose the follower on a transient outbound failure.
func (rel *Relationships) handleFollow(ctx context.Context, follow Activity, raw map[string]any) error {
	if err := rel.store.SaveFollower(follow.Actor, follow.ID); err != nil {
		return fmt.Errorf("failed to save follower: %w", err)
	}

	accept := Activity{
		Context: ActivityStreamsContext,
		ID:      rel.newID(),
		Type:    "Accept",
		Actor:   rel.actorURI,
		Object:  raw,
	}

	if err := rel.signer.Send(ctx, follow.Actor, accept); err != nil {
		log.Printf("Inbox: Accept delivery to %s failed: %v", follow.Actor, err)
		return nil
	}

	log.Printf("Inbox: Accepted follow from %s", follow.Actor)
	return nil
}

// handleAccept confirms a pending following record. An Accept whose embedded
// Follow names a different actor, or whose Follow id matches no record, is a
// silent no-op.
func (rel *Relationships) handleAccept(accept Activity) error {
	obj := embeddedObject(accept.Object)
	if obj.Type != "Follow" || obj.ID == "" {
		return nil
	}
	if obj.Actor != "" && obj.Actor != rel.actorURI {
		return nil
	}

	matched, err := rel.store.ConfirmFollowing(obj.ID)
	if err != nil {
		return fmt.Errorf("failed to confirm follow: %w", err)
	}
	if !matched {
		log.Printf("Inbox: Accept for unknown follow %s, ignoring", obj.ID)
		return nil
	}

	log.Printf("Inbox: Follow %s was accepted by %s", obj.ID, accept.Actor)
	return nil
}

// handleUndo removes the follower record named by an Undo(Follow). An Undo
// with no matching record is a silent no-op.
func (rel *Relationships) handleUndo(undo Activity) error {
	obj := embeddedObject(undo.Object)
	if obj.Type != "Follow" || obj.ID == "" {
		return nil
	}

	removed, err := rel.store.DeleteFollower(undo.Actor, obj.ID)
	if err != nil {
		return fmt.Errorf("failed to delete follower: %w", err)
	}
	if removed {
		log.Printf("Inbox: Removed follower %s", undo.Actor)
	}
	return nil
}

// Follow initiates a follow of the remote actor: a signed Follow is sent and
// a pending following record created. Fails with ErrAlreadyFollowing when a
// record for the actor already exists.
func (rel *Relationships) Follow(ctx context.Context, remote string) error {
	existing, err := rel.store.ReadFollowingByActor(remote)
	if err != nil {
		return fmt.Errorf("failed to look up following: %w", err)
	}
	if existing != nil {
		return ErrAlreadyFollowing
	}

	uri := rel.newID()
	follow := Activity{
		Context: ActivityStreamsContext,
		ID:      uri,
		Type:    "Follow",
		Actor:   rel.actorURI,
		Object:  remote,
	}

	if err := rel.signer.Send(ctx, remote, follow); err != nil {
		return err
	}

	if err := rel.store.SaveFollowing(remote, uri); err != nil {
		return fmt.Errorf("failed to save following: %w", err)
	}

	log.Printf("Outbox: Sent follow request to %s", remote)
	return nil
}

// Unfollow sends a signed Undo of the local actor's Follow and deletes the
// following record regardless of the delivery outcome; a delivery failure is
// still reported to the caller. Unfollowing an actor never followed is a
// no-op.
func (rel *Relationships) Unfollow(ctx context.Context, remote string) error {
	following, err := rel.store.ReadFollowingByActor(remote)
	if err != nil {
		return fmt.Errorf("failed to look up following: %w", err)
	}
	if following == nil {
		return nil
	}

	undo := Activity{
		Context: ActivityStreamsContext,
		ID:      following.URI + "/undo",
		Type:    "Undo",
		Actor:   rel.actorURI,
		Object: map[string]any{
			"id":     following.URI,
			"type":   "Follow",
			"actor":  rel.actorURI,
			"object": remote,
		},
	}

	sendErr := rel.signer.Send(ctx, remote, undo)

	if err := rel.store.DeleteFollowing(remote); err != nil {
		return fmt.Errorf("failed to delete following: %w", err)
	}

	log.Printf("Outbox: Unfollowed %s", remote)
	return sendErr
}
