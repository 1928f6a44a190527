// Package frames handles Farcaster frame lifecycle webhooks: a client
// adding or removing the frame, and enabling or disabling notifications.
// These events are the only writer of notification-enablement state; the
// reminder engine only ever reads it.
package frames

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/calmerhq/calmer/internal/domain/user"
)

const (
	EventFrameAdded            = "frame_added"
	EventFrameRemoved          = "frame_removed"
	EventNotificationsEnabled  = "notifications_enabled"
	EventNotificationsDisabled = "notifications_disabled"
)

// SignedRequest is the JSON Farcaster Signature envelope the client posts:
// base64url-encoded header and payload plus a signature over both.
type SignedRequest struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

type EventHeader struct {
	FID  int64  `json:"fid"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

type Event struct {
	Event               string                    `json:"event"`
	NotificationDetails *user.NotificationDetails `json:"notificationDetails,omitempty"`
}

// Decode unpacks the envelope without verifying the signature.
func Decode(req SignedRequest) (EventHeader, Event, error) {
	var hdr EventHeader
	var ev Event

	hb, err := base64.RawURLEncoding.DecodeString(req.Header)
	if err != nil {
		return hdr, ev, fmt.Errorf("decode header: %w", err)
	}
	if err := json.Unmarshal(hb, &hdr); err != nil {
		return hdr, ev, fmt.Errorf("parse header: %w", err)
	}

	pb, err := base64.RawURLEncoding.DecodeString(req.Payload)
	if err != nil {
		return hdr, ev, fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(pb, &ev); err != nil {
		return hdr, ev, fmt.Errorf("parse payload: %w", err)
	}
	return hdr, ev, nil
}

// Verifier checks that the envelope was signed by an app key of the
// claimed fid. Swappable so deployments can plug a hub-backed check in.
type Verifier interface {
	Verify(ctx context.Context, req SignedRequest, hdr EventHeader) error
}

// ShapeVerifier accepts any structurally valid envelope. Cryptographic
// app-key verification against a hub is intentionally not performed.
type ShapeVerifier struct{}

func (ShapeVerifier) Verify(_ context.Context, req SignedRequest, hdr EventHeader) error {
	if hdr.FID <= 0 {
		return fmt.Errorf("invalid fid %d", hdr.FID)
	}
	if hdr.Key == "" {
		return fmt.Errorf("missing app key")
	}
	if _, err := base64.RawURLEncoding.DecodeString(req.Signature); err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	return nil
}
