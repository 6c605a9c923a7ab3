// Package remind sends web push reminders ahead of scheduled meetings.
// Subscriptions live in the preferences collection, so they survive engine
// fallback along with everything else.
package remind

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/mhollis/serenity/internal/storage"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

const subscriptionsKey = "pushSubscriptions"

// Subscription is one browser push endpoint.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Service handles sending web push notifications.
type Service struct {
	publicKey  string
	privateKey string
}

// NewService creates a push service with VAPID keys. An empty key pair
// disables sending.
func NewService(publicKey, privateKey string) *Service {
	return &Service{publicKey: publicKey, privateKey: privateKey}
}

// Enabled reports whether VAPID keys are configured.
func (s *Service) Enabled() bool {
	return s.publicKey != "" && s.privateKey != ""
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send sends a push notification to a subscription.
func (s *Service) Send(sub Subscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      "mailto:noreply@serenity.local",
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.Bytes())

	return publicKey, privateKey, nil
}

// Subscriptions loads the saved push subscriptions.
func Subscriptions(ctx context.Context, store *storage.Adapter) []Subscription {
	raw := store.GetPreference(ctx, subscriptionsKey)
	if raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var subs []Subscription
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil
	}
	return subs
}

// Subscribe saves a subscription, replacing any existing one with the same
// endpoint.
func Subscribe(ctx context.Context, store *storage.Adapter, sub Subscription) error {
	if sub.Endpoint == "" {
		return fmt.Errorf("subscription endpoint required")
	}
	subs := Subscriptions(ctx, store)
	out := subs[:0]
	for _, existing := range subs {
		if existing.Endpoint != sub.Endpoint {
			out = append(out, existing)
		}
	}
	out = append(out, sub)
	return store.SetPreference(ctx, subscriptionsKey, out)
}

// Unsubscribe removes a subscription by endpoint.
func Unsubscribe(ctx context.Context, store *storage.Adapter, endpoint string) error {
	subs := Subscriptions(ctx, store)
	out := make([]Subscription, 0, len(subs))
	for _, existing := range subs {
		if existing.Endpoint != endpoint {
			out = append(out, existing)
		}
	}
	return store.SetPreference(ctx, subscriptionsKey, out)
}
