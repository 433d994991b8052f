package iyzico

import (
	"encoding/base64"
	"strings"
)

// deliveryMetaMarker separates the correlation id from the optional embedded
// delivery-metadata block in a conversation id.
const deliveryMetaMarker = "::dm::"

// DeliveryMetadata is the optional out-of-band block a storefront checkout
// embeds into the gateway conversation id: delivery details the order
// coordinator needs later, when only the gateway payload is available.
type DeliveryMetadata struct {
	DeliveryDate string
	DeliveryNote string
	Source       string
}

// IsZero reports whether no metadata fields are set.
func (m DeliveryMetadata) IsZero() bool {
	return m == DeliveryMetadata{}
}

// BuildConversationID builds "<subscriptionID>" or
// "<subscriptionID>::dm::<base64url(tilde-joined fields)>".
func BuildConversationID(subscriptionID string, meta *DeliveryMetadata) string {
	if meta == nil || meta.IsZero() {
		return subscriptionID
	}
	raw := strings.Join([]string{meta.DeliveryDate, meta.DeliveryNote, meta.Source}, "~")
	return subscriptionID + deliveryMetaMarker + base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// SplitConversationID extracts the correlation id and any embedded delivery
// metadata. Decoding is strictly best-effort: any malformed block yields
// empty metadata, never an error, since conversation ids pass through
// third-party systems unvalidated.
func SplitConversationID(conversationID string) (string, DeliveryMetadata) {
	id, encoded, found := strings.Cut(conversationID, deliveryMetaMarker)
	if !found || encoded == "" {
		return id, DeliveryMetadata{}
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return id, DeliveryMetadata{}
	}

	parts := strings.Split(string(raw), "~")
	meta := DeliveryMetadata{}
	if len(parts) > 0 {
		meta.DeliveryDate = parts[0]
	}
	if len(parts) > 1 {
		meta.DeliveryNote = parts[1]
	}
	if len(parts) > 2 {
		meta.Source = parts[2]
	}
	return id, meta
}
