// Package idgen generates identifiers for messages and deliveries.
package idgen

import "github.com/google/uuid"

// MessageID generates an identifier for an outbound message.
func MessageID() string {
	return "msg_" + uuid.NewString()
}

// DeliveryID generates an identifier for a delivery record.
func DeliveryID() string {
	return "dlv_" + uuid.NewString()
}

// Nonce generates an opaque random token, used for OAuth request nonces.
func Nonce() string {
	u := uuid.New()
	buf := make([]byte, 0, 32)
	for _, b := range u {
		const hex = "0123456789abcdef"
		buf = append(buf, hex[b>>4], hex[b&0x0f])
	}
	return string(buf)
}
