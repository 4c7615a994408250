// Package qrtoken encodes and decodes the opaque payload embedded in a
// session's QR image. The payload carries no expiry; liveness is decided by
// the session status at submission time.
package qrtoken

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"classattend/internal/apperr"
)

const nonceBytes = 16

// Payload is the structured form of a session token.
type Payload struct {
	SessionID string `json:"session_id"`
	SubjectID string `json:"subject_id"`
	IssuedAt  int64  `json:"issued_at"`
	Nonce     string `json:"nonce"`
}

// New mints a payload for the given session with a fresh random nonce.
func New(sessionID, subjectID string) (Payload, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return Payload{}, err
	}
	return Payload{
		SessionID: sessionID,
		SubjectID: subjectID,
		IssuedAt:  time.Now().Unix(),
		Nonce:     hex.EncodeToString(buf),
	}, nil
}

// Encode serializes the payload into the opaque string carried by the QR
// image. The result must round-trip byte-for-byte through Decode.
func Encode(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode parses an opaque token string back to its structured form. Any
// malformed or incomplete payload fails before the store is touched.
func Decode(raw string) (Payload, error) {
	if raw == "" {
		return Payload{}, apperr.Decode("empty QR payload")
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Payload{}, apperr.Wrap(apperr.KindDecode, "invalid or expired QR code", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, apperr.Wrap(apperr.KindDecode, "invalid or expired QR code", err)
	}
	if p.SessionID == "" || p.SubjectID == "" || p.Nonce == "" || p.IssuedAt == 0 {
		return Payload{}, apperr.Decode("invalid or expired QR code")
	}
	return p, nil
}
