package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/mentorlink/internal/auth"
	"github.com/sakif/mentorlink/internal/model"
)

// ErrMalformed is returned by a Codec when a stored value cannot be decoded
// into a well-formed Session Record.
var ErrMalformed = errors.New("session: malformed record")

// Codec turns a Session Record into the string kept in the store and back.
//
// Decode MUST return ErrMalformed (possibly wrapped) for anything that does
// not yield a well-formed record, so the Manager can discard it.
type Codec interface {
	Encode(rec model.SessionRecord) (string, error)
	Decode(raw string) (model.SessionRecord, error)
}

// JSONCodec stores the record as plain JSON in the persisted layout.
type JSONCodec struct{}

func (JSONCodec) Encode(rec model.SessionRecord) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("session: encoding record: %w", err)
	}
	return string(b), nil
}

func (JSONCodec) Decode(raw string) (model.SessionRecord, error) {
	var rec model.SessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return model.SessionRecord{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !rec.WellFormed() {
		return model.SessionRecord{}, ErrMalformed
	}
	return rec, nil
}

// SealedCodec stores the record as a signed token. A token that fails
// verification is malformed, the same as unparseable JSON.
type SealedCodec struct {
	tokens *auth.TokenService
}

// NewSealedCodec wraps a TokenService.
func NewSealedCodec(tokens *auth.TokenService) SealedCodec {
	return SealedCodec{tokens: tokens}
}

func (c SealedCodec) Encode(rec model.SessionRecord) (string, error) {
	return c.tokens.Seal(rec)
}

func (c SealedCodec) Decode(raw string) (model.SessionRecord, error) {
	rec, err := c.tokens.Open(raw)
	if err != nil {
		return model.SessionRecord{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !rec.WellFormed() {
		return model.SessionRecord{}, ErrMalformed
	}
	return rec, nil
}
