package battleship

import "fmt"

// AISentinel is the wire identity of the computer opponent. User ids are
// UUIDs, so it can never collide with a human participant.
const AISentinel = "AI"

// ParticipantRef identifies a seat in a game: either a human user or the AI.
// The zero value refers to nobody. ParticipantRef is comparable and is used
// directly as a map key.
type ParticipantRef struct {
	userID string
	ai     bool
}

// AI is the computer opponent.
var AI = ParticipantRef{ai: true}

// Human returns a reference to the user with the given id.
func Human(userID string) ParticipantRef {
	return ParticipantRef{userID: userID}
}

// IsAI reports whether p is the computer opponent.
func (p ParticipantRef) IsAI() bool { return p.ai }

// IsZero reports whether p refers to nobody.
func (p ParticipantRef) IsZero() bool { return !p.ai && p.userID == "" }

// UserID returns the human's user id, or "" for the AI.
func (p ParticipantRef) UserID() string { return p.userID }

func (p ParticipantRef) String() string {
	if p.ai {
		return AISentinel
	}
	return p.userID
}

// MarshalText encodes p as its user id or the AI sentinel. Implementing
// TextMarshaler lets maps keyed by ParticipantRef encode as JSON objects.
func (p ParticipantRef) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return nil, fmt.Errorf("marshal empty participant")
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a user id or the AI sentinel.
func (p *ParticipantRef) UnmarshalText(text []byte) error {
	switch s := string(text); s {
	case "":
		*p = ParticipantRef{}
	case AISentinel:
		*p = AI
	default:
		*p = Human(s)
	}
	return nil
}
