package shared

// SpeakerType identifies which side of the call produced a piece of speech.
// The set is owned by the backend; the client only validates against the
// values it knows how to announce and style.
type SpeakerType string

const (
	SpeakerRep      SpeakerType = "rep"
	SpeakerProspect SpeakerType = "prospect"
	SpeakerUnknown  SpeakerType = "unknown"
)

var knownSpeakerTypes = map[SpeakerType]bool{
	SpeakerRep:      true,
	SpeakerProspect: true,
	SpeakerUnknown:  true,
}

func (s SpeakerType) String() string {
	return string(s)
}

func (s SpeakerType) Valid() bool {
	return knownSpeakerTypes[s]
}

// ParseSpeakerType validates a wire value against the known set.
func ParseSpeakerType(v string) (SpeakerType, error) {
	s := SpeakerType(v)
	if !s.Valid() {
		return "", ErrInvalidSpeakerType
	}
	return s, nil
}

// SpeakerTypeOrUnknown is used on the inbound path: events tagged with a
// speaker the client does not recognize still render, just unstyled.
func SpeakerTypeOrUnknown(v string) SpeakerType {
	s := SpeakerType(v)
	if s.Valid() {
		return s
	}
	return SpeakerUnknown
}
