package meeting

import (
	"encoding/json"
	"time"
)

// NoExternalID is reported by projections when the provider never assigned
// an external meeting identifier.
const NoExternalID = "n/a"

// TranscriptionMode describes who is driving live transcription for a session.
type TranscriptionMode string

const (
	// ModeOff means no transcription is active.
	ModeOff TranscriptionMode = "off"
	// ModeProviderManaged means the remote provider accepted the start
	// request and is producing the transcript.
	ModeProviderManaged TranscriptionMode = "provider"
	// ModeDegraded means transcription is tracked locally without remote
	// confirmation, typically after an authorization failure.
	ModeDegraded TranscriptionMode = "degraded"
)

// TranscriptionState is the per-session transcription bookkeeping.
// Enabled is true exactly when Mode is ModeProviderManaged or ModeDegraded.
type TranscriptionState struct {
	Enabled bool              `json:"enabled"`
	Mode    TranscriptionMode `json:"mode"`
}

// Session is the local record of a live meeting. ID, Provider, CreatedAt and
// CreatorID never change after creation; Attendees grows only through joins
// and Transcription is mutated by the transcription coordinator.
type Session struct {
	ID            string              `json:"meetingId"`
	ExternalID    string              `json:"externalMeetingId,omitempty"`
	Provider      MeetingDescriptor   `json:"provider"`
	CreatedAt     time.Time           `json:"createdAt"`
	CreatorID     string              `json:"creatorId"`
	Attendees     map[string]Attendee `json:"attendees"`
	Transcription TranscriptionState  `json:"transcription"`
}

// Attendee is a participant admitted into a session. Provider carries the
// join credential returned by the remote gateway and is handed back to the
// joining client only.
type Attendee struct {
	UserID      string             `json:"userId"`
	DisplayName string             `json:"displayName"`
	JoinedAt    time.Time          `json:"joinedAt"`
	Provider    AttendeeDescriptor `json:"provider"`
}

// Projection is the attendee-credential-free view of a session, safe to echo
// to any caller.
type Projection struct {
	ID                   string    `json:"meetingId"`
	ExternalID           string    `json:"externalMeetingId"`
	CreatedAt            time.Time `json:"createdAt"`
	AttendeeCount        int       `json:"attendeeCount"`
	TranscriptionEnabled bool      `json:"transcriptionEnabled"`
}

// JoinResult is returned to a joining client: the session projection, the
// attendee record (with provider credential) and whether the caller created
// the session.
type JoinResult struct {
	Meeting   Projection `json:"meeting"`
	Attendee  Attendee   `json:"attendee"`
	IsCreator bool       `json:"isCreator"`
}

// MeetingDescriptor is the provider metadata returned at meeting creation.
// Raw holds the provider payload verbatim so clients receive exactly what
// the provider produced.
type MeetingDescriptor struct {
	MeetingID   string          `json:"meetingId"`
	ExternalID  string          `json:"externalMeetingId,omitempty"`
	MediaRegion string          `json:"mediaRegion,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// AttendeeDescriptor is the provider credential minted for one attendee.
type AttendeeDescriptor struct {
	AttendeeID     string          `json:"attendeeId"`
	ExternalUserID string          `json:"externalUserId"`
	JoinToken      string          `json:"joinToken,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

// MeetingStatus is the best-effort remote view of a meeting. The provider
// does not expose live transcription on its lookup call, so
// TranscriptionActive stays false unless the gateway can observe it.
type MeetingStatus struct {
	MeetingID           string `json:"meetingId"`
	MediaRegion         string `json:"mediaRegion,omitempty"`
	TranscriptionActive bool   `json:"transcriptionActive"`
}

// TranscriptionRequest carries the resolved locale, media region and content
// masking policy for a remote transcription start.
type TranscriptionRequest struct {
	LanguageCode   string `json:"languageCode"`
	Region         string `json:"region"`
	ContentMasking string `json:"contentMasking,omitempty"`
}

// Projection builds the safe view of the session.
func (s Session) Projection() Projection {
	externalID := s.ExternalID
	if externalID == "" {
		externalID = NoExternalID
	}
	return Projection{
		ID:                   s.ID,
		ExternalID:           externalID,
		CreatedAt:            s.CreatedAt,
		AttendeeCount:        len(s.Attendees),
		TranscriptionEnabled: s.Transcription.Enabled,
	}
}
