// Package gateway declares the capability interface the session coordinator
// consumes from the remote meeting provider, together with the typed error
// every implementation reports.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/manuelcastro95/chime-backend/internal/model/meeting"
)

// RemoteMeetingGateway is the boundary to the remote meeting provider. All
// calls are fallible and latency-bearing; the provider is authoritative for
// meeting existence.
type RemoteMeetingGateway interface {
	CreateMeeting(ctx context.Context, requestToken, mediaRegion, externalID string) (meeting.MeetingDescriptor, error)
	CreateAttendee(ctx context.Context, meetingID, externalUserID string) (meeting.AttendeeDescriptor, error)
	GetMeeting(ctx context.Context, meetingID string) (meeting.MeetingStatus, error)
	DeleteMeeting(ctx context.Context, meetingID string) error
	StartTranscription(ctx context.Context, meetingID string, req meeting.TranscriptionRequest) error
	StopTranscription(ctx context.Context, meetingID string) error
}

// Error is a failed remote provider call. Code carries the provider's
// structured error code when the transport exposes one; Status the HTTP
// status, zero when unknown.
type Error struct {
	Op     string
	Code   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AuthorizationFailure reports whether the provider rejected the call for
// permission reasons. Structured codes are checked first; message matching
// is the fallback for transports that expose none.
func (e *Error) AuthorizationFailure() bool {
	if e.Status == http.StatusForbidden || e.Status == http.StatusUnauthorized {
		return true
	}
	switch e.Code {
	case "ForbiddenException", "AccessDenied", "AccessDeniedException", "UnauthorizedClientException", "NotAuthorizedException":
		return true
	}
	if e.Err == nil {
		return false
	}
	msg := strings.ToLower(e.Err.Error())
	return strings.Contains(msg, "forbidden") || strings.Contains(msg, "not authorized") || strings.Contains(msg, "access denied")
}

// IsAuthorizationFailure reports whether err wraps a gateway Error caused by
// missing permissions.
func IsAuthorizationFailure(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.AuthorizationFailure()
}
