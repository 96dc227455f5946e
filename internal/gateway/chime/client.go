// Package chime implements the remote meeting gateway against the Amazon
// Chime SDK meetings API.
package chime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/chimesdkmeetings"
	"github.com/aws/aws-sdk-go-v2/service/chimesdkmeetings/types"
	"github.com/aws/smithy-go"

	"github.com/manuelcastro95/chime-backend/internal/gateway"
	"github.com/manuelcastro95/chime-backend/internal/metrics"
	"github.com/manuelcastro95/chime-backend/internal/model/meeting"
)

// Client talks to the Chime SDK meetings control plane. It implements
// gateway.RemoteMeetingGateway.
type Client struct {
	api    *chimesdkmeetings.Client
	logger *slog.Logger
}

// New loads the default AWS credential chain for the given control-plane
// region and returns a ready client.
func New(ctx context.Context, region string, logger *slog.Logger) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &Client{
		api:    chimesdkmeetings.NewFromConfig(cfg),
		logger: logger,
	}, nil
}

// CreateMeeting provisions a new meeting with the provider.
func (c *Client) CreateMeeting(ctx context.Context, requestToken, mediaRegion, externalID string) (meeting.MeetingDescriptor, error) {
	start := time.Now()
	out, err := c.api.CreateMeeting(ctx, &chimesdkmeetings.CreateMeetingInput{
		ClientRequestToken: aws.String(requestToken),
		ExternalMeetingId:  aws.String(externalID),
		MediaRegion:        aws.String(mediaRegion),
	})
	c.observe("CreateMeeting", start, err)
	if err != nil {
		return meeting.MeetingDescriptor{}, wrapErr("CreateMeeting", err)
	}
	return descriptorFromMeeting(out.Meeting), nil
}

// CreateAttendee mints a join credential for one external user.
func (c *Client) CreateAttendee(ctx context.Context, meetingID, externalUserID string) (meeting.AttendeeDescriptor, error) {
	start := time.Now()
	out, err := c.api.CreateAttendee(ctx, &chimesdkmeetings.CreateAttendeeInput{
		MeetingId:      aws.String(meetingID),
		ExternalUserId: aws.String(externalUserID),
	})
	c.observe("CreateAttendee", start, err)
	if err != nil {
		return meeting.AttendeeDescriptor{}, wrapErr("CreateAttendee", err)
	}
	raw, _ := json.Marshal(out.Attendee)
	return meeting.AttendeeDescriptor{
		AttendeeID:     aws.ToString(out.Attendee.AttendeeId),
		ExternalUserID: aws.ToString(out.Attendee.ExternalUserId),
		JoinToken:      aws.ToString(out.Attendee.JoinToken),
		Raw:            raw,
	}, nil
}

// GetMeeting confirms the meeting still exists with the provider. The lookup
// does not expose live transcription, so the reported status never claims an
// active transcript.
func (c *Client) GetMeeting(ctx context.Context, meetingID string) (meeting.MeetingStatus, error) {
	start := time.Now()
	out, err := c.api.GetMeeting(ctx, &chimesdkmeetings.GetMeetingInput{
		MeetingId: aws.String(meetingID),
	})
	c.observe("GetMeeting", start, err)
	if err != nil {
		return meeting.MeetingStatus{}, wrapErr("GetMeeting", err)
	}
	return meeting.MeetingStatus{
		MeetingID:   aws.ToString(out.Meeting.MeetingId),
		MediaRegion: aws.ToString(out.Meeting.MediaRegion),
	}, nil
}

// DeleteMeeting tears the meeting down with the provider.
func (c *Client) DeleteMeeting(ctx context.Context, meetingID string) error {
	start := time.Now()
	_, err := c.api.DeleteMeeting(ctx, &chimesdkmeetings.DeleteMeetingInput{
		MeetingId: aws.String(meetingID),
	})
	c.observe("DeleteMeeting", start, err)
	if err != nil {
		return wrapErr("DeleteMeeting", err)
	}
	return nil
}

// StartTranscription asks the provider to begin live transcription with the
// resolved locale, transcribe region and content masking policy.
func (c *Client) StartTranscription(ctx context.Context, meetingID string, req meeting.TranscriptionRequest) error {
	settings := &types.EngineTranscribeSettings{
		LanguageCode: types.TranscribeLanguageCode(req.LanguageCode),
		Region:       types.TranscribeRegion(req.Region),
	}
	if req.ContentMasking != "" {
		settings.ContentIdentificationType = types.TranscribeContentIdentificationType(req.ContentMasking)
	}

	start := time.Now()
	_, err := c.api.StartMeetingTranscription(ctx, &chimesdkmeetings.StartMeetingTranscriptionInput{
		MeetingId: aws.String(meetingID),
		TranscriptionConfiguration: &types.TranscriptionConfiguration{
			EngineTranscribeSettings: settings,
		},
	})
	c.observe("StartTranscription", start, err)
	if err != nil {
		return wrapErr("StartTranscription", err)
	}
	return nil
}

// StopTranscription asks the provider to stop live transcription.
func (c *Client) StopTranscription(ctx context.Context, meetingID string) error {
	start := time.Now()
	_, err := c.api.StopMeetingTranscription(ctx, &chimesdkmeetings.StopMeetingTranscriptionInput{
		MeetingId: aws.String(meetingID),
	})
	c.observe("StopTranscription", start, err)
	if err != nil {
		return wrapErr("StopTranscription", err)
	}
	return nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordGatewayCall(op, status, time.Since(start).Seconds())
	if err != nil && c.logger != nil {
		c.logger.Warn("chime call failed", "op", op, "error", err)
	}
}

func descriptorFromMeeting(m *types.Meeting) meeting.MeetingDescriptor {
	if m == nil {
		return meeting.MeetingDescriptor{}
	}
	raw, _ := json.Marshal(m)
	return meeting.MeetingDescriptor{
		MeetingID:   aws.ToString(m.MeetingId),
		ExternalID:  aws.ToString(m.ExternalMeetingId),
		MediaRegion: aws.ToString(m.MediaRegion),
		Raw:         raw,
	}
}

// wrapErr converts an SDK failure into a gateway.Error, pulling the
// structured code and HTTP status out of the smithy error chain when present.
func wrapErr(op string, err error) *gateway.Error {
	ge := &gateway.Error{Op: op, Err: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ge.Code = apiErr.ErrorCode()
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		ge.Status = respErr.HTTPStatusCode()
	}
	return ge
}
