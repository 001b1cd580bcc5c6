// Package notification routes inbound push notifications to in-app
// navigation.
package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Kind is the semantic type of a notification.
type Kind string

const (
	KindFriendRequest           Kind = "friend_request"
	KindFriendRequestAccepted   Kind = "friend_request_accepted"
	KindGroupInvitation         Kind = "group_invitation"
	KindGroupInvitationAccepted Kind = "group_invitation_accepted"
	KindGroupPost               Kind = "group_post"
	KindFriendPost              Kind = "friend_post"
	KindDirectPost              Kind = "direct_post"
	KindTest                    Kind = "test"
)

// Known reports whether k is one of the defined kinds.
func (k Kind) Known() bool {
	switch k {
	case KindFriendRequest, KindFriendRequestAccepted, KindGroupInvitation,
		KindGroupInvitationAccepted, KindGroupPost, KindFriendPost, KindDirectPost, KindTest:
		return true
	default:
		return false
	}
}

// ErrMalformedPayload is returned when the data object cannot be decoded.
var ErrMalformedPayload = errors.New("malformed notification payload")

// Payload is the data carried by a push notification.
type Payload struct {
	Kind Kind

	PostID  string
	UserID  string // author or sender
	GroupID string

	SenderName string
	GroupName  string

	Timestamp time.Time
}

type rawPayload struct {
	Type       Kind            `json:"type"`
	Kind       Kind            `json:"kind"`
	PostID     string          `json:"postId"`
	UserID     string          `json:"userId"`
	AuthorID   string          `json:"authorId"`
	GroupID    string          `json:"groupId"`
	SenderName string          `json:"senderName"`
	GroupName  string          `json:"groupName"`
	Timestamp  json.RawMessage `json:"timestamp"`
}

// ParsePayload decodes the provider's JSON data object. The kind may be
// given as "type" or "kind". The timestamp may be RFC 3339 or Unix
// milliseconds.
func ParsePayload(data []byte) (Payload, error) {
	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return Payload{}, fmt.Errorf("%w: %s", ErrMalformedPayload, err.Error())
	}

	p := Payload{
		Kind:       raw.Type,
		PostID:     raw.PostID,
		UserID:     raw.UserID,
		GroupID:    raw.GroupID,
		SenderName: raw.SenderName,
		GroupName:  raw.GroupName,
	}
	if p.Kind == "" {
		p.Kind = raw.Kind
	}
	if p.UserID == "" {
		p.UserID = raw.AuthorID
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: timestamp: %s", ErrMalformedPayload, err.Error())
	}
	p.Timestamp = ts

	return p, nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return time.Time{}, nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		return time.Parse(time.RFC3339, s)
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
