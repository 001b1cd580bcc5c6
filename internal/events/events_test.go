package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/events"
	"github.com/friendlines/friendlines/internal/notification"
)

type fakeRouter struct {
	mu         sync.Mutex
	foreground []notification.Payload
	responses  []notification.Payload
}

func (r *fakeRouter) OnForeground(_ context.Context, p notification.Payload) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.foreground = append(r.foreground, p)
	return false
}

func (r *fakeRouter) OnResponse(_ context.Context, p notification.Payload) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, p)
	return true
}

type fakeRotator struct {
	tokens []string
	err    error
}

func (r *fakeRotator) HandleTokenRotation(_ context.Context, token string) error {
	r.tokens = append(r.tokens, token)
	return r.err
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    events.Event
		wantErr bool
	}{
		{
			name: "received",
			data: `{"type":"received","data":{"type":"friend_request","senderName":"Ada"}}`,
			want: events.Event{
				Type:    events.TypeReceived,
				Payload: notification.Payload{Kind: notification.KindFriendRequest, SenderName: "Ada"},
			},
		},
		{
			name: "response",
			data: `{"type":"response","data":{"kind":"direct_post","postId":"p-1","userId":"u-1"}}`,
			want: events.Event{
				Type:    events.TypeResponse,
				Payload: notification.Payload{Kind: notification.KindDirectPost, PostID: "p-1", UserID: "u-1"},
			},
		},
		{
			name: "token rotated",
			data: `{"type":"token_rotated","token":"ExponentPushToken[new]"}`,
			want: events.Event{Type: events.TypeTokenRotated, Token: "ExponentPushToken[new]"},
		},
		{
			name: "unknown type decodes",
			data: `{"type":"badge_cleared"}`,
			want: events.Event{Type: "badge_cleared"},
		},
		{name: "response without data", data: `{"type":"response"}`, wantErr: true},
		{name: "rotation without token", data: `{"type":"token_rotated"}`, wantErr: true},
		{name: "not json", data: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := events.Decode([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	router := &fakeRouter{}
	rotator := &fakeRotator{}
	d := events.NewDispatcher(router, rotator, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, events.Event{Type: events.TypeReceived, Payload: notification.Payload{Kind: notification.KindTest}}))
	require.NoError(t, d.Dispatch(ctx, events.Event{Type: events.TypeResponse, Payload: notification.Payload{Kind: notification.KindFriendRequest}}))
	require.NoError(t, d.Dispatch(ctx, events.Event{Type: events.TypeTokenRotated, Token: "ExponentPushToken[new]"}))

	err := d.Dispatch(ctx, events.Event{Type: "badge_cleared"})
	require.ErrorIs(t, err, events.ErrUnknownType)

	assert.Len(t, router.foreground, 1)
	assert.Len(t, router.responses, 1)
	assert.Equal(t, []string{"ExponentPushToken[new]"}, rotator.tokens)
}

func TestPubSubSource_Process(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		rotatorErr error
		wantAck    bool
	}{
		{name: "handled", data: `{"type":"response","data":{"type":"friend_request"}}`, wantAck: true},
		{name: "unknown type", data: `{"type":"badge_cleared"}`, wantAck: true},
		{name: "undecodable", data: `not json`, wantAck: true},
		{name: "binary garbage", data: "\x00\xff\x13garbage", wantAck: true},
		{name: "malformed payload", data: `{"type":"received","data":{"type":"test","timestamp":"yesterday"}}`, wantAck: true},
		{name: "rotation failed", data: `{"type":"token_rotated","token":"ExponentPushToken[new]"}`, rotatorErr: errors.New("backend down"), wantAck: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := events.NewDispatcher(&fakeRouter{}, &fakeRotator{err: tt.rotatorErr}, zerolog.Nop())
			source := events.NewSource(d, zerolog.Nop())

			assert.Equal(t, tt.wantAck, source.Process(context.Background(), []byte(tt.data)))
		})
	}
}

func TestPubSubSource_StartWithoutSubscription(t *testing.T) {
	source := events.NewSource(events.NewDispatcher(&fakeRouter{}, &fakeRotator{}, zerolog.Nop()), zerolog.Nop())

	require.Error(t, source.Start(context.Background()))
	require.NoError(t, source.Close())
}
