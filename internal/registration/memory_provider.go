package registration

import (
	"context"
	"slices"
	"sync"
)

// Entries of the MemoryProvider call log. Channel declarations are logged as
// CallSetChannel + ":" + channel ID.
const (
	CallPermissionStatus  = "permission_status"
	CallRequestPermission = "request_permission"
	CallOpenSettings      = "open_settings"
	CallSetChannel        = "set_channel"
	CallPushToken         = "push_token"
)

// MemoryProvider is an in-memory implementation of Provider.
// This is intended for testing. Hosts should use a platform provider.
type MemoryProvider struct {
	mu sync.Mutex

	device          bool
	channelsEnabled bool
	status          PermissionStatus
	grantOnRequest  bool
	tokens          []string
	tokenErr        error
	channelErr      error
	permissionErr   error

	channels          map[string]Channel
	tokenCalls        int
	requestCalls      int
	openSettingsCalls int
	calls             []string

	// OnPushToken, when set, runs before PushToken returns.
	OnPushToken func(ctx context.Context)
}

// NewMemoryProvider creates a provider for a physical device with channels,
// permission already granted, and a single valid token.
func NewMemoryProvider(token string) *MemoryProvider {
	return &MemoryProvider{
		device:          true,
		channelsEnabled: true,
		status:          PermissionGranted,
		grantOnRequest:  true,
		tokens:          []string{token},
		channels:        make(map[string]Channel),
	}
}

// SetDevice sets whether the host is a physical device.
func (p *MemoryProvider) SetDevice(device bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.device = device
}

// SetChannelsSupported sets whether the platform has delivery channels.
func (p *MemoryProvider) SetChannelsSupported(supported bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channelsEnabled = supported
}

// SetPermission sets the current status and the outcome of a request.
func (p *MemoryProvider) SetPermission(status PermissionStatus, grantOnRequest bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
	p.grantOnRequest = grantOnRequest
}

// SetTokens sets the responses of successive PushToken calls. The last one
// repeats.
func (p *MemoryProvider) SetTokens(tokens ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = tokens
}

// SetTokenError makes PushToken fail with err.
func (p *MemoryProvider) SetTokenError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenErr = err
}

// SetChannelError makes SetChannel fail with err.
func (p *MemoryProvider) SetChannelError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channelErr = err
}

// SetPermissionError makes PermissionStatus and RequestPermission fail with err.
func (p *MemoryProvider) SetPermissionError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.permissionErr = err
}

// IsDevice implements Provider.
func (p *MemoryProvider) IsDevice() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.device
}

// SupportsChannels implements Provider.
func (p *MemoryProvider) SupportsChannels() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channelsEnabled
}

// PermissionStatus implements Provider.
func (p *MemoryProvider) PermissionStatus(_ context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, CallPermissionStatus)
	if p.permissionErr != nil {
		return "", p.permissionErr
	}
	return p.status, nil
}

// RequestPermission implements Provider.
func (p *MemoryProvider) RequestPermission(_ context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestCalls++
	p.calls = append(p.calls, CallRequestPermission)
	if p.permissionErr != nil {
		return "", p.permissionErr
	}
	if p.grantOnRequest {
		p.status = PermissionGranted
	} else {
		p.status = PermissionDenied
	}
	return p.status, nil
}

// OpenSettings implements Provider.
func (p *MemoryProvider) OpenSettings(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openSettingsCalls++
	p.calls = append(p.calls, CallOpenSettings)
	return nil
}

// SetChannel implements Provider.
func (p *MemoryProvider) SetChannel(_ context.Context, ch Channel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, CallSetChannel+":"+ch.ID)
	if p.channelErr != nil {
		return p.channelErr
	}
	p.channels[ch.ID] = ch
	return nil
}

// PushToken implements Provider.
func (p *MemoryProvider) PushToken(ctx context.Context, _ string) (string, error) {
	p.mu.Lock()
	p.tokenCalls++
	p.calls = append(p.calls, CallPushToken)
	n := p.tokenCalls
	hook := p.OnPushToken
	err := p.tokenErr
	var token string
	if len(p.tokens) > 0 {
		token = p.tokens[min(n, len(p.tokens))-1]
	}
	p.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// Calls returns the provider calls in the order they were made.
func (p *MemoryProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// TokenCalls returns the number of PushToken calls.
func (p *MemoryProvider) TokenCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenCalls
}

// RequestCalls returns the number of RequestPermission calls.
func (p *MemoryProvider) RequestCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requestCalls
}

// OpenSettingsCalls returns the number of OpenSettings calls.
func (p *MemoryProvider) OpenSettingsCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.openSettingsCalls
}

// Channels returns a copy of the declared channels keyed by ID.
func (p *MemoryProvider) Channels() map[string]Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Channel, len(p.channels))
	for id, ch := range p.channels {
		out[id] = ch
	}
	return out
}
