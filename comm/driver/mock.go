package driver

import (
	"context"
	"strings"

	"github.com/hollysys/plc-comm-forge/comm/model"
)

// mockClient is the Close()-only handle Mock hands back from Connect. A
// fresh instance is allocated per Connect call so identity comparisons in
// tests (one handle per connection) behave as they would for a real socket.
type mockClient struct{ _ byte }

func (*mockClient) Close() error { return nil }

// Mock is a deterministic CommDriver used by tests and the CLI's dry-run
// mode. It dispatches behavior by inspecting substrings of the channel
// name: "timeout" forces a Timeout error, "comm" forces a Comm error,
// "decode" returns a deliberately short buffer (forcing a decode failure
// downstream); any other channel returns deterministic synthetic data.
type Mock struct{}

// NewMock returns a Mock driver.
func NewMock() *Mock { return &Mock{} }

func (m *Mock) ConnectionKey(profile model.ConnectionProfile) ConnectionKey {
	return ConnectionKey(profile.ChannelName)
}

func (m *Mock) Connect(ctx context.Context, profile model.ConnectionProfile) (ConnectedClient, error) {
	return &mockClient{}, nil
}

func (m *Mock) ReadWithClient(ctx context.Context, client ConnectedClient, job model.ReadJob) (RawReadData, error) {
	name := strings.ToLower(job.ChannelName)
	switch {
	case strings.Contains(name, "timeout"):
		return RawReadData{}, ErrTimeout
	case strings.Contains(name, "comm"):
		return RawReadData{}, NewCommError("mock: simulated comm failure on channel %q", job.ChannelName)
	case strings.Contains(name, "decode"):
		return RawReadData{Registers: []uint16{uint16(job.StartAddress)}}, nil
	}

	if job.ReadArea.IsBitArea() {
		bits := make([]bool, job.Length)
		for i := range bits {
			bits[i] = (job.StartAddress+i)%2 == 0
		}
		return RawReadData{Bits: bits}, nil
	}

	regs := make([]uint16, job.Length)
	for i := range regs {
		regs[i] = uint16(job.StartAddress + i)
	}
	return RawReadData{Registers: regs}, nil
}
