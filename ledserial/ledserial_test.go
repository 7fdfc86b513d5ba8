package ledserial

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	var f Frame
	f.Set(0, true)
	f.Set(15, true)
	f.Set(3, true)
	f.Set(3, false)

	assert.True(t, f.Lit(0))
	assert.True(t, f.Lit(15))
	assert.False(t, f.Lit(3))
	assert.Equal(t, 2, f.Count())
	assert.Equal(t, Frame(0x8001), f)
}

func TestFramePacketWireFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIncomingPacket(&buf, FramePacket{Lit: 0x0102}))

	b := buf.Bytes()
	require.Len(t, b, 1+2+4)
	assert.Equal(t, []byte{byte(TypeFramePacket), 0x02, 0x01}, b[:3])

	p, err := ReadIncomingPacket(&buf)
	require.NoError(t, err)
	assert.Equal(t, FramePacket{Lit: 0x0102}, p)
}

func TestIncomingStream(t *testing.T) {
	sent := []IncomingPacket{
		InitializePacket{NumLEDs: 16},
		ClearPacket{},
		FramePacket{Lit: 1 << 7},
	}

	var buf bytes.Buffer
	for _, p := range sent {
		require.NoError(t, WriteIncomingPacket(&buf, p))
	}

	for _, want := range sent {
		p, err := ReadIncomingPacket(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, p)
	}

	_, err := ReadIncomingPacket(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestOutgoingStream(t *testing.T) {
	sent := []OutgoingPacket{
		AckPacket{IncomingPacketType: TypeFramePacket},
		ButtonPacket{Button: ButtonRight},
		LogPacket{Message: "ring ready"},
		ErrorPacket{Message: "bad frame"},
	}

	var buf bytes.Buffer
	for _, p := range sent {
		require.NoError(t, WriteOutgoingPacket(&buf, p))
	}

	for _, want := range sent {
		p, err := ReadOutgoingPacket(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, p)
	}
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutgoingPacket(&buf, ButtonPacket{Button: ButtonLeft}))

	b := buf.Bytes()
	b[1] ^= 0xFF

	_, err := ReadOutgoingPacket(bytes.NewReader(b))
	assert.EqualError(t, err, "packet checksum mismatch")
}

func TestUnknownPacketType(t *testing.T) {
	_, err := ReadIncomingPacket(bytes.NewReader([]byte{0x7F}))
	assert.EqualError(t, err, "unknown packet type: IncomingPacketType(127)")

	_, err = ReadOutgoingPacket(bytes.NewReader([]byte{0x7F}))
	assert.EqualError(t, err, "unknown packet type: OutgoingPacketType(127)")
}

func TestTruncatedPacket(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutgoingPacket(&buf, LogPacket{Message: "hello"}))

	_, err := ReadOutgoingPacket(bytes.NewReader(buf.Bytes()[:5]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
