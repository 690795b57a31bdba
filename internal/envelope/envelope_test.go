package envelope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncement_EncodeDecode(t *testing.T) {
	ann := Announcement{
		PeerID:    "peer-1",
		Port:      7878,
		Hostname:  "workstation",
		Timestamp: time.Date(2025, 11, 2, 10, 30, 0, 0, time.UTC),
	}

	data, err := ann.Encode()
	require.NoError(t, err)

	dg, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, KindDiscovery, dg.Kind)
	require.NotNil(t, dg.Announcement)
	assert.Nil(t, dg.Chunk)
	assert.Equal(t, ann.PeerID, dg.Announcement.PeerID)
	assert.Equal(t, ann.Port, dg.Announcement.Port)
	assert.Equal(t, ann.Hostname, dg.Announcement.Hostname)
	assert.True(t, ann.Timestamp.Equal(dg.Announcement.Timestamp))
}

func TestChunk_EncodeDecode(t *testing.T) {
	payload := []byte("hello over the wire")
	chunk := Chunk{
		PeerID:    "peer-1",
		MessageID: "msg-1",
		Index:     0,
		Total:     1,
		Payload:   payload,
		Checksum:  Checksum(payload),
		Timestamp: time.Now().UTC(),
	}
	chunk.MessageChecksum = chunk.Checksum

	data, err := chunk.Encode()
	require.NoError(t, err)

	dg, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, KindChunk, dg.Kind)
	require.NotNil(t, dg.Chunk)
	assert.Equal(t, payload, dg.Chunk.Payload)
	assert.Equal(t, chunk.Checksum, dg.Chunk.Checksum)
	assert.Equal(t, chunk.MessageChecksum, dg.Chunk.MessageChecksum)
	assert.True(t, dg.Chunk.Verify())
}

func TestDecode_Errors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		err  error
	}{
		{
			name: "not json",
			data: []byte("meow:deadbeef:8080"),
		},
		{
			name: "unknown type tag",
			data: []byte(`{"type":"handshake","peer_id":"x"}`),
			err:  ErrUnknownKind,
		},
		{
			name: "missing peer id",
			data: []byte(`{"type":"discovery","port":7878}`),
			err:  ErrMissingPeerID,
		},
		{
			name: "chunk without peer id",
			data: []byte(`{"type":"chunk","message_id":"m"}`),
			err:  ErrMissingPeerID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			require.Error(t, err)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestChunk_VerifyDetectsCorruption(t *testing.T) {
	payload := []byte("payload under test")
	chunk := Chunk{Payload: payload, Checksum: Checksum(payload)}
	require.True(t, chunk.Verify())

	chunk.Payload[0] ^= 0xff
	assert.False(t, chunk.Verify())
}
