package comm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ramloader/pkg/l0/msgs"
)

func TestParser(t *testing.T) {
	var parser Parser
	frame, err := EncodeRequest(&msgs.Write{StartAddress: 0x20020000, Data: []byte{0, 1, 0, 2}})
	require.NoError(t, err)
	for n, b := range frame {
		pr := parser.Parse(b)
		require.NoError(t, pr.Err)
		if n+1 < len(frame) {
			require.Nilf(t, pr.Frame, "byte[%d] completed a frame", n)
			require.Equal(t, n+1, parser.Len())
			continue
		}
		require.Equal(t, frame[:len(frame)-1], pr.Frame)
	}
	require.Zero(t, parser.Len())
}

func TestParserIgnoresEmptyFrames(t *testing.T) {
	var parser Parser
	for i := 0; i < 3; i++ {
		pr := parser.Parse(Delimiter)
		require.Nil(t, pr.Frame)
		require.NoError(t, pr.Err)
	}
}

func TestParserOverflow(t *testing.T) {
	var parser Parser
	for i := 0; i < MaxFrameSize-1; i++ {
		pr := parser.Parse(0x11)
		require.NoError(t, pr.Err)
		require.Nil(t, pr.Frame)
	}
	pr := parser.Parse(0x11)
	require.ErrorIs(t, pr.Err, ErrFrameOverflow)
	require.Zero(t, parser.Len())
}

func TestParserLargestFrame(t *testing.T) {
	var parser Parser
	for i := 0; i < MaxFrameSize-1; i++ {
		require.NoError(t, parser.Parse(0x11).Err)
	}
	pr := parser.Parse(Delimiter)
	require.NoError(t, pr.Err)
	require.Len(t, pr.Frame, MaxFrameSize-1)
}

func TestParserRandomStream(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	var (
		parser Parser
		stream []byte
		sent   []msgs.Request
	)
	for i := 0; i < 50; i++ {
		data := make([]byte, rnd.Intn(msgs.MaxPayloadSize+1))
		rnd.Read(data)
		if len(data) == 0 {
			data = nil
		}
		req := &msgs.Write{StartAddress: rnd.Uint32(), Data: data}
		frame, err := EncodeRequest(req)
		require.NoError(t, err)
		stream = append(stream, frame...)
		sent = append(sent, req)
	}
	var received []msgs.Request
	for _, b := range stream {
		pr := parser.Parse(b)
		require.NoError(t, pr.Err)
		if pr.Frame == nil {
			continue
		}
		require.Equal(t, Delimiter, b)
		req, err := DecodeRequest(pr.Frame)
		require.NoError(t, err)
		received = append(received, req)
	}
	require.Equal(t, sent, received)
}
