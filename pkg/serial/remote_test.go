package serial_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ramloader/pkg/elfimage"
	"github.com/robotalks/ramloader/pkg/l0/comm"
	"github.com/robotalks/ramloader/pkg/serial"
	"github.com/robotalks/ramloader/pkg/target"
	"github.com/robotalks/ramloader/pkg/target/sim"
	"github.com/robotalks/ramloader/pkg/uploader"
)

func TestRemoteUpload(t *testing.T) {
	type result struct {
		board *sim.Board
		err   error
	}
	done := make(chan result, 1)
	srv := httptest.NewServer(sim.WebsocketHandler(target.DefaultWindow(), func(b *sim.Board, err error) {
		done <- result{b, err}
	}))
	defer srv.Close()

	conf := serial.NewConfig()
	conf.Port = "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	require.True(t, serial.IsRemote(conf.Port))
	s, name, err := serial.Connect(conf)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, conf.Port, name)
	require.False(t, s.ReadTimeout())

	client := comm.NewClient(s)
	client.Timeout = 2 * time.Second
	require.NoError(t, client.Ping(context.Background()))

	u := uploader.NewUploader(client)
	u.ChunkSize = 16
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i + 1)
	}
	require.NoError(t, u.Upload(context.Background(), []elfimage.Segment{{StartAddress: 0x20020000, Data: data}}))

	select {
	case r := <-done:
		require.ErrorIs(t, r.err, target.ErrHandedOff)
		require.Equal(t, data, r.board.RAM.Read(0x20020000, len(data)))
		require.Equal(t, uint32(0x04030201), r.board.Core.SP)
	case <-time.After(5 * time.Second):
		t.Fatal("loader didn't hand off")
	}
}

func TestIsRemote(t *testing.T) {
	require.True(t, serial.IsRemote("wss://bench/serial"))
	require.False(t, serial.IsRemote("/dev/ttyACM0"))
	require.False(t, serial.IsRemote(""))
}
