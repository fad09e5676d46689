package sim

import (
	"golang.org/x/net/websocket"

	"github.com/robotalks/ramloader/pkg/target"
)

// WebsocketHandler serves a fresh board per websocket connection.
// done, if not nil, is called when the loader of a board stops.
func WebsocketHandler(w target.Window, done func(*Board, error)) websocket.Handler {
	return func(ws *websocket.Conn) {
		ws.PayloadType = websocket.BinaryFrame
		board := NewBoard(ws, w)
		err := board.Loader().Run(ws.Request().Context())
		if done != nil {
			done(board, err)
		}
	}
}
