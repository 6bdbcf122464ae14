package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// WriteTyped sends a typed frame, bounding the write so one stuck admin
// browser cannot wedge the monitor goroutine.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse frame.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{Event: EventError, Error: errMsg})
}

// ReadJSON reads the next frame into v. The read deadline doubles as an
// idle timeout for clients that stop pinging.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
		return err
	}
	return conn.ReadJSON(v)
}
