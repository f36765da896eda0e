// Package websocket pushes dashboard refresh events to browsers.
//
// A single Hub goroutine owns the client set. Services call Broadcast after
// data changes; clients never send commands.
package websocket
