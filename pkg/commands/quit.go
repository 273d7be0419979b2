package commands

import "github.com/filewire/filewire/pkg/wire"

// Quit always succeeds; the caller is responsible for observing that this
// command was dispatched and closing the connection once the response has
// fully drained.
func Quit() wire.Result {
	return wire.Result{Code: wire.StatusOK, Desc: "OK"}
}
