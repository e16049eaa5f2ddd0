//go:build !unix

package downstream

import (
	"context"
	"net"
	"strconv"
)

// listen falls back to the runtime listener; the backlog is the platform
// default here.
func listen(ctx context.Context, host string, port int) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
