//go:build windows

package cli

import (
	"runtime"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/wbem/ole"
)

// openLive connects to WMI on the configured host. COM stays bound to the
// calling thread until the source is closed.
func openLive(o *RootOptions) (*source, error) {
	runtime.LockOSThread()
	session, err := ole.Connect(o.Config.Host, o.Config.Namespace)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, WrapExitError(ExitCommandError, "failed to connect to WMI", err)
	}

	logger := o.logger()
	logger.Debug("connected to WMI", "host", o.Config.Host, "namespace", o.Config.Namespace)
	return &source{
		conn:      wmiq.NewConnection(session, wmiq.WithLogger(logger)),
		host:      o.Config.Host,
		namespace: o.Config.Namespace,
		close: func() error {
			defer runtime.UnlockOSThread()
			return session.Close()
		},
	}, nil
}
