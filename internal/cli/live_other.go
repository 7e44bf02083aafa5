//go:build !windows

package cli

func openLive(*RootOptions) (*source, error) {
	return nil, NewExitError(ExitCommandError, "live WMI sessions require Windows; use a snapshot (--db)")
}
