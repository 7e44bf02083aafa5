// Package ole connects to the local or a remote WMI service through COM
// automation (SWbemLocator) and exposes it as a wbem.Services.
//
// It builds only on Windows. COM is initialized per OS thread, so the
// goroutine that calls Connect must stay locked to its thread
// (runtime.LockOSThread) and make every call on the session.
package ole
