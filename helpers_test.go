package wmiq

import (
	"log/slog"
	"testing"

	"github.com/roach88/wmiq/internal/testutil"
	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem/inmem"
)

type Win32_OperatingSystem struct {
	Caption     string
	BuildNumber string
}

type label string

func (l label) String() string { return string(l) }

// newTestConnection returns a connection over a scripted provider and
// registers a leak check for the end of the test.
func newTestConnection(t *testing.T) (*Connection, *inmem.Services) {
	t.Helper()
	tr := inmem.NewTracker()
	svc := inmem.NewServices(tr)
	t.Cleanup(func() { testutil.RequireNoLeaks(t, tr) })
	return NewConnection(svc, WithLogger(slog.New(slog.DiscardHandler))), svc
}

func instance(class string, kv ...any) inmem.Instance {
	props := variant.NewObject(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		v, err := variant.FromAny(kv[i+1])
		if err != nil {
			panic(err)
		}
		props.Set(kv[i].(string), v)
	}
	return inmem.InstanceOf(class, props)
}

func osInstance(caption, build string) inmem.Instance {
	return instance("Win32_OperatingSystem", "Caption", caption, "BuildNumber", build, "OSArchitecture", "64-bit")
}
