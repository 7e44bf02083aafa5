package wmiq

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
	"github.com/roach88/wmiq/wbem/inmem"
)

const osQuery = "SELECT * FROM Win32_OperatingSystem"

func TestEnumerator_ExhaustedNeverCallsProviderAgain(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(osQuery, osInstance("a", "1"), osInstance("b", "2"))

	e, err := conn.ExecQueryNativeWrapper(osQuery)
	require.NoError(t, err)
	assert.Equal(t, osQuery, e.Query())

	for range 2 {
		obj, err := e.Next()
		require.NoError(t, err)
		require.NoError(t, obj.Close())
	}

	for range 3 {
		obj, err := e.Next()
		assert.Nil(t, obj)
		assert.Equal(t, io.EOF, err)
	}

	cursors := svc.Enumerators()
	require.Len(t, cursors, 1)
	assert.Equal(t, 3, cursors[0].Calls())
	assert.NoError(t, e.Close())
}

func TestEnumerator_FailureFinishesCursor(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Handle(osQuery, inmem.Script{Steps: []inmem.Step{
		inmem.Item(osInstance("a", "1")),
		inmem.Fail(wbem.WBEM_E_PROVIDER_FAILURE),
		inmem.Item(osInstance("b", "2")),
	}})

	e, err := conn.ExecQueryNativeWrapper(osQuery)
	require.NoError(t, err)

	obj, err := e.Next()
	require.NoError(t, err)
	obj.Close()

	_, err = e.Next()
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, KindEnumeration, qe.Kind)
	assert.Equal(t, wbem.WBEM_E_PROVIDER_FAILURE, qe.Status)
	assert.Equal(t, osQuery, qe.Query)

	var se *wbem.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, wbem.WBEM_E_PROVIDER_FAILURE, se.Code)

	_, err = e.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, svc.Enumerators()[0].Calls())
}

func TestEnumerator_AllClosesObjects(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(osQuery, osInstance("a", "1"), osInstance("b", "2"), osInstance("c", "3"))

	e, err := conn.ExecQueryNativeWrapper(osQuery)
	require.NoError(t, err)

	var captions []string
	for obj, err := range e.All() {
		require.NoError(t, err)
		v, err := obj.Get("Caption")
		require.NoError(t, err)
		captions = append(captions, string(v.(variant.String)))
	}
	assert.Equal(t, []string{"a", "b", "c"}, captions)
	assert.Equal(t, 0, svc.Tracker().Live())
}

func TestEnumerator_BreakReleasesEverything(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(osQuery, osInstance("a", "1"), osInstance("b", "2"), osInstance("c", "3"))

	e, err := conn.ExecQueryNativeWrapper(osQuery)
	require.NoError(t, err)

	n := 0
	for _, err := range e.All() {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, svc.Tracker().Live())

	_, err = e.Next()
	assert.Equal(t, io.EOF, err)
}

func TestEnumerator_DetachKeepsObjectOpen(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(osQuery, osInstance("a", "1"), osInstance("b", "2"))

	e, err := conn.ExecQueryNativeWrapper(osQuery)
	require.NoError(t, err)

	var kept []*ClassObject
	for obj, err := range e.All() {
		require.NoError(t, err)
		kept = append(kept, obj.Detach())
	}
	assert.Equal(t, 2, svc.Tracker().Live())

	v, err := kept[1].Get("BuildNumber")
	require.NoError(t, err)
	assert.Equal(t, variant.String("2"), v)

	for _, obj := range kept {
		require.NoError(t, obj.Close())
		require.NoError(t, obj.Close())
	}
}

func TestEnumerator_CloseWhileActive(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(osQuery, osInstance("a", "1"))

	e, err := conn.ExecQueryNativeWrapper(osQuery)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err = e.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, svc.Enumerators()[0].Calls())
}
