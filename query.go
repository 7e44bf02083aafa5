package wmiq

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/wmiq/internal/schema"
	"github.com/roach88/wmiq/wbem"
)

// BuildQuery renders "SELECT <fields> FROM <class> <where>".
//
// Fields keep their order. Each filter becomes "name = literal"; the
// conditions are sorted by their rendered text so that the same filter set
// always yields the same query. Without filters the WHERE clause is empty
// but the separating space is kept. Values are not escaped.
func BuildQuery(class string, fields []string, filters map[string]FilterValue) string {
	var where string
	if len(filters) > 0 {
		conds := make([]string, 0, len(filters))
		for name, value := range filters {
			conds = append(conds, fmt.Sprintf("%s = %s", name, value.literal()))
		}
		slices.Sort(conds)
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	return fmt.Sprintf("SELECT %s FROM %s %s", strings.Join(fields, ","), class, where)
}

func buildQuery(s schema.Schema, filters map[string]FilterValue) string {
	return BuildQuery(s.Class, s.Names(), filters)
}

// QueryText returns the query FilteredQuery[T] would execute.
func QueryText[T any](filters map[string]FilterValue) (string, error) {
	s, err := schema.For[T]()
	if err != nil {
		return "", fmt.Errorf("wmiq: %w", err)
	}
	return buildQuery(s, filters), nil
}

// ExecQueryNativeWrapper executes text and returns the cursor over its
// results. The caller must Close the enumerator or drain it.
func (c *Connection) ExecQueryNativeWrapper(text string) (*Enumerator, error) {
	lang, err := wbem.EncodeWide(wbem.QueryLanguage)
	if err != nil {
		return nil, &QueryError{Kind: KindMalformedQuery, Query: text, Err: err}
	}
	query, err := wbem.EncodeWide(text)
	if err != nil {
		return nil, &QueryError{Kind: KindMalformedQuery, Query: text, Err: err}
	}

	h, hr := c.svc.ExecQuery(lang, query, wbem.FlagForwardOnly|wbem.FlagReturnImmediately)
	if hr.Failed() {
		if h != nil {
			h.Release()
		}
		qe := statusError(KindExecution, hr)
		qe.Query = text
		c.logger.Debug("query failed", "query", text, "status", wbem.StatusName(hr))
		return nil, qe
	}

	c.logger.Debug("query executed", "query", text)
	return newEnumerator(h, text, c.logger), nil
}

// RawQuery executes text and decodes every result into T.
//
// T is a struct type, variant.Object, map[string]variant.Variant or
// map[string]any. The first failure aborts the call; no partial results are
// returned. Zero results yield an empty, non-nil slice.
func RawQuery[T any](c *Connection, text string) ([]T, error) {
	e, err := c.ExecQueryNativeWrapper(text)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	out := make([]T, 0)
	for obj, err := range e.All() {
		if err != nil {
			return nil, err
		}
		var v T
		if err := Decode(obj, &v); err != nil {
			c.logger.Debug("decode failed", "query", text, "error", err)
			return nil, withQuery(err, text)
		}
		out = append(out, v)
	}
	return out, nil
}

// Query selects every instance of T's class, fetching T's fields.
func Query[T any](c *Connection) ([]T, error) {
	return FilteredQuery[T](c, nil)
}

// FilteredQuery selects the instances of T's class matching every filter.
func FilteredQuery[T any](c *Connection, filters map[string]FilterValue) ([]T, error) {
	text, err := QueryText[T](filters)
	if err != nil {
		return nil, &QueryError{Kind: KindDecode, Err: err}
	}
	return RawQuery[T](c, text)
}
