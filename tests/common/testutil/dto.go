//go:build unit || e2e

package testutil

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// DtoMap round-trips v through JSON so tests can break a request the way a
// client would.
func DtoMap(t *testing.T, v any, muts ...func(map[string]any)) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, f := range muts {
		f(m)
	}
	return m
}

// Field sets the value at a dotted path such as "shippingAddress.postalCode".
// A nil value deletes the key. Missing parents are left alone.
func Field(path string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		keys := strings.Split(path, ".")
		for _, k := range keys[:len(keys)-1] {
			next, ok := m[k].(map[string]any)
			if !ok {
				return
			}
			m = next
		}
		leaf := keys[len(keys)-1]
		if value == nil {
			delete(m, leaf)
			return
		}
		m[leaf] = value
	}
}
