package event

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvent_Decode(t *testing.T) {
	t.Parallel()

	ev, err := Decode(strings.NewReader(`{"type":"push","branch":"main","commit":"abc123","changed_paths":["VERSION"]}`))
	require.NoError(t, err)
	require.Equal(t, TypePush, ev.Type)
	require.Equal(t, "main", ev.Branch)
	require.Equal(t, "abc123", ev.Commit)
	require.Equal(t, []string{"VERSION"}, ev.ChangedPaths)
}

func TestEvent_Decode_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"deployment","branch":"main"}`},
		{"missing branch", `{"type":"push"}`},
		{"unknown field", `{"type":"push","branch":"main","tag":"v1"}`},
		{"not json", `branch=main`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(strings.NewReader(tt.body))
			require.Error(t, err)
		})
	}
}
