package scheme_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dsauth/pkg/scheme"
	"github.com/systmms/dsauth/pkg/secret"
)

func TestNewRegistry_DefaultBindings(t *testing.T) {
	t.Parallel()

	reg, err := newTestRegistry(newMapStore())
	require.NoError(t, err)

	assert.Equal(t, []string{"anonymous", "password"}, reg.Tags())
	assert.Equal(t, scheme.DefaultBindings(), reg.Bindings())
	assert.Equal(t, []string{"anonymous", "password"}, reg.HandlerIDs())
	assert.True(t, reg.IsSupported("password"))
	assert.False(t, reg.IsSupported("oauth2"))
}

func TestNewRegistry_InvalidBindings(t *testing.T) {
	t.Parallel()

	env := scheme.Environment{Store: newMapStore(), Codec: testCodec()}
	tests := []struct {
		name     string
		bindings []scheme.Binding
		reason   string
	}{
		{
			name:     "empty_tag",
			bindings: []scheme.Binding{{Tag: "", Handler: "anonymous"}},
			reason:   "empty tag",
		},
		{
			name:     "colon_in_tag",
			bindings: []scheme.Binding{{Tag: "pass:word", Handler: "password"}},
			reason:   "tag must not contain ':'",
		},
		{
			name: "duplicate_tag",
			bindings: []scheme.Binding{
				{Tag: "password", Handler: "password"},
				{Tag: "password", Handler: "anonymous"},
			},
			reason: "duplicate tag",
		},
		{
			name:     "unknown_handler",
			bindings: []scheme.Binding{{Tag: "oauth2", Handler: "org.example.OAuth2"}},
			reason:   "unknown handler",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := scheme.NewRegistry(env, tt.bindings)
			require.ErrorIs(t, err, scheme.ErrInvalidBinding)

			var bindErr *scheme.BindingError
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, tt.reason, bindErr.Reason)
		})
	}
}

func TestNewRegistry_FactoryFailure(t *testing.T) {
	t.Parallel()

	// the password handler needs a store
	_, err := scheme.NewRegistry(scheme.Environment{Codec: testCodec()}, scheme.DefaultBindings())
	var bindErr *scheme.BindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "password", bindErr.Tag)
	assert.Equal(t, 1, bindErr.Index)
	assert.Contains(t, err.Error(), "requires an account store")
}

func TestNewRegistry_CustomFactory(t *testing.T) {
	t.Parallel()

	custom := func(tag string, env scheme.Environment) (scheme.Handler, error) {
		return scheme.NewAnonymous(tag, env)
	}
	env := scheme.Environment{Codec: testCodec()}
	reg, err := scheme.NewRegistry(env,
		[]scheme.Binding{{Tag: "guest", Handler: "custom"}},
		scheme.WithFactory("custom", custom))
	require.NoError(t, err)

	h, err := reg.Lookup("guest")
	require.NoError(t, err)
	assert.Equal(t, "guest", h.Tag())
	assert.Equal(t, "Anonymous", h.Label())
}

func TestNewRegistry_FactoryErrorIsWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := scheme.NewRegistry(scheme.Environment{},
		[]scheme.Binding{{Tag: "x", Handler: "broken"}},
		scheme.WithFactory("broken", func(string, scheme.Environment) (scheme.Handler, error) { return nil, boom }))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, scheme.ErrInvalidBinding)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	t.Parallel()

	reg, err := newTestRegistry(newMapStore())
	require.NoError(t, err)

	h, err := reg.Lookup("unknown")
	assert.Nil(t, h)
	require.ErrorIs(t, err, scheme.ErrUnsupportedScheme)

	var unsupported *scheme.UnsupportedSchemeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "unknown", unsupported.Tag)
}

func TestRegistry_LookupTokenType(t *testing.T) {
	t.Parallel()

	reg, err := newTestRegistry(newMapStore())
	require.NoError(t, err)

	tests := []struct {
		tokenType string
		tag       string
		wantErr   bool
	}{
		{tokenType: "password:", tag: "password"},
		{tokenType: "password://example.com/dav", tag: "password"},
		{tokenType: "anonymous:", tag: "anonymous"},
		{tokenType: "password", wantErr: true},
		{tokenType: ":password", wantErr: true},
		{tokenType: "", wantErr: true},
		{tokenType: "oauth2:", wantErr: true},
	}

	for _, tt := range tests {
		h, err := reg.LookupTokenType(tt.tokenType)
		if tt.wantErr {
			assert.ErrorIs(t, err, scheme.ErrUnsupportedScheme, tt.tokenType)
			continue
		}
		require.NoError(t, err, tt.tokenType)
		assert.Equal(t, tt.tag, h.Tag())
	}
}

func TestRegistry_Labels(t *testing.T) {
	t.Parallel()

	reg, err := newTestRegistry(newMapStore())
	require.NoError(t, err)

	password, err := reg.Lookup("password")
	require.NoError(t, err)
	assert.Equal(t, "Username & Password", password.Label())
	assert.Equal(t, secret.UserCredentialsSecret.Scheme, password.StoredKind().Scheme)
	assert.Equal(t, secret.UserCredentialsToken.Scheme, password.TokenKind().Scheme)

	anonymous, err := reg.Lookup("anonymous")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", anonymous.Label())
}

func TestTokenTypeHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "password:", scheme.TokenType("password"))
	tag, ok := scheme.TagOf("password://host")
	assert.True(t, ok)
	assert.Equal(t, "password", tag)
	assert.Equal(t, "password=password", scheme.Binding{Tag: "password", Handler: "password"}.String())
}
