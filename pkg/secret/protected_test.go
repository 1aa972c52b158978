package secret_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dsauth/pkg/obfuscation"
	"github.com/systmms/dsauth/pkg/secret"
)

func xorCodec() *secret.Codec {
	return secret.NewCodec(obfuscation.NewXOR())
}

func TestUserCredentialsRoundTrip(t *testing.T) {
	t.Parallel()

	codec := xorCodec()
	sealed, err := codec.Seal(secret.UserCredentialsSecret,
		secret.String("test"), secret.String("ABCDEF"), secret.String("12345678"))
	require.NoError(t, err)
	assert.True(t, sealed.Readable())
	assert.Contains(t, sealed.String(), "user_creds_secret:")
	assert.NotContains(t, sealed.String(), "ABCDEF")

	opened, err := secret.Parse(secret.UserCredentialsSecret, sealed.String())
	require.NoError(t, err)
	assert.False(t, opened.Readable())
	require.NoError(t, opened.Unprotect(codec))

	creds, err := opened.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "test", *creds.Username)
	assert.Equal(t, "ABCDEF", *creds.Password)
	assert.Equal(t, "12345678", *creds.Realm)
}

func TestNullFieldsStayNull(t *testing.T) {
	t.Parallel()

	codec := xorCodec()
	sealed, err := codec.Seal(secret.UserCredentialsToken, nil, nil, nil)
	require.NoError(t, err)

	opened, err := codec.Open(secret.UserCredentialsToken, sealed.String())
	require.NoError(t, err)

	fields, err := opened.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 3)
	for _, f := range fields {
		assert.Nil(t, f)
	}
}

func TestCredentialMatrixAllStrategies(t *testing.T) {
	t.Parallel()

	special := ",.-;_:!\"§$%&/()=?+#*'"
	cases := [][]*string{
		{nil, nil, nil},
		{secret.String(""), nil, nil},
		{nil, secret.String(""), nil},
		{nil, nil, secret.String("")},
		{secret.String(""), secret.String(""), secret.String("")},
		{secret.String("Test"), nil, nil},
		{secret.String("test"), secret.String("ABCDEF"), nil},
		{secret.String(special), secret.String("ABCDEFäöüÖÄÜ"), secret.String("12345678")},
		{secret.String(special), secret.String("?"), secret.String("12345678")},
		{secret.String(special), secret.String(special), secret.String(special)},
	}

	for _, name := range obfuscation.Names() {
		codec := secret.NewCodec(obfuscation.MustNew(name)).WithKeyFragment("alice@example.com")
		for _, parts := range cases {
			sealed, err := codec.Seal(secret.UserCredentialsSecret, parts...)
			require.NoError(t, err)

			opened, err := codec.Open(secret.UserCredentialsSecret, sealed.String())
			require.NoError(t, err, name)
			got, err := opened.Fields()
			require.NoError(t, err)
			assertFieldsEqual(t, parts, got)
		}
	}
}

func TestAnonymousKinds(t *testing.T) {
	t.Parallel()

	codec := xorCodec()
	for _, kind := range []secret.Kind{secret.AnonymousSecret, secret.AnonymousToken} {
		sealed, err := codec.Seal(kind)
		require.NoError(t, err)
		assert.Equal(t, kind.Scheme+":", sealed.String())

		opened, err := codec.Open(kind, sealed.String())
		require.NoError(t, err)
		fields, err := opened.Fields()
		require.NoError(t, err)
		assert.Empty(t, fields)
	}
}

func TestParseRejectsBadPrefix(t *testing.T) {
	t.Parallel()

	codec := xorCodec()
	sealed, err := codec.Seal(secret.UserCredentialsSecret, secret.String("u"), secret.String("p"), nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "no_delimiter", input: "user_creds_secret"},
		{name: "other_scheme", input: "user_creds_auth_token:abc"},
		{name: "prefix_only_match", input: "user_creds_secretX:abc"},
		{name: "token_of_secret", input: "anonymous_secret:" + sealed.String()},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := secret.Parse(secret.UserCredentialsSecret, tt.input)
			var malformed *secret.MalformedSecretError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, "user_creds_secret", malformed.Scheme)
			assert.ErrorIs(t, err, secret.ErrMalformedSecret)
		})
	}
}

func TestOpenWithWrongKindFails(t *testing.T) {
	t.Parallel()

	codec := xorCodec()
	sealed, err := codec.Seal(secret.UserCredentialsToken, secret.String("u"), nil, nil)
	require.NoError(t, err)

	_, err = codec.Open(secret.UserCredentialsSecret, sealed.String())
	assert.ErrorIs(t, err, secret.ErrMalformedSecret)
}

func TestUnprotectArityMismatch(t *testing.T) {
	t.Parallel()

	codec := secret.NewCodec(obfuscation.Base64{})
	three := secret.Kind{Scheme: "custom", Fields: []string{"a", "b", "c"}}
	one := secret.Kind{Scheme: "custom", Fields: []string{"a"}}

	sealed, err := codec.Seal(three, secret.String("x"), secret.String("y"), secret.String("z"))
	require.NoError(t, err)

	_, err = codec.Open(one, sealed.String())
	var malformed *secret.MalformedSecretError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "custom", malformed.Scheme)
}

func TestUnprotectInvalidBlob(t *testing.T) {
	t.Parallel()

	_, err := xorCodec().Open(secret.UserCredentialsSecret, "user_creds_secret:***")
	assert.ErrorIs(t, err, secret.ErrMalformedSecret)
	assert.ErrorIs(t, err, obfuscation.ErrInvalidData)
}

func TestOpaqueSecretHidesFields(t *testing.T) {
	t.Parallel()

	p, err := secret.Parse(secret.UserCredentialsSecret, "user_creds_secret:abc")
	require.NoError(t, err)

	_, err = p.Fields()
	assert.ErrorIs(t, err, secret.ErrOpaque)
	_, err = p.Field(secret.FieldUsername)
	assert.ErrorIs(t, err, secret.ErrOpaque)
	_, err = p.Credentials()
	assert.ErrorIs(t, err, secret.ErrOpaque)
}

func TestSealArityMismatch(t *testing.T) {
	t.Parallel()

	_, err := xorCodec().Seal(secret.UserCredentialsSecret, secret.String("only-one"))
	var arity *secret.ArityError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, 3, arity.Want)
	assert.Equal(t, 1, arity.Got)
}

func TestKeyFragmentRoundTrip(t *testing.T) {
	t.Parallel()

	codec := xorCodec()
	sealed, err := codec.WithKeyFragment("right").Seal(secret.UserCredentialsSecret,
		secret.String("user"), secret.String("password"), secret.String("realm"))
	require.NoError(t, err)

	opened, err := codec.WithKeyFragment("right").Open(secret.UserCredentialsSecret, sealed.String())
	require.NoError(t, err)
	creds, err := opened.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "password", *creds.Password)
}

func TestFieldByName(t *testing.T) {
	t.Parallel()

	sealed, err := xorCodec().Seal(secret.UserCredentialsSecret, secret.String("u"), secret.String("p"), nil)
	require.NoError(t, err)

	realm, err := sealed.Field(secret.FieldRealm)
	require.NoError(t, err)
	assert.Nil(t, realm)

	password, err := sealed.Field(secret.FieldPassword)
	require.NoError(t, err)
	assert.Equal(t, "p", secret.Deref(password))

	_, err = sealed.Field("token")
	assert.Error(t, err)
}

func TestCredentialsOnAnonymousKind(t *testing.T) {
	t.Parallel()

	sealed, err := xorCodec().Seal(secret.AnonymousToken)
	require.NoError(t, err)
	_, err = sealed.Credentials()
	assert.Error(t, err)
}

func TestKindByScheme(t *testing.T) {
	t.Parallel()

	for _, k := range secret.Kinds() {
		got, ok := secret.KindByScheme(k.Scheme)
		require.True(t, ok)
		assert.Equal(t, k.Scheme, got.Scheme)
		assert.Equal(t, k.Role, got.Role)
	}
	_, ok := secret.KindByScheme("unknown")
	assert.False(t, ok)

	assert.Equal(t, 3, secret.UserCredentialsSecret.Arity())
	assert.Equal(t, 0, secret.AnonymousToken.Arity())
	assert.Equal(t, "session", secret.UserCredentialsToken.Role.String())
}

func TestSchemeOf(t *testing.T) {
	t.Parallel()

	scheme, ok := secret.SchemeOf("user_creds_secret:abc:def")
	assert.True(t, ok)
	assert.Equal(t, "user_creds_secret", scheme)

	_, ok = secret.SchemeOf("no-delimiter")
	assert.False(t, ok)

	_, ok = secret.SchemeOf(":starts-with-colon")
	assert.False(t, ok)
}
