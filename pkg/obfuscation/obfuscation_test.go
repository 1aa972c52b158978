package obfuscation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dsauth/pkg/obfuscation"
)

func ptr(s string) *string { return &s }

// sampleValues mixes nil, empty, whitespace, reserved characters and non-ASCII text.
func sampleValues() []*string {
	return []*string{
		nil,
		ptr(""),
		ptr(" "),
		ptr(";:_,.-=!\"§$%&/()=?*'"),
		ptr("+/$&=#@?%:"),
		ptr("8hd87gfabzugdv"),
		ptr("ABCDEFäöüÖÄÜ 日本語 🔑"),
		ptr("A string that needs to be obfuscated to ensure no one can read it easily."),
	}
}

func TestStrategiesRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range obfuscation.Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := obfuscation.New(name)
			require.NoError(t, err)
			assert.Equal(t, name, s.Name())

			for _, key := range sampleValues() {
				k := ""
				if key != nil {
					k = *key
				}
				for _, plain := range sampleValues() {
					got, err := s.Deobfuscate(k, s.Obfuscate(k, plain))
					require.NoError(t, err)
					if plain == nil {
						assert.Nil(t, got, "key=%q", k)
						continue
					}
					require.NotNil(t, got, "key=%q plain=%q", k, *plain)
					assert.Equal(t, *plain, *got, "key=%q", k)
				}
			}
		})
	}
}

func TestXORHidesPlaintext(t *testing.T) {
	t.Parallel()

	s := obfuscation.NewXOR()
	plain := "ABCDEF"

	out := s.Obfuscate("", &plain)
	require.NotNil(t, out)
	assert.NotContains(t, *out, plain)

	withFragment := s.Obfuscate("account@example.com", &plain)
	require.NotNil(t, withFragment)
	assert.NotEqual(t, *out, *withFragment)
}

func TestXORIsDeterministic(t *testing.T) {
	t.Parallel()

	s := obfuscation.NewXOR()
	plain := "password"
	assert.Equal(t, *s.Obfuscate("k", &plain), *s.Obfuscate("k", &plain))
}

func TestXORZeroValueUsesBuiltInKey(t *testing.T) {
	t.Parallel()

	plain := "secret"
	a := obfuscation.NewXOR().Obfuscate("", &plain)
	b := obfuscation.XOR{}.Obfuscate("", &plain)
	assert.Equal(t, *a, *b)
}

func TestXORWrongFragmentIsNotDetected(t *testing.T) {
	t.Parallel()

	s := obfuscation.NewXOR()
	plain := "secret value"
	out := s.Obfuscate("right", &plain)

	got, err := s.Deobfuscate("wrong", out)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEqual(t, plain, *got)
}

func TestEmptyValuesPassThroughXOR(t *testing.T) {
	t.Parallel()

	s := obfuscation.NewXOR()
	empty := ""
	assert.Nil(t, s.Obfuscate("key", nil))
	got := s.Obfuscate("key", &empty)
	require.NotNil(t, got)
	assert.Equal(t, "", *got)
}

func TestDeobfuscateRejectsInvalidBase64(t *testing.T) {
	t.Parallel()

	bad := "not*base64!"
	for _, s := range []obfuscation.Strategy{obfuscation.Base64{}, obfuscation.NewXOR()} {
		_, err := s.Deobfuscate("", &bad)
		assert.ErrorIs(t, err, obfuscation.ErrInvalidData, s.Name())
	}
}

func TestIdentityReturnsInput(t *testing.T) {
	t.Parallel()

	v := "plain"
	out := obfuscation.Identity{}.Obfuscate("ignored", &v)
	require.NotNil(t, out)
	assert.Equal(t, "plain", *out)
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "identity", want: "identity"},
		{name: "base64", want: "base64"},
		{name: "xor", want: "xor"},
		{name: "rot13", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := obfuscation.New(tt.name)
			if tt.wantErr {
				var unknown *obfuscation.UnknownStrategyError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, tt.name, unknown.Name)
				assert.False(t, obfuscation.IsSupported(tt.name))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
			assert.True(t, obfuscation.IsSupported(tt.name))
		})
	}
}

func TestNamesSorted(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"base64", "identity", "xor"}, obfuscation.Names())
}

func TestMustNewPanicsOnUnknown(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { obfuscation.MustNew("nope") })
	assert.NotPanics(t, func() { obfuscation.MustNew("xor") })
}
