package secret_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dsauth/pkg/secret"
)

func values() []*string {
	return []*string{
		nil,
		secret.String(""),
		secret.String(" "),
		secret.String("?"),
		secret.String("%3F"),
		secret.String("+/$&=#@"),
		secret.String(",.-;_:!\"§$%&/()=?+#*'"),
		secret.String("abcXYZ019-_.~!*'"),
		secret.String("ABCDEFäöüÖÄÜ 日本語 🔑"),
	}
}

// tuples builds every tuple of the given arity from a short list so the
// cartesian product stays small.
func tuples(arity int) [][]*string {
	pool := values()
	if arity == 0 {
		return [][]*string{{}}
	}
	var out [][]*string
	for _, rest := range tuples(arity - 1) {
		for _, v := range pool {
			t := append([]*string{v}, rest...)
			out = append(out, t)
		}
	}
	return out
}

func assertFieldsEqual(t *testing.T, want, got []*string) {
	t.Helper()

	require.Len(t, got, len(want))
	for i := range want {
		if want[i] == nil {
			assert.Nil(t, got[i], "field %d", i)
			continue
		}
		require.NotNil(t, got[i], "field %d", i)
		assert.Equal(t, *want[i], *got[i], "field %d", i)
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	t.Parallel()

	for _, arity := range []int{0, 1, 3} {
		for _, parts := range tuples(arity) {
			joined := secret.Join(parts)
			got, err := secret.Split(joined, arity)
			require.NoError(t, err, "joined=%q", joined)
			assertFieldsEqual(t, parts, got)
		}
	}
}

func TestJoinIsRandomized(t *testing.T) {
	t.Parallel()

	parts := []*string{secret.String("user"), secret.String("pass"), nil}
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		seen[secret.Join(parts)] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestJoinNeverExposesReservedCharacters(t *testing.T) {
	t.Parallel()

	joined := secret.Join([]*string{secret.String("a b:c?d"), nil})
	assert.NotContains(t, joined, " ")
	assert.NotContains(t, joined, ":")
	assert.Equal(t, 4, strings.Count(joined, "+")+strings.Count(joined, "/")+
		strings.Count(joined, "$")+strings.Count(joined, "&")+strings.Count(joined, "=")+
		strings.Count(joined, "#")+strings.Count(joined, "@"))
}

func TestSplitRejectsWrongArity(t *testing.T) {
	t.Parallel()

	joined := secret.Join([]*string{secret.String("a"), secret.String("b"), secret.String("c")})

	for _, arity := range []int{0, 1, 2, 4} {
		_, err := secret.Split(joined, arity)
		assert.ErrorIs(t, err, secret.ErrMalformedSecret, "arity %d", arity)
	}
}

func TestSplitLegacyFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		plaintext string
		arity     int
		want      []*string
		wantErr   bool
	}{
		{
			name:      "three_fields",
			plaintext: "test:ABCDEF:12345678",
			arity:     3,
			want:      []*string{secret.String("test"), secret.String("ABCDEF"), secret.String("12345678")},
		},
		{
			name:      "null_and_escaped",
			plaintext: "?:p%3Aw%20d:",
			arity:     3,
			want:      []*string{nil, secret.String("p:w d"), secret.String("")},
		},
		{
			name:      "too_few",
			plaintext: "user:pass",
			arity:     3,
			wantErr:   true,
		},
		{
			name:      "too_many",
			plaintext: "a:b:c:d",
			arity:     3,
			wantErr:   true,
		},
		{
			name:      "bad_escape",
			plaintext: "a:%zz:c",
			arity:     3,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := secret.Split(tt.plaintext, tt.arity)
			if tt.wantErr {
				assert.ErrorIs(t, err, secret.ErrMalformedSecret)
				return
			}
			require.NoError(t, err)
			assertFieldsEqual(t, tt.want, got)
		})
	}
}

func TestSplitNegativeArity(t *testing.T) {
	t.Parallel()

	_, err := secret.Split("", -1)
	assert.ErrorIs(t, err, secret.ErrMalformedSecret)
}

func TestSplitIgnoresPadding(t *testing.T) {
	t.Parallel()

	// Hand-built frame: padding, value, padding shared with next value, value, padding.
	got, err := secret.Split("xYz+alice#!!*'=?@tail", 2)
	require.NoError(t, err)
	assertFieldsEqual(t, []*string{secret.String("alice"), nil}, got)
}
