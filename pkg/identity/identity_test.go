package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tableflip.dev/questlog/pkg/errs"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "trim and hyphenate", raw: " Super Hunter ", want: "super-hunter"},
		{name: "already a key", raw: "super-hunter", want: "super-hunter"},
		{name: "whitespace runs collapse", raw: "Ash \t  Ketchum", want: "ash-ketchum"},
		{name: "single word", raw: "RATHALOS", want: "rathalos"},
		{name: "unicode lowercase", raw: "Ñandú Cazador", want: "ñandú-cazador"},
		{name: "empty", raw: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeCollisionIsSameAccount(t *testing.T) {
	assert.Equal(t, Normalize("super-hunter"), Normalize(" Super Hunter "))
	assert.Equal(t, Normalize("Ash Ketchum"), Normalize("ash   ketchum"))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, raw := range []string{" Super Hunter ", "a b c", "Ash Ketchum"} {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{raw: "Ash", wantErr: false},
		{raw: "  Ash  ", wantErr: false},
		{raw: "Ash Ketchum", wantErr: false},
		{raw: "abcdefghijklmnopqrst", wantErr: false},
		{raw: "abcdefghijklmnopqrstu", wantErr: true},
		{raw: "Al", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "    ", wantErr: true},
	}

	for _, tt := range tests {
		err := Validate(tt.raw)
		if tt.wantErr {
			assert.ErrorIs(t, err, errs.ErrValidation, "raw=%q", tt.raw)
		} else {
			assert.NoError(t, err, "raw=%q", tt.raw)
		}
	}
}

func TestDisplayNameKeepsCasing(t *testing.T) {
	assert.Equal(t, "Ash Ketchum", DisplayName("  Ash Ketchum "))
}
