package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "comma separated with trimming",
			raw:  "cod 24/07/25, FAST, urgent",
			want: []string{"cod 24/07/25", "FAST", "urgent"},
		},
		{
			name: "whitespace separated",
			raw:  "fast  urgent",
			want: []string{"fast", "urgent"},
		},
		{
			name: "comma wins over whitespace",
			raw:  "12 livery, fast",
			want: []string{"12 livery", "fast"},
		},
		{
			name: "empty pieces dropped",
			raw:  "fast, , urgent,",
			want: []string{"fast", "urgent"},
		},
		{
			name: "empty string",
			raw:  "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, Tokenize(tt.raw))
		})
	}
}

func TestDetectFirst_ExactMatch(t *testing.T) {
	assert.Equal(t, "fast", DetectFirst("fast, urgent"))
	assert.Equal(t, "k", DetectFirst("K, other"))
	// whitespace also works as a delimiter
	assert.Equal(t, "fast", DetectFirst("fast urgent"))
	// partial words must not match
	assert.Equal(t, "", DetectFirst("snack"))
}

func TestDetectFirst_Variants(t *testing.T) {
	assert.Equal(t, "sand", DetectFirst("SANDY"))
	assert.Equal(t, "12livery", DetectFirst("12livrey"))
	// tag split across two whitespace tokens is merged
	assert.Equal(t, "12livery", DetectFirst("12 livery"))
	assert.Equal(t, "", DetectFirst("khaso"))
}

func TestDetectFirst_LeftToRight(t *testing.T) {
	assert.Equal(t, "big", DetectFirst("unknown big fast"))
	assert.Equal(t, "sand", DetectFirst("sandy, big"))
}

func TestExtractAll(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "multiple canonical tags",
			raw:  "fast, SANDY, big",
			want: []string{"fast", "sand", "big"},
		},
		{
			name: "merged pair consumed once",
			raw:  "12 livery fast",
			want: []string{"12livery", "fast"},
		},
		{
			name: "unknown tokens ignored",
			raw:  "cod 24/07/25, urgent",
			want: nil,
		},
		{
			name: "no match inside larger word",
			raw:  "bigger ksand",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAll(tt.raw))
		})
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, []string{"12livery", "big", "fast", "k", "oscario", "sand"}, Canonical())
}
