package genotype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0|1", "1|0"},
		{"1|0", "0|1"},
		{"0|0", "1|1"},
		{"1|1", "0|0"},
		{"0/1", "1/0"},
		{"0", "1"},
		{"1", "0"},
		{"./.", "./."},
		{".|.", ".|."},
		{".", "."},
		{"0|.", "1|."},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Flip(tt.in))
		})
	}
}

func TestFlip_RoundTrip(t *testing.T) {
	tokens := []string{"0|1", "1|0", "0|0", "1|1", "./.", ".|.", ".", "0/1", "1|.", "0", "1"}
	for _, tok := range tokens {
		assert.Equal(t, tok, Flip(Flip(tok)), "flip is not its own inverse for %q", tok)
	}
}

func TestFlip_MissingIsFixedPoint(t *testing.T) {
	for _, tok := range []string{"./.", ".|.", "."} {
		assert.True(t, IsMissing(tok))
		assert.Equal(t, tok, Flip(tok))
	}
}

func TestFlip_NoSequentialCorruption(t *testing.T) {
	// Every heterozygous orientation must swap, never collapse to a homozygote.
	assert.Equal(t, "1|0", Flip("0|1"))
	assert.Equal(t, "0|1", Flip("1|0"))
	assert.NotEqual(t, Flip("0|1"), Flip("1|0"))
}

func TestFlipSample(t *testing.T) {
	tests := []struct {
		name    string
		sample  string
		gtIndex int
		want    string
	}{
		{"GT only", "0|1", 0, "1|0"},
		{"GT first with depth", "0|1:10", 0, "1|0:10"},
		{"GT second", "10:0|0", 1, "10:1|1"},
		{"other fields untouched", "1|1:0,15:99", 0, "0|0:0,15:99"},
		{"no GT in FORMAT", "0|1", -1, "0|1"},
		{"sample shorter than FORMAT", "10", 1, "10"},
		{"missing call", "./.:0", 0, "./.:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlipSample(tt.sample, tt.gtIndex))
		})
	}
}

func TestIsMissing(t *testing.T) {
	tests := []struct {
		gt   string
		want bool
	}{
		{"./.", true},
		{".|.", true},
		{".", true},
		{"0|.", false},
		{"0|1", false},
		{"", false},
		{"|", false},
	}

	for _, tt := range tests {
		t.Run(tt.gt, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMissing(tt.gt))
		})
	}
}
