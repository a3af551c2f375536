package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func secs(v int64) *int64 { return &v }

func TestBucketDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds *int64
		want    DurationBucket
	}{
		{"missing", nil, DurationUnknown},
		{"negative", secs(-5), DurationShort},
		{"zero", secs(0), DurationShort},
		{"just below two minutes", secs(119), DurationShort},
		{"two minutes", secs(120), DurationMedium},
		{"just below ten minutes", secs(599), DurationMedium},
		{"ten minutes", secs(600), DurationLong},
		{"just below half an hour", secs(1799), DurationLong},
		{"half an hour", secs(1800), DurationVeryLong},
		{"long stream", secs(4 * 3600), DurationVeryLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketDuration(tt.seconds))
		})
	}
}

func TestComputeRates(t *testing.T) {
	r := ComputeRates(50, 3, 10, 1000)

	assert.Equal(t, 0.05, r.LikeRate)
	assert.Equal(t, 0.01, r.CommentRate)
	assert.Equal(t, 0.06, r.EngagementRate)
	assert.Equal(t, int64(47), r.NetLikes)
	assert.Equal(t, 50.0, r.LikesPer1kViews)
	assert.Equal(t, 10.0, r.CommentsPer1kViews)
}

func TestComputeRatesZeroViews(t *testing.T) {
	r := ComputeRates(12, 20, 7, 0)

	assert.Zero(t, r.LikeRate)
	assert.Zero(t, r.CommentRate)
	assert.Zero(t, r.EngagementRate)
	assert.Zero(t, r.LikesPer1kViews)
	assert.Zero(t, r.CommentsPer1kViews)
	assert.Equal(t, int64(-8), r.NetLikes)
}

func TestComputeRatesIsPure(t *testing.T) {
	first := ComputeRates(123, 4, 56, 7890)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeRates(123, 4, 56, 7890))
	}
}
