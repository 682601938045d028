package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{-1, time.Minute},
		{0, time.Minute},
		{1, 2 * time.Minute},
		{3, 8 * time.Minute},
		{6, time.Hour},
		{20, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryBackoff(tt.retry), "retry %d", tt.retry)
	}
}
