package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailySpec(t *testing.T) {
	spec, err := dailySpec("09:00")
	require.NoError(t, err)
	assert.Equal(t, "0 9 * * *", spec)

	spec, err = dailySpec("23:59")
	require.NoError(t, err)
	assert.Equal(t, "59 23 * * *", spec)
}

func TestDailySpec_Invalid(t *testing.T) {
	for _, at := range []string{"", "9", "24:00", "12:60", "ab:cd", "12:00:00x"} {
		_, err := dailySpec(at)
		assert.Error(t, err, at)
	}
}
