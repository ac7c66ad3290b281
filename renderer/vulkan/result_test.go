package vulkan

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultErrorIs(t *testing.T) {
	tests := []struct {
		res    Result
		target error
		want   bool
	}{
		{Timeout, ErrTimeout, true},
		{NotReady, ErrTimeout, true},
		{ErrorOutOfDate, ErrOutOfDate, true},
		{Suboptimal, ErrOutOfDate, true},
		{ErrorDeviceLost, ErrDeviceLost, true},
		{ErrorDeviceLost, ErrTimeout, false},
		{ErrorSurfaceLost, ErrOutOfDate, false},
		{ErrorOutOfHostMemory, ErrDeviceLost, false},
	}
	for _, tt := range tests {
		t.Run(tt.res.String(), func(t *testing.T) {
			err := fmt.Errorf("frame: %w", resultError("op", tt.res))
			assert.Equal(t, tt.want, errors.Is(err, tt.target))
		})
	}
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", ErrorOutOfDate.String())
	assert.Equal(t, "VkResult(-77)", Result(-77).String())
	assert.Equal(t, "queue submit: VK_ERROR_DEVICE_LOST", resultError("queue submit", ErrorDeviceLost).Error())

	assert.True(t, Suboptimal.IsSuccess())
	assert.False(t, ErrorOutOfDate.IsSuccess())
}
