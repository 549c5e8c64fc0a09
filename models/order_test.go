package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus(t *testing.T) {
	tests := []struct {
		name      string
		submitted bool
		completed bool
		want      OrderStatus
	}{
		{"fresh order is open", false, false, StatusOpen},
		{"submitted order waits on the kitchen", true, false, StatusSubmitted},
		{"submitted and completed is done", true, true, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{Submitted: tt.submitted, Completed: tt.completed}
			assert.Equal(t, tt.want, o.Status())
		})
	}
}
