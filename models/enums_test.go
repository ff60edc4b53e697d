package models

import "testing"

func TestOrderStatusGuards(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		editable bool
		settled  bool
	}{
		{OrderStatusPreparing, true, false},
		{OrderStatusPending, true, false},
		{OrderStatusServed, false, false},
		{OrderStatusPaid, false, true},
		{OrderStatusCredit, false, true},
	}
	for _, tt := range tests {
		if got := tt.status.Editable(); got != tt.editable {
			t.Errorf("%s.Editable() = %v, want %v", tt.status, got, tt.editable)
		}
		if got := tt.status.Settled(); got != tt.settled {
			t.Errorf("%s.Settled() = %v, want %v", tt.status, got, tt.settled)
		}
	}
}
