package socket

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "uninitialized"},
		{StateOpen, "open"},
		{StateClosed, "closed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateStringPanicsOnUndefined(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("State(42).String() did not panic")
		}
	}()
	_ = State(42).String()
}

func TestStateValid(t *testing.T) {
	for _, s := range []State{StateUninitialized, StateOpen, StateClosed} {
		if !s.valid() {
			t.Errorf("valid(%v) = false, want true", int32(s))
		}
	}
	if State(3).valid() {
		t.Error("valid(3) = true, want false")
	}
	if State(-1).valid() {
		t.Error("valid(-1) = true, want false")
	}
}
