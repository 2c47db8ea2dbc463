package domain

import "testing"

func TestTaskStateTransitions(t *testing.T) {
	cases := []struct {
		state    TaskState
		canCheck bool
		canClaim bool
	}{
		{TaskStatePending, true, false},
		{TaskStateChecked, false, true},
		{TaskStateClaimed, false, false},
	}

	for _, tc := range cases {
		s := TaskStatus{State: tc.state}
		if s.CanCheck() != tc.canCheck {
			t.Errorf("state %s: CanCheck = %v, want %v", tc.state, s.CanCheck(), tc.canCheck)
		}
		if s.CanClaim() != tc.canClaim {
			t.Errorf("state %s: CanClaim = %v, want %v", tc.state, s.CanClaim(), tc.canClaim)
		}
	}
}
