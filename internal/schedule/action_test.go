package schedule

import "testing"

func TestParseAction(t *testing.T) {
	tests := []struct {
		token      string
		wantKind   Kind
		wantString string
	}{
		{"on", TurnOn, "on"},
		{"ON", TurnOn, "on"},
		{"Off", TurnOff, "off"},
		{"toggle", Unrecognized, "toggle"},
		{"DIM", Unrecognized, "DIM"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			a := ParseAction(tt.token)
			if a.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", a.Kind(), tt.wantKind)
			}
			if a.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", a.String(), tt.wantString)
			}
			if a.IsRecognized() != (tt.wantKind != Unrecognized) {
				t.Errorf("IsRecognized() = %v", a.IsRecognized())
			}
		})
	}

	if ParseAction("toggle") == ParseAction("dim") {
		t.Error("distinct unrecognized tokens compare equal")
	}
}
