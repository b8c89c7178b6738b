package snapshot

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMark_Earlier(t *testing.T) {
	early := At(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	late := At(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		a, b Mark
		want bool
	}{
		{"present before absent", early, Absent, true},
		{"absent before present", Absent, early, false},
		{"absent before absent", Absent, Absent, false},
		{"early before late", early, late, true},
		{"late before early", late, early, false},
		{"equal", early, early, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Earlier(tc.b); got != tc.want {
				t.Errorf("Earlier() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMark_JSON(t *testing.T) {
	m := At(time.Date(2020, 11, 9, 17, 30, 22, 0, time.UTC))

	data, err := json.Marshal(map[string]Mark{"present": m, "absent": Absent})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"absent":false,"present":"2020-11-09T17:30:22"}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}

	var back map[string]Mark
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["absent"].Present() {
		t.Error("absent mark decoded as present")
	}
	if !back["present"].Time().Equal(m.Time()) {
		t.Errorf("expected %v, got %v", m.Time(), back["present"].Time())
	}
}

func TestMark_UnmarshalInvalid(t *testing.T) {
	var m Mark
	if err := json.Unmarshal([]byte(`"yesterday"`), &m); err == nil {
		t.Error("expected error for non-ISO string")
	}
	if err := json.Unmarshal([]byte(`true`), &m); err == nil {
		t.Error("expected error for true")
	}
}
