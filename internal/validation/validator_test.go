package validation

import "testing"

type sample struct {
	Date  string `validate:"required,date"`
	Clock string `validate:"required,clock"`
	Phone string `validate:"required,phone"`
}

func TestCustomRules(t *testing.T) {
	v := New()

	ok := sample{Date: "2026-04-01", Clock: "14:00", Phone: "+1 (555) 013-4456"}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}

	cases := []struct {
		name string
		s    sample
	}{
		{"bad date", sample{Date: "01/04/2026", Clock: "14:00", Phone: "5550134"}},
		{"bad clock", sample{Date: "2026-04-01", Clock: "25:99", Phone: "5550134"}},
		{"bad phone", sample{Date: "2026-04-01", Clock: "14:00", Phone: "call me"}},
		{"short phone", sample{Date: "2026-04-01", Clock: "14:00", Phone: "123"}},
	}
	for _, tc := range cases {
		if err := v.Struct(tc.s); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidationErrorsHelper(t *testing.T) {
	v := New()
	err := v.Struct(sample{})
	if err == nil {
		t.Fatal("expected error")
	}
	errs := v.ValidationErrors(err)
	if len(errs) != 3 {
		t.Fatalf("expected 3 field errors, got %d", len(errs))
	}
	if v.ValidationErrors(nil) != nil {
		t.Fatalf("nil error must map to nil details")
	}
}
