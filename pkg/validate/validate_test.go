package validate

import (
	"errors"
	"testing"
)

type sample struct {
	Name   string  `json:"name" validate:"required,max=5"`
	Price  float64 `json:"price" validate:"gt=0"`
	Method string  `json:"method" validate:"omitempty,oneof=cash card"`
	Opens  string  `json:"opensAt" validate:"omitempty,datetime=15:04"`
	Hidden string  `json:"-" validate:"omitempty,url"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		in    sample
		field string
		msg   string
	}{
		{name: "valid", in: sample{Name: "pizza", Price: 1}},
		{name: "required", in: sample{Price: 1}, field: "name", msg: "name is required"},
		{name: "max", in: sample{Name: "calzone", Price: 1}, field: "name", msg: "name must be at most 5"},
		{name: "gt", in: sample{Name: "pizza"}, field: "price", msg: "price must be greater than 0"},
		{name: "oneof", in: sample{Name: "pizza", Price: 1, Method: "gold"}, field: "method", msg: "method must be one of: cash, card"},
		{name: "datetime", in: sample{Name: "pizza", Price: 1, Opens: "9am"}, field: "opensAt", msg: "opensAt must be a time of day like 09:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.in)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v", err)
				}
				return
			}

			var errs Errors
			if !errors.As(err, &errs) || len(errs) != 1 {
				t.Fatalf("Struct() error = %v, want one field error", err)
			}
			if errs[0].Field != tt.field || errs[0].Message != tt.msg {
				t.Errorf("Struct() = %+v, want %s: %s", errs[0], tt.field, tt.msg)
			}
		})
	}
}

func TestErrorsError(t *testing.T) {
	errs := Errors{{Field: "a", Message: "a is required"}, {Field: "b", Message: "b is invalid"}}
	if got := errs.Error(); got != "validation failed: a is required; b is invalid" {
		t.Errorf("Error() = %q", got)
	}
}
