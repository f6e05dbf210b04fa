package errors

import (
	"reflect"
	"testing"
)

func TestNewMissingFields_Sorts(t *testing.T) {
	err := NewMissingFields([]string{"NumTransactions", "NetRevenue", "NetQuantity"})

	want := []string{"NetQuantity", "NetRevenue", "NumTransactions"}
	if !reflect.DeepEqual(err.Fields, want) {
		t.Errorf("Fields = %v, want %v", err.Fields, want)
	}
	if err.Error() != "Missing fields: [NetQuantity NetRevenue NumTransactions]" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}

	wrapped := Wrap(ErrUnknownModel, "load")
	if !Is(wrapped, ErrUnknownModel) {
		t.Error("wrapped error should match sentinel")
	}
	if wrapped.Error() != "load: unknown model" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}
