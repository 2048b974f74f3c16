package identifier

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		kind   Kind
		column Column
	}{
		{"bob@x.com", KindEmail, ColumnEmail},
		{"@", KindEmail, ColumnEmail},
		{"1@", KindEmail, ColumnEmail}, // "@" wins over leading digit
		{"42", KindNumericID, ColumnID},
		{"7bob", KindNumericID, ColumnID},
		{"bob", KindUsername, ColumnUsername},
		{"bob42", KindUsername, ColumnUsername},
		{"", KindUsername, ColumnUsername}, // documented edge case
		{"_9", KindUsername, ColumnUsername},
	}
	for _, tt := range tests {
		got := Classify(tt.in)
		if got.Kind != tt.kind {
			t.Fatalf("Classify(%q).Kind = %v, want %v", tt.in, got.Kind, tt.kind)
		}
		if got.Column() != tt.column {
			t.Fatalf("Classify(%q).Column() = %v, want %v", tt.in, got.Column(), tt.column)
		}
		if got.Value != tt.in {
			t.Fatalf("Classify(%q).Value = %q", tt.in, got.Value)
		}
	}
}
