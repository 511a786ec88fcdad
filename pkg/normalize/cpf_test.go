package normalize

import "testing"

func TestValidCPF(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"111.444.777-35", true},
		{"11144477735", true},
		{"111.111.111-11", false}, // repeated digits
		{"000.000.000-00", false},
		{"123.456.789-00", false}, // bad second check digit
		{"111.444.777-34", false}, // bad first check digit
		{"1114447773", false},     // too short
		{"", false},
		{"abc", false},
	}
	for _, tt := range tests {
		if got := ValidCPF(tt.input); got != tt.want {
			t.Errorf("ValidCPF(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidCPFAllRepeatedDigits(t *testing.T) {
	for d := byte('0'); d <= '9'; d++ {
		cpf := string(make([]byte, 0, 11))
		for i := 0; i < 11; i++ {
			cpf += string(d)
		}
		if ValidCPF(cpf) {
			t.Errorf("ValidCPF(%q) = true, want false", cpf)
		}
	}
}
