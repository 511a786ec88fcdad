// CLAUDE:SUMMARY CPF checksum validation (two weighted mod-11 check digits, repeated-digit rejection).
package normalize

// ValidCPF reports whether raw is a valid CPF. Punctuation is stripped
// before checking, so both "111.444.777-35" and "11144477735" are accepted.
// The eleven repeated-digit strings pass the checksum arithmetic but are
// not issued, so they are rejected outright.
//
// Validity is enforced at manual-entry time only; bulk imports keep whatever
// the source spreadsheet carried.
func ValidCPF(raw string) bool {
	cpf := Digits(raw)
	if len(cpf) != 11 {
		return false
	}

	same := true
	for i := 1; i < 11; i++ {
		if cpf[i] != cpf[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}

	return int(cpf[9]-'0') == cpfCheckDigit(cpf, 9) &&
		int(cpf[10]-'0') == cpfCheckDigit(cpf, 10)
}

// cpfCheckDigit computes the check digit over the first n digits with
// weights n+1 down to 2 (standard Receita Federal algorithm).
func cpfCheckDigit(cpf string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(cpf[i]-'0') * (n + 1 - i)
	}
	d := 11 - sum%11
	if d >= 10 {
		return 0
	}
	return d
}
