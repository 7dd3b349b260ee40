package validation

import "testing"

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"aapl":    "AAPL",
		" msft ":  "MSFT",
		"BRK.B":   "BRK.B",
		"GOOGL":   "GOOGL",
		"  ibm\t": "IBM",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestValidateStruct_Ticker(t *testing.T) {
	type req struct {
		Symbol string `validate:"required,ticker"`
	}

	if errs := ValidateStruct(req{Symbol: "AAPL"}); errs != nil {
		t.Errorf("valid ticker rejected: %v", errs)
	}
	if errs := ValidateStruct(req{Symbol: ""}); errs == nil {
		t.Error("empty ticker accepted")
	}
	if errs := ValidateStruct(req{Symbol: "WAY_TOO_LONG_SYMBOL"}); errs == nil {
		t.Error("oversized ticker accepted")
	}
	if errs := ValidateStruct(req{Symbol: "bad sym"}); errs == nil {
		t.Error("ticker with spaces accepted")
	}
}

func TestValidateStruct_Username(t *testing.T) {
	type req struct {
		Username string `validate:"required,username"`
	}

	if errs := ValidateStruct(req{Username: "trader_01"}); errs != nil {
		t.Errorf("valid username rejected: %v", errs)
	}
	if errs := ValidateStruct(req{Username: "ab"}); errs == nil {
		t.Error("too-short username accepted")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString(" hello\x00world "); got != "helloworld" {
		t.Errorf("SanitizeString = %q", got)
	}
}
