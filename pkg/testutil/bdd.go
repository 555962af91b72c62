package testutil

import "testing"

// Given, When and Then run fn as a subtest named after the clause, so
// nested scenarios read as sentences in `go test -v` output.
func Given(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return clause(t, "given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return clause(t, "when", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return clause(t, "then", desc, fn)
}

func clause(t *testing.T, keyword, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run(keyword+" "+desc, fn)
}
