package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Compare defines a total order over plugin version strings.
// It returns a negative number when a < b, zero when they are equal
// and a positive number when a > b.
//
// Well-formed versions are parsed leniently ("1.2", "v1.2.3", "1.2.0-eap")
// and ordered per semver, so pre-release builds sort below their release
// ("1.2.0-eap" < "1.2.0") and numeric segments sort numerically
// ("1.2.0" < "1.10.0"). Malformed input never fails: a string semver cannot
// parse orders below any parseable version, and two unparseable strings
// order lexicographically.
//
// Compare is pure and safe for concurrent use.
func Compare(a, b string) int {
	av, aerr := semver.NewVersion(strings.TrimSpace(a))
	bv, berr := semver.NewVersion(strings.TrimSpace(b))

	switch {
	case aerr == nil && berr == nil:
		return av.Compare(bv)
	case aerr == nil:
		return 1
	case berr == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}
