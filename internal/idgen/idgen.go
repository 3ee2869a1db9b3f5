// Package idgen produces prefixed random identifiers for domain records.
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New returns a generator producing identifiers of the form
// "<prefix>_<12 hex chars>", e.g. "loan_3f2a9b417c8d".
func New(prefix string) func() string {
	return func() string {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		return fmt.Sprintf("%s_%s", prefix, raw[:12])
	}
}
