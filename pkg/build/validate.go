package build

import (
	"fmt"
	"regexp"
)

// manifest identifiers are DNS-1123 labels: what the orchestrator
// accepts as template and workflow names.
var namePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

const maxNameLength = 63

// validateName checks that name can become a manifest identifier.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if maxNameLength < len(name) {
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, name, maxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf(
			"%w: %q (lowercase alphanumerics and dashes only, starting and ending alphanumeric)",
			ErrInvalidName, name,
		)
	}
	return nil
}
