package analysis

import (
	domain "insight/internal/domain/analysis"
	"insight/pkg/errors"
)

func unsupported(provider string, capability domain.Capability) error {
	return errors.Wrapf(errors.ErrUnsupportedCapability, "%s: %s", provider, capability)
}
