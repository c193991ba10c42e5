package analysis

import (
	"insight/pkg/errors"
)

// Capability names one analysis operation. It is fixed for the lifetime of a call.
type Capability string

const (
	CapabilityEntities   Capability = "entities"
	CapabilitySentiment  Capability = "sentiment"
	CapabilityKeyPhrases Capability = "keyPhrases"
	CapabilityVision     Capability = "vision"
)

// Capabilities lists every supported capability in a stable order.
var Capabilities = []Capability{
	CapabilityEntities,
	CapabilitySentiment,
	CapabilityKeyPhrases,
	CapabilityVision,
}

// ParseCapability maps a route or config value onto a Capability.
func ParseCapability(s string) (Capability, error) {
	for _, c := range Capabilities {
		if string(c) == s {
			return c, nil
		}
	}
	return "", errors.Wrapf(errors.ErrNotFound, "unknown capability %q", s)
}

func (c Capability) String() string {
	return string(c)
}

// IsText reports whether the capability takes text units
func (c Capability) IsText() bool {
	return c != CapabilityVision
}
