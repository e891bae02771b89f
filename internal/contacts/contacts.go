package contacts

import (
	"strings"

	"go.uber.org/zap"
)

// Checker resolves whether a sender is a known contact. Entries may be full
// addresses or bare domains; matching is case-insensitive.
type Checker struct {
	addresses map[string]struct{}
	domains   map[string]struct{}
	logger    *zap.Logger
}

// NewChecker creates a contact checker from a list of addresses and domains
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	c := &Checker{
		addresses: make(map[string]struct{}),
		domains:   make(map[string]struct{}),
		logger:    logger,
	}

	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "@") {
			c.addresses[entry] = struct{}{}
		} else {
			c.domains[entry] = struct{}{}
		}
	}

	if len(entries) > 0 && logger != nil {
		logger.Info("Initialized contact checker",
			zap.Int("addresses", len(c.addresses)),
			zap.Int("domains", len(c.domains)))
	}

	return c
}

// IsContact reports whether the address belongs to a known contact
func (c *Checker) IsContact(address string) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	if _, ok := c.addresses[address]; ok {
		return true
	}

	parts := strings.Split(address, "@")
	if len(parts) != 2 {
		return false
	}
	_, ok := c.domains[strings.TrimSuffix(parts[1], ">")]
	return ok
}
