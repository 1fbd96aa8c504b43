// Package config holds the configuration for a btserial session.
package config

import (
	"fmt"
	"net"
)

// Config describes one Bluetooth serial session.
type Config struct {
	Device  string // remote device address, e.g. AA:BB:CC:DD:EE:FF
	Secure  bool   // authenticated/encrypted RFCOMM link
	Verbose bool
}

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() []error {
	var errors []error

	if c.Device != "" {
		if _, err := net.ParseMAC(c.Device); err != nil {
			errors = append(errors, fmt.Errorf("'--device' must be a Bluetooth address like AA:BB:CC:DD:EE:FF"))
		}
	}

	return errors
}
