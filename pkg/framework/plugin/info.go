// Package plugin holds the identity a plugin reports to its hosts.
package plugin

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Info contains plugin metadata
type Info struct {
	ID       string // Reverse domain identifier (e.g., "com.example.mobius")
	Name     string // Display name
	Version  string // Semantic version (e.g., "2.5.0")
	Vendor   string // Company/developer name
	Category string // Plugin category (e.g., "Fx", "Instrument")
	// Code is the four character identifier hosts index plugins by: the
	// VST unique id and the Audio Unit subtype.
	Code string
}

// Validate checks the identity is complete
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("plugin ID cannot be empty")
	}
	if i.Name == "" {
		return fmt.Errorf("plugin %s has no name", i.ID)
	}
	if len(i.Code) != 4 {
		return fmt.Errorf("plugin %s: code %q must be exactly four characters", i.ID, i.Code)
	}
	for _, c := range []byte(i.Code) {
		if c < 0x20 || c > 0x7E {
			return fmt.Errorf("plugin %s: code %q must be printable ASCII", i.ID, i.Code)
		}
	}
	if _, err := i.VersionCode(); err != nil {
		return err
	}
	return nil
}

// UniqueID returns Code packed big endian into an integer, the form both
// host protocols use.
func (i Info) UniqueID() int32 {
	var b [4]byte
	copy(b[:], i.Code)
	return int32(binary.BigEndian.Uint32(b[:]))
}

// VersionCode returns the version as major*1000 + minor*100 + patch*10,
// the integer form hosts display.
func (i Info) VersionCode() (int32, error) {
	if i.Version == "" {
		return 0, nil
	}
	parts := strings.Split(strings.TrimPrefix(i.Version, "v"), ".")
	if len(parts) > 3 {
		return 0, fmt.Errorf("plugin %s: invalid version %q", i.ID, i.Version)
	}
	weights := []int32{1000, 100, 10}
	var code int32
	for n, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || (n > 0 && v > 9) {
			return 0, fmt.Errorf("plugin %s: invalid version %q", i.ID, i.Version)
		}
		code += int32(v) * weights[n]
	}
	return code, nil
}
