// Package domain defines the core domain models for the pcd device.
package domain

import "fmt"

// Device number limits, matching the Linux dev_t layout.
const (
	MinorBits = 20
	MaxMajor  = 1<<12 - 1
	MaxMinor  = 1<<MinorBits - 1
)

// DeviceNumber identifies a device node by major and minor number.
type DeviceNumber struct {
	Major uint32 `json:"major"`
	Minor uint32 `json:"minor"`
}

// Dev returns the packed dev_t value.
func (d DeviceNumber) Dev() uint64 {
	return uint64(d.Major)<<MinorBits | uint64(d.Minor)
}

// String returns the "major:minor" form.
func (d DeviceNumber) String() string {
	return fmt.Sprintf("%d:%d", d.Major, d.Minor)
}

// DeviceInfo describes the registered device node.
type DeviceInfo struct {
	Name       string       `json:"name"`
	Class      string       `json:"class"`
	Number     DeviceNumber `json:"number"`
	MinorCount uint32       `json:"minor_count"`
	Capacity   int64        `json:"capacity"`
}
