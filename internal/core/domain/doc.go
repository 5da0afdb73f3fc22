// Package domain defines the core domain models for the pcd device.
//
// The device is a fixed-capacity byte region accessed through
// open/read/write/seek/close. This package contains:
//
//   - Storage: the zero-filled, fixed-size byte region (Capacity bytes)
//   - Session: per-open state holding one cursor into Storage
//   - Seek, Read, Write: the access engine operating on a Session and Storage
//   - DeviceNumber, DeviceInfo: identity of the registered device node
//   - Errors: device error codes and their errno names
//
// Reads and writes that ask for more than remains are clamped; a transfer
// of zero bytes is reported as ErrEndOfStorage or ErrStorageFull. The
// functions here do no locking; the caller serializes access to Storage.
package domain
