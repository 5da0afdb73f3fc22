package service

import (
	"fmt"
	"sync"

	"github.com/yndnr/pcd-go/internal/core/domain"
)

// Dynamic majors are handed out from the top of this range downwards.
const (
	dynamicMajorLow  = 234
	dynamicMajorHigh = 254
)

// region is a registered range of minors under one major.
type region struct {
	name  string
	major uint32
	base  uint32
	count uint32
}

func (r region) overlaps(major, base, count uint32) bool {
	return r.major == major && base < r.base+r.count && r.base < base+count
}

// numberRegistry tracks device number regions held by this process.
type numberRegistry struct {
	mu      sync.Mutex
	regions []region
}

// processNumbers is shared by every DeviceService in the process.
var processNumbers = &numberRegistry{}

// allocate reserves count minors starting at base. A major of 0 requests
// a dynamically chosen one.
func (r *numberRegistry) allocate(name string, major, base, count uint32) (domain.DeviceNumber, error) {
	if count == 0 {
		return domain.DeviceNumber{}, domain.ErrInvalidArgument.WithDetails("minor count must be positive")
	}
	if major > domain.MaxMajor {
		return domain.DeviceNumber{}, domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("major %d exceeds %d", major, domain.MaxMajor))
	}
	if uint64(base)+uint64(count)-1 > domain.MaxMinor {
		return domain.DeviceNumber{}, domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("minor range %d+%d exceeds %d", base, count, domain.MaxMinor))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if major == 0 {
		for m := uint32(dynamicMajorHigh); m >= dynamicMajorLow; m-- {
			if !r.majorInUse(m) {
				major = m
				break
			}
		}
		if major == 0 {
			return domain.DeviceNumber{}, domain.ErrInternalServer.WithDetails("no free dynamic major")
		}
	}

	for _, reg := range r.regions {
		if reg.overlaps(major, base, count) {
			return domain.DeviceNumber{}, domain.ErrInvalidArgument.WithDetails(
				fmt.Sprintf("minors %d:%d-%d already held by %s", major, base, base+count-1, reg.name))
		}
	}

	r.regions = append(r.regions, region{name: name, major: major, base: base, count: count})
	return domain.DeviceNumber{Major: major, Minor: base}, nil
}

// release frees the region starting at num.
func (r *numberRegistry) release(num domain.DeviceNumber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, reg := range r.regions {
		if reg.major == num.Major && reg.base == num.Minor {
			r.regions = append(r.regions[:i], r.regions[i+1:]...)
			return
		}
	}
}

func (r *numberRegistry) majorInUse(major uint32) bool {
	for _, reg := range r.regions {
		if reg.major == major {
			return true
		}
	}
	return false
}
