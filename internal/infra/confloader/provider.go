package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

var errNotBytes = errors.New("confloader: map provider has no byte form")

// mapProvider feeds dotted key values to koanf as a nested map.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errNotBytes
}

func (m mapProvider) Read() (map[string]any, error) {
	return maps.Unflatten(m, "."), nil
}
