package service

import (
	"errors"
	"testing"

	"github.com/yndnr/pcd-go/internal/core/domain"
)

func TestNumberRegistry_Allocate(t *testing.T) {
	r := &numberRegistry{}

	first, err := r.allocate("a", 0, 0, 7)
	if err != nil {
		t.Fatalf("allocate() error = %v", err)
	}
	if first.Major != dynamicMajorHigh || first.Minor != 0 {
		t.Errorf("first dynamic number = %s, want %d:0", first, dynamicMajorHigh)
	}

	second, err := r.allocate("b", 0, 0, 7)
	if err != nil {
		t.Fatalf("allocate() error = %v", err)
	}
	if second.Major != dynamicMajorHigh-1 {
		t.Errorf("second dynamic major = %d, want %d", second.Major, dynamicMajorHigh-1)
	}

	r.release(first)
	third, err := r.allocate("c", 0, 0, 1)
	if err != nil {
		t.Fatalf("allocate() error = %v", err)
	}
	if third.Major != dynamicMajorHigh {
		t.Errorf("released major not reused: got %d", third.Major)
	}
}

func TestNumberRegistry_StaticMajor(t *testing.T) {
	r := &numberRegistry{}

	if _, err := r.allocate("a", 42, 0, 7); err != nil {
		t.Fatalf("allocate() error = %v", err)
	}

	tests := []struct {
		name    string
		major   uint32
		base    uint32
		count   uint32
		wantErr bool
	}{
		{"overlapping range", 42, 6, 2, true},
		{"adjacent range", 42, 7, 3, false},
		{"other major", 43, 0, 7, false},
		{"zero count", 44, 0, 0, true},
		{"major too large", domain.MaxMajor + 1, 0, 1, true},
		{"minor range too large", 45, domain.MaxMinor, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.allocate(tt.name, tt.major, tt.base, tt.count)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidArgument) {
					t.Errorf("error = %v, want InvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNumberRegistry_DynamicExhausted(t *testing.T) {
	r := &numberRegistry{}
	for m := dynamicMajorLow; m <= dynamicMajorHigh; m++ {
		if _, err := r.allocate("fill", 0, 0, 1); err != nil {
			t.Fatalf("allocate #%d error = %v", m, err)
		}
	}
	if _, err := r.allocate("overflow", 0, 0, 1); !errors.Is(err, domain.ErrInternalServer) {
		t.Errorf("error = %v, want InternalServer", err)
	}
}
