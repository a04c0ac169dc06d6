package common

import (
	"fmt"
	"math"
)

// SafeIntToUint8 safely converts int to uint8 with bounds checking
func SafeIntToUint8(value int) (uint8, error) {
	if value < 0 || value > math.MaxUint8 {
		return 0, fmt.Errorf("value %d out of range for uint8 (0-%d)", value, math.MaxUint8)
	}
	return uint8(value), nil
}

// SafeInt64ToUint32 safely converts int64 to uint32 with bounds checking
func SafeInt64ToUint32(value int64) (uint32, error) {
	if value < 0 {
		return 0, fmt.Errorf("value %d is negative, cannot convert to uint32", value)
	}
	if value > math.MaxUint32 {
		return 0, fmt.Errorf("value %d out of range for uint32 (0-%d)", value, math.MaxUint32)
	}
	return uint32(value), nil
}
