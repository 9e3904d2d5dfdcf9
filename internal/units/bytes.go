// Package units converts wg transfer measurements to byte counts and renders
// byte counts for human-readable alert messages.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// wg가 출력하는 단위 (1024 배수)
var multipliers = map[string]uint64{
	"B":   1,
	"KiB": 1 << 10,
	"MiB": 1 << 20,
	"GiB": 1 << 30,
	"TiB": 1 << 40,
}

// 메시지 표시용 단위 (1024 배수, 이진 접두어를 짧게 표기)
var displayUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// ToBytes converts a measurement such as (1.5, "KiB") into whole bytes,
// truncating any fractional remainder toward zero.
func ToBytes(value float64, unit string) (uint64, error) {
	mult, ok := multipliers[unit]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid value %v", value)
	}
	bytes := value * float64(mult)
	// float64(math.MaxUint64)는 2^64로 반올림되므로 같거나 크면 범위 밖
	if bytes >= float64(math.MaxUint64) {
		return 0, fmt.Errorf("value %v %s overflows uint64", value, unit)
	}
	return uint64(bytes), nil
}

// ParseMeasurement parses "<float> <unit>" (e.g. "2.00 MiB").
func ParseMeasurement(s string) (uint64, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, fmt.Errorf("malformed measurement %q", s)
	}
	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed measurement %q: %w", s, err)
	}
	return ToBytes(value, fields[1])
}

// FormatBytes renders n with binary prefixes and two decimals ("4.88 KB").
func FormatBytes(n float64) string {
	idx := 0
	for n >= 1024 && idx < len(displayUnits)-1 {
		n /= 1024
		idx++
	}
	return fmt.Sprintf("%.2f %s", n, displayUnits[idx])
}
