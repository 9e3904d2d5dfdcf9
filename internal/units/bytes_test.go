package units

import "testing"

func TestToBytes(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  string
		want  uint64
	}{
		{name: "plain-bytes", value: 512, unit: "B", want: 512},
		{name: "fractional-bytes-truncate", value: 1.5, unit: "B", want: 1},
		{name: "kib", value: 1.5, unit: "KiB", want: 1536},
		{name: "mib", value: 2.0, unit: "MiB", want: 2097152},
		{name: "gib", value: 1, unit: "GiB", want: 1073741824},
		{name: "tib", value: 1, unit: "TiB", want: 1099511627776},
		{name: "fraction-of-kib", value: 0.001, unit: "KiB", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBytes(tt.value, tt.unit)
			if err != nil {
				t.Fatalf("ToBytes() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ToBytes(%v, %q) = %d, want %d", tt.value, tt.unit, got, tt.want)
			}
		})
	}
}

func TestToBytesRejectsUnknownUnit(t *testing.T) {
	if _, err := ToBytes(1, "MB"); err == nil {
		t.Fatalf("expected error for decimal unit")
	}
	if _, err := ToBytes(-1, "B"); err == nil {
		t.Fatalf("expected error for negative value")
	}
}

func TestToBytesRejectsOverflow(t *testing.T) {
	if _, err := ParseMeasurement("1e10 TiB"); err == nil {
		t.Fatalf("expected overflow error")
	}
	// 2^64 B 자체도 범위 밖
	if _, err := ToBytes(16777216, "TiB"); err == nil {
		t.Fatalf("expected overflow error at 2^64")
	}
	got, err := ToBytes(16777215, "TiB")
	if err != nil || got != 16777215<<40 {
		t.Fatalf("ToBytes() = %d, %v", got, err)
	}
}

func TestParseMeasurement(t *testing.T) {
	got, err := ParseMeasurement("2.00 MiB")
	if err != nil || got != 2097152 {
		t.Fatalf("ParseMeasurement() = %d, %v", got, err)
	}
	if _, err := ParseMeasurement("2.00MiB"); err == nil {
		t.Fatalf("expected error for missing separator")
	}
	if _, err := ParseMeasurement("abc KiB"); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0.00 B"},
		{in: 1023, want: "1023.00 B"},
		{in: 1024, want: "1.00 KB"},
		{in: 5000, want: "4.88 KB"},
		{in: 10800, want: "10.55 KB"},
		{in: 1 << 20, want: "1.00 MB"},
		{in: 1 << 30, want: "1.00 GB"},
		{in: 1 << 40, want: "1.00 TB"},
		{in: 1 << 50, want: "1.00 PB"},
		{in: 1 << 60, want: "1024.00 PB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Fatalf("FormatBytes(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
