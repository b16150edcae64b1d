package fat

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEntryRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatFAT12, FormatFAT16, FormatFAT32} {
		t.Run(format.String(), func(t *testing.T) {
			const last = 3000
			v, _ := newRawVolume(t, format, last)
			values := map[uint32]uint32{}
			for c := uint32(2); c <= last; c += 7 {
				values[c] = (c * 13) & 0xFFF
				if values[c] == 0 {
					values[c] = 1
				}
			}
			values[last] = v.eoc()
			for c, val := range values {
				if err := v.SetEntry(c, val); err != nil {
					t.Fatal(err)
				}
			}
			for c := uint32(2); c <= last; c++ {
				got, err := v.Entry(c)
				if err != nil {
					t.Fatal(err)
				}
				if got != values[c] {
					t.Fatalf("cluster %d: got %#x, want %#x", c, got, values[c])
				}
			}
		})
	}
}

func TestFAT12Straddle(t *testing.T) {
	v, bd := newRawVolume(t, FormatFAT12, 1000)
	// Entry 341 starts at byte 511 of the first FAT sector and ends in the
	// second one.
	entries := []struct{ cluster, value uint32 }{
		{340, 0x123},
		{341, 0xABC},
		{342, 0x456},
	}
	for _, e := range entries {
		if err := v.SetEntry(e.cluster, e.value); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range entries {
		got, err := v.Entry(e.cluster)
		if err != nil {
			t.Fatal(err)
		} else if got != e.value {
			t.Errorf("cluster %d: got %#x, want %#x", e.cluster, got, e.value)
		}
	}

	// Rewrite the straddling entry and check the neighbours survive.
	if err := v.SetEntry(341, 0x000); err != nil {
		t.Fatal(err)
	}
	if v.cache.lbn != v.fatStart+1 {
		t.Errorf("cache at %d after straddling write, want %d", v.cache.lbn, v.fatStart+1)
	}
	if err := v.SetEntry(341, 0xABC); err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		got, err := v.Entry(e.cluster)
		if err != nil {
			t.Fatal(err)
		} else if got != e.value {
			t.Errorf("after rewrite cluster %d: got %#x, want %#x", e.cluster, got, e.value)
		}
	}

	if err := v.Sync(); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x23, 0xC1, 0xAB, 0x56, 0x04}
	for copyIdx := 0; copyIdx < 2; copyIdx++ {
		off := (int(v.fatStart)+copyIdx*int(v.blocksPerFAT))*blockSize + 510
		got := bd.Bytes()[off : off+len(want)]
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("FAT copy %d bytes mismatch (-want +got):\n%s", copyIdx+1, diff)
		}
	}
}

func TestFAT32ReservedBits(t *testing.T) {
	v, bd := newRawVolume(t, FormatFAT32, 200)
	if err := v.Sync(); err != nil {
		t.Fatal(err)
	}
	// Set the reserved top nibble of entry 10 directly on disk.
	off := int(v.fatStart)*blockSize + 10*4
	bd.Bytes()[off+3] = 0xA0
	v.cache.invalidate()

	got, err := v.Entry(10)
	if err != nil {
		t.Fatal(err)
	} else if got != 0 {
		t.Fatalf("reserved bits leaked into entry: %#x", got)
	}
	if err := v.SetEntry(10, 0xFFFF_FFFF); err != nil {
		t.Fatal(err)
	}
	got, err = v.Entry(10)
	if err != nil {
		t.Fatal(err)
	} else if got != mask28bits {
		t.Fatalf("got %#x, want %#x", got, mask28bits)
	}
	if err := v.Sync(); err != nil {
		t.Fatal(err)
	}
	if b := bd.Bytes()[off+3]; b != 0xAF {
		t.Fatalf("top byte %#x, want 0xaf", b)
	}
}

func TestEntryPreconditions(t *testing.T) {
	var unmounted Volume
	if _, err := unmounted.Entry(2); !errors.Is(err, ErrNotMounted) {
		t.Errorf("unmounted Entry: got %v", err)
	}
	if err := unmounted.SetEntry(2, 0); !errors.Is(err, ErrNotMounted) {
		t.Errorf("unmounted SetEntry: got %v", err)
	}

	v, _ := newRawVolume(t, FormatFAT16, 100)
	for _, c := range []uint32{0, 1, 101, 0xFFFF_FFFF} {
		if _, err := v.Entry(c); !errors.Is(err, ErrInvalidCluster) {
			t.Errorf("Entry(%d): got %v, want ErrInvalidCluster", c, err)
		}
		if err := v.SetEntry(c, 0); !errors.Is(err, ErrInvalidCluster) {
			t.Errorf("SetEntry(%d): got %v, want ErrInvalidCluster", c, err)
		}
		if _, _, err := v.Next(c); !errors.Is(err, ErrInvalidCluster) {
			t.Errorf("Next(%d): got %v, want ErrInvalidCluster", c, err)
		}
	}
	if _, err := v.Entry(100); err != nil {
		t.Errorf("last cluster rejected: %v", err)
	}
}

func TestIsEOC(t *testing.T) {
	tests := []struct {
		format Format
		value  uint32
		want   bool
	}{
		{FormatFAT12, 0xFF7, false},
		{FormatFAT12, 0xFF8, true},
		{FormatFAT12, 0xFFF, true},
		{FormatFAT16, 0xFF8, false},
		{FormatFAT16, 0xFFF7, false},
		{FormatFAT16, 0xFFF8, true},
		{FormatFAT16, 0xFFFF, true},
		{FormatFAT32, 0xFFFF, false},
		{FormatFAT32, 0x0FFF_FFF7, false},
		{FormatFAT32, 0x0FFF_FFF8, true},
		{FormatFAT32, 0x0FFF_FFFF, true},
	}
	for _, tt := range tests {
		v := Volume{fstype: tt.format}
		if got := v.IsEOC(tt.value); got != tt.want {
			t.Errorf("%s IsEOC(%#x) = %v, want %v", tt.format, tt.value, got, tt.want)
		}
		if !v.IsEOC(v.eoc()) {
			t.Errorf("%s allocator end marker %#x is not EOC", tt.format, v.eoc())
		}
	}
	var unmounted Volume
	if unmounted.IsEOC(0xFFFF_FFFF) {
		t.Error("unmounted volume reported EOC")
	}
}

func TestNext(t *testing.T) {
	v, _ := newRawVolume(t, FormatFAT16, 100)
	// Chain 5 -> 9 -> 7 -> EOC.
	chain := map[uint32]uint32{5: 9, 9: 7, 7: 0xFFF8}
	for c, val := range chain {
		if err := v.SetEntry(c, val); err != nil {
			t.Fatal(err)
		}
	}
	var got []uint32
	c := uint32(5)
	for {
		got = append(got, c)
		next, eoc, err := v.Next(c)
		if err != nil {
			t.Fatal(err)
		} else if eoc {
			break
		}
		c = next
	}
	if diff := cmp.Diff([]uint32{5, 9, 7}, got); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}

	// Free, reserved and bad links are not chain members.
	for _, bad := range []uint32{0, 1, 101, 0xFFF7} {
		if err := v.SetEntry(20, bad); err != nil {
			t.Fatal(err)
		}
		if _, _, err := v.Next(20); !errors.Is(err, ErrInvalidCluster) {
			t.Errorf("link %#x: got %v, want ErrInvalidCluster", bad, err)
		}
	}
}
