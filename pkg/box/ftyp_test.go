package box

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
	"m7s.live/probe/pkg"
)

func TestFtypOrderPreserving(t *testing.T) {
	brands := []string{"mp42", "isom", "iso2", "avc1", "mp41", "dash"}
	encoded := encodeMp4ff(t, mp4.NewFtyp("isom", 512, brands))
	payload := encoded[BasicBoxLen:]

	b, err := Decode(payload, TypeFTYP)
	if err != nil {
		t.Fatal(err)
	}
	ftyp := b.(*FileTypeBox)
	if ftyp.MajorBrand.String() != "isom" || ftyp.MinorVersion != 512 {
		t.Fatalf("major %s minor %d", ftyp.MajorBrand, ftyp.MinorVersion)
	}
	if len(ftyp.CompatibleBrands) != len(brands) {
		t.Fatalf("got %d brands, want %d", len(ftyp.CompatibleBrands), len(brands))
	}
	reencoded := append([]byte{}, payload[:8]...)
	for i, brand := range ftyp.CompatibleBrands {
		if brand.String() != brands[i] {
			t.Errorf("brand %d = %s, want %s", i, brand, brands[i])
		}
		reencoded = append(reencoded, brand[:]...)
	}
	if !bytes.Equal(reencoded, payload) {
		t.Fatalf("re-encoded payload % x, want % x", reencoded, payload)
	}
	if !ftyp.HasBrand(f("dash")) || ftyp.HasBrand(f("qt  ")) {
		t.Error("HasBrand mismatch")
	}
}

func TestFtypNoCompatibleBrands(t *testing.T) {
	b, err := Decode([]byte("M4A \x00\x00\x00\x01"), TypeFTYP)
	if err != nil {
		t.Fatal(err)
	}
	ftyp := b.(*FileTypeBox)
	if ftyp.MinorVersion != 1 || len(ftyp.CompatibleBrands) != 0 || ftyp.BoxType() != TypeFTYP {
		t.Fatalf("unexpected %+v", ftyp)
	}
}

func TestStypSharesLayout(t *testing.T) {
	b, err := Decode([]byte("msdh\x00\x00\x00\x00msdhmsix"), TypeSTYP)
	if err != nil {
		t.Fatal(err)
	}
	if b.BoxType() != TypeSTYP || len(b.(*FileTypeBox).CompatibleBrands) != 2 {
		t.Fatalf("unexpected %+v", b)
	}
}

func TestFtypMalformed(t *testing.T) {
	for _, n := range []int{0, 7, 10, 13} {
		if _, err := Decode(make([]byte, n), TypeFTYP); !errors.Is(err, pkg.ErrMalformedBox) {
			t.Errorf("len %d: err = %v, want ErrMalformedBox", n, err)
		}
	}
}
