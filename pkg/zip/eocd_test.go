package zip

import (
	"bytes"
	"errors"
	"testing"

	"m7s.live/probe/pkg"
)

func TestLocateEOCDCommentLength(t *testing.T) {
	prefix := []byte("local headers and data")
	for _, n := range []int{0, 1, MaxCommentLen} {
		comment := bytes.Repeat([]byte{'c'}, n)
		buf := append(append([]byte{}, prefix...), makeEOCD(3, 7, 11, comment)...)
		eocd, err := LocateEOCD(buf)
		if err != nil {
			t.Fatalf("comment %d: %v", n, err)
		}
		if int(eocd.CommentLength) != n || len(eocd.Comment) != n {
			t.Errorf("comment %d: got length %d, %d bytes", n, eocd.CommentLength, len(eocd.Comment))
		}
		if n == 0 && eocd.Comment != nil {
			t.Error("empty comment is not nil")
		}
		if eocd.RecordOffset != int64(len(prefix)) || eocd.TotalDiskEntries != 3 || eocd.Size != 7 || eocd.Offset != 11 {
			t.Errorf("comment %d: %+v", n, eocd)
		}
	}
}

func TestLocateEOCDTooShort(t *testing.T) {
	for _, buf := range [][]byte{nil, make([]byte, EOCDLen-1)} {
		if _, err := LocateEOCD(buf); !errors.Is(err, pkg.ErrTooShort) {
			t.Fatalf("%d bytes: err = %v", len(buf), err)
		}
	}
}

func TestLocateEOCDSignatureInComment(t *testing.T) {
	comment := append([]byte("xx\x50\x4b\x05\x06"), bytes.Repeat([]byte{'y'}, 30)...)
	buf := append([]byte("data"), makeEOCD(0, 0, 0, comment)...)
	eocd, err := LocateEOCD(buf)
	if err != nil {
		t.Fatal(err)
	}
	if eocd.RecordOffset != 4 || !bytes.Equal(eocd.Comment, comment) {
		t.Fatalf("selected record at %d with comment %q", eocd.RecordOffset, eocd.Comment)
	}
}

func TestLocateEOCDNotFound(t *testing.T) {
	inconsistent := makeEOCD(0, 0, 0, []byte("abcde"))
	cases := map[string][]byte{
		"zeros":             make([]byte, 100),
		"comment cut short": inconsistent[:len(inconsistent)-2],
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LocateEOCD(buf); !errors.Is(err, pkg.ErrEOCDNotFound) {
				t.Fatalf("err = %v, want ErrEOCDNotFound", err)
			}
		})
	}
}

func TestLocateEOCDMaxComment(t *testing.T) {
	buf := makeEOCD(0, 0, 0, make([]byte, 20))
	if _, err := locateEOCD(buf, 10); !errors.Is(err, pkg.ErrEOCDNotFound) {
		t.Fatalf("err = %v, want ErrEOCDNotFound", err)
	}
	if _, err := locateEOCD(buf, 20); err != nil {
		t.Fatal(err)
	}
	if _, err := locateEOCD(buf, 0); err != nil {
		t.Fatal(err)
	}
}

func TestParseEOCD(t *testing.T) {
	badSig := makeEOCD(0, 0, 0, nil)
	badSig[0] = 0x51
	cases := []struct {
		name   string
		record []byte
		want   error
	}{
		{"short", make([]byte, EOCDLen-1), pkg.ErrTooShort},
		{"long", makeEOCD(0, 0, 0, make([]byte, MaxCommentLen+1)), pkg.ErrTooLong},
		{"signature", badSig, pkg.ErrInvalidSignature},
		{"trailing bytes", append(makeEOCD(0, 0, 0, []byte("ab")), 'c'), pkg.ErrInvalidSignature},
		{"missing comment", makeEOCD(0, 0, 0, []byte("ab"))[:EOCDLen+1], pkg.ErrInvalidSignature},
		{"ok", makeEOCD(1, 46, 0, []byte("ab")), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEOCD(tc.record)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCentralDirectoryRegion(t *testing.T) {
	cd := makeCDH(cdFields{name: []byte("a")})
	buf := append(append([]byte("PK"), cd...), makeEOCD(1, uint32(len(cd)), 2, nil)...)
	eocd, err := LocateEOCD(buf)
	if err != nil {
		t.Fatal(err)
	}
	region, err := eocd.CentralDirectory(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(region, cd) || cap(region) != len(cd) {
		t.Fatalf("region = %x", region)
	}

	eocd.Size++
	if _, err = eocd.CentralDirectory(buf); !errors.Is(err, pkg.ErrInvalidCentralDir) {
		t.Fatalf("overlapping region err = %v", err)
	}
	eocd.Offset = uint32(len(buf))
	if _, err = eocd.CentralDirectory(buf); !errors.Is(err, pkg.ErrInvalidCentralDir) {
		t.Fatalf("out of range err = %v", err)
	}
}
