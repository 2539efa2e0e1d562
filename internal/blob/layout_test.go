package blob

import "testing"

func TestLayoutOffsetsAreStructurallyConsistent(t *testing.T) {
	if StandardMetadataOffset != int64(StandardHeaderLen) {
		t.Fatalf("StandardMetadataOffset should equal StandardHeaderLen")
	}
	if HiddenMetadataOffset != HiddenHeaderOffset+int64(HiddenHeaderLen) {
		t.Fatalf("HiddenMetadataOffset should immediately follow the hidden header")
	}
	if DataAreaStartOffset != HiddenMetadataOffset+(1<<20) {
		t.Fatalf("DataAreaStartOffset should reserve exactly 1 MiB after the hidden metadata offset")
	}
	if DataAreaStartOffset <= HiddenHeaderOffset {
		t.Fatalf("data area must start after the hidden header")
	}
}

func TestVolumeKindString(t *testing.T) {
	if Standard.String() != "standard" {
		t.Fatalf("unexpected Standard.String(): %q", Standard.String())
	}
	if Hidden.String() != "hidden" {
		t.Fatalf("unexpected Hidden.String(): %q", Hidden.String())
	}
}

func TestHeaderIsIndistinguishableFromPadding(t *testing.T) {
	path := tempBlobPath(t)
	if err := InitBlob(path, "standard-pw", "hidden-pw"); err != nil {
		t.Fatalf("InitBlob: %v", err)
	}
	f, err := reopenForWrite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	hiddenBuf := make([]byte, HiddenHeaderLen)
	if _, err := f.ReadAt(hiddenBuf, HiddenHeaderOffset); err != nil {
		t.Fatalf("read hidden header region: %v", err)
	}
	// The hidden header must not contain the standard magic anywhere in its
	// fixed-size region — it has no format marker of its own.
	for i := 0; i+len(Magic) <= len(hiddenBuf); i++ {
		if string(hiddenBuf[i:i+len(Magic)]) == Magic {
			t.Fatalf("hidden header region unexpectedly contains the standard magic")
		}
	}
}
