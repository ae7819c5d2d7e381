package player

import (
	"testing"
	"time"
)

func TestParseLicenseInfo(t *testing.T) {
	t.Parallel()

	lic, err := ParseLicenseInfo("A-licens Senior (2024.07.01)")
	if err != nil {
		t.Fatalf("ParseLicenseInfo error: %v", err)
	}
	if lic.Type != "A-licens" || lic.AgeGroup != "Senior" {
		t.Fatalf("unexpected license: %+v", lic)
	}
	want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if lic.ValidFrom == nil || !lic.ValidFrom.Equal(want) {
		t.Fatalf("valid from = %v, want %v", lic.ValidFrom, want)
	}
}

func TestParseLicenseInfoOptionalParts(t *testing.T) {
	t.Parallel()

	lic, err := ParseLicenseInfo("48-timmarslicens ()")
	if err != nil {
		t.Fatalf("ParseLicenseInfo error: %v", err)
	}
	if lic.Type != "48-timmarslicens" || lic.AgeGroup != "" || lic.ValidFrom != nil {
		t.Fatalf("unexpected license: %+v", lic)
	}

	lic, err = ParseLicenseInfo("Paralicens (2023.12.24)")
	if err != nil {
		t.Fatalf("ParseLicenseInfo error: %v", err)
	}
	if lic.Type != "Paralicens" || lic.ValidFrom == nil {
		t.Fatalf("unexpected license: %+v", lic)
	}

	lic, err = ParseLicenseInfo("  D-licens Pensionär (2025.01.02)  ")
	if err != nil {
		t.Fatalf("ParseLicenseInfo error: %v", err)
	}
	if lic.Type != "D-licens" || lic.AgeGroup != "Pensionär" {
		t.Fatalf("unexpected license: %+v", lic)
	}
}

func TestParseLicenseInfoRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"E-licens (2024.07.01)",
		"A-licens 2024.07.01",
		"A-licens (24.07.01)",
		"something else entirely",
	} {
		if _, err := ParseLicenseInfo(raw); err == nil {
			t.Errorf("ParseLicenseInfo(%q) succeeded, want error", raw)
		}
	}
}

func TestIdentityKey(t *testing.T) {
	t.Parallel()

	club := int64(42)
	a := Player{FullnameKey: "nils lennebratt", ClubID: &club}
	b := Player{FullnameKey: "nils lennebratt"}
	if a.IdentityKey() == b.IdentityKey() {
		t.Fatal("club must be part of the identity key")
	}
	if a.IdentityKey() != IdentityKey("nils lennebratt", &club) {
		t.Fatal("method and function must agree")
	}
}
