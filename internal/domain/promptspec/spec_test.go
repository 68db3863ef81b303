package promptspec

import "testing"

func TestSpecNormalizeDefaults(t *testing.T) {
	s := &Spec{}
	s.Normalize()

	if s.Version != DefaultVersion {
		t.Fatalf("Version = %q, want %q", s.Version, DefaultVersion)
	}
	if s.AspectRatio != DefaultAspectRatio {
		t.Fatalf("AspectRatio = %q, want %q", s.AspectRatio, DefaultAspectRatio)
	}
	if s.Quantity != DefaultQuantity {
		t.Fatalf("Quantity = %d, want %d", s.Quantity, DefaultQuantity)
	}
	if s.Extras.Locale != DefaultExtrasLocale {
		t.Fatalf("Extras.Locale = %q, want %q", s.Extras.Locale, DefaultExtrasLocale)
	}
	if s.Extras.Quality != DefaultExtrasQuality {
		t.Fatalf("Extras.Quality = %q, want %q", s.Extras.Quality, DefaultExtrasQuality)
	}
}

func TestSpecNormalizeClampsQuantity(t *testing.T) {
	s := &Spec{Quantity: 10, AspectRatio: "16:9"}
	s.Normalize()

	if s.Quantity != MaxQuantity {
		t.Fatalf("Quantity clamp = %d, want %d", s.Quantity, MaxQuantity)
	}
	if s.AspectRatio != "16:9" {
		t.Fatalf("AspectRatio should keep explicit value, got %q", s.AspectRatio)
	}
}

func TestSpecValidate(t *testing.T) {
	s := Spec{Subject: "a lighthouse at dusk"}
	s.Normalize()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	empty := Spec{}
	empty.Normalize()
	if err := empty.Validate(); err == nil {
		t.Fatal("expected error for missing subject")
	}

	bad := Spec{Subject: "x", Quantity: 1, AspectRatio: "2:1"}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unsupported aspect ratio")
	}
}

func TestSpecSummary(t *testing.T) {
	s := Spec{Subject: "red fox", Style: "watercolor", Mood: "serene"}
	got := s.Summary()
	want := "red fox, style: watercolor, mood: serene"
	if got != want {
		t.Fatalf("Summary = %q, want %q", got, want)
	}
}
