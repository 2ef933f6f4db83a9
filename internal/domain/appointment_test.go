package domain

import (
	"errors"
	"testing"
)

func TestAppointment_EncodeDecode(t *testing.T) {
	a := Appointment{Date: "2026-09-01", Time: "14:30", Place: "Hongdae exit 3"}

	content, err := a.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeAppointment(content)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != a {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", got, a)
	}
}

func TestAppointment_Validate_MissingFields(t *testing.T) {
	cases := []Appointment{
		{Time: "14:30", Place: "cafe"},
		{Date: "2026-09-01", Place: "cafe"},
		{Date: "2026-09-01", Time: "14:30"},
		{Date: "   ", Time: "14:30", Place: "cafe"},
	}
	for i, a := range cases {
		if err := a.Normalize().Validate(); !errors.Is(err, ErrInvalidAppointment) {
			t.Fatalf("case %d: expected ErrInvalidAppointment, got %v", i, err)
		}
	}
}

func TestAppointment_Normalize_TrimsSpaces(t *testing.T) {
	a := Appointment{Date: " 2026-09-01 ", Time: "\t14:30", Place: "cafe \n"}
	n := a.Normalize()
	if n.Date != "2026-09-01" || n.Time != "14:30" || n.Place != "cafe" {
		t.Fatalf("normalize failed: %+v", n)
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("normalized appointment should be valid: %v", err)
	}
}

func TestDecodeAppointment_BadJSON(t *testing.T) {
	if _, err := DecodeAppointment("see you at 5"); err == nil {
		t.Fatalf("expected error for non-JSON content")
	}
}

func TestNormalizeMessageType(t *testing.T) {
	if NormalizeMessageType("image") != MessageImage {
		t.Fatalf("image not recognized")
	}
	if NormalizeMessageType("appointment") != MessageAppointment {
		t.Fatalf("appointment not recognized")
	}
	// неизвестный тип приводится к text
	if NormalizeMessageType("sticker") != MessageText {
		t.Fatalf("unknown type must fall back to text")
	}
	if NormalizeMessageType("") != MessageText {
		t.Fatalf("empty type must fall back to text")
	}
}
