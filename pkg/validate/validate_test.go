package validate

import "testing"

func TestPhone(t *testing.T) {
	valid := []string{"13812345678", "19900000000", "15012341234"}
	for _, p := range valid {
		if !Phone(p) {
			t.Errorf("expected %q to be a valid phone", p)
		}
	}

	invalid := []string{"", "12812345678", "1381234567", "138123456789", "a3812345678", "23812345678"}
	for _, p := range invalid {
		if Phone(p) {
			t.Errorf("expected %q to be rejected", p)
		}
	}
}

func TestIDCard(t *testing.T) {
	valid := []string{
		"110101199003071234",
		"44030120001231123X",
		"44030120001231123x",
		"310101185002159876",
	}
	for _, c := range valid {
		if !IDCard(c) {
			t.Errorf("expected %q to be a valid id card", c)
		}
	}

	invalid := []string{
		"",
		"11010119900307123",   // 17 chars
		"1101011990030712345", // 19 chars
		"110101199013071234",  // month 13
		"110101199003321234",  // day 32
		"110101170003071234",  // year 17xx
		"010101199003071234",  // region starts with 0
		"11010119900307123Y",  // bad check char
	}
	for _, c := range invalid {
		if IDCard(c) {
			t.Errorf("expected %q to be rejected", c)
		}
	}
}

func TestLooksLikePhone(t *testing.T) {
	if !LooksLikePhone("13812345678") {
		t.Error("digit string should look like a phone")
	}
	if LooksLikePhone("alice") || LooksLikePhone("alice123") || LooksLikePhone("") {
		t.Error("non-digit input must not look like a phone")
	}
}
