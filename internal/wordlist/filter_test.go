package wordlist

import "testing"

func TestFilterEnglishASCII(t *testing.T) {
	filter := FilterForLang("en")
	if !filter("hello") {
		t.Fatalf("expected hello to pass english filter")
	}
	for _, word := range []string{"résumé", "naïve", "don’t", "co-op"} {
		if filter(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestFilterLisu(t *testing.T) {
	filter := FilterForLang("lisu")
	for _, word := range []string{"ꓡꓲ-ꓢꓴ", "ꓟꓬꓽ"} {
		if !filter(word) {
			t.Fatalf("expected %q to pass lisu filter", word)
		}
	}
	for _, word := range []string{"lisu", "-ꓡꓲ", "ꓡꓲ-", "ꓡꓲ--ꓢꓴ", "ꓡꓲ꓿"} {
		if filter(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestFilterMyanmar(t *testing.T) {
	filter := FilterForLang("my")
	if !filter("မြန်မာ") {
		t.Fatalf("expected မြန်မာ to pass myanmar filter")
	}
	for _, word := range []string{"", "၁၂", "စာ။", "cat"} {
		if filter(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}
