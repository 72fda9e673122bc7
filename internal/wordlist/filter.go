package wordlist

import "strings"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for word lists.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	case "lisu":
		return filterLisu
	case "my":
		return filterMyanmar
	default:
		return func(string) bool { return true }
	}
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}

// filterLisu keeps Fraser letters and tone marks. Syllables may be joined by
// hyphens but a word never starts or ends with one.
func filterLisu(word string) bool {
	if word == "" || strings.HasPrefix(word, "-") || strings.HasSuffix(word, "-") || strings.Contains(word, "--") {
		return false
	}
	for _, r := range word {
		if r == '-' {
			continue
		}
		if r < 0xA4D0 || r > 0xA4FD {
			return false
		}
	}
	return true
}

// filterMyanmar keeps words from the Myanmar block, excluding digits and
// sentence punctuation.
func filterMyanmar(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if r < 0x1000 || r > 0x109F {
			return false
		}
		if (r >= 0x1040 && r <= 0x1049) || r == 0x104A || r == 0x104B {
			return false
		}
	}
	return true
}
