package detector

import (
	"testing"
)

func TestDetector_DetectISO(t *testing.T) {
	d := Shared()

	tests := []struct {
		name     string
		text     string
		wantCode string
		wantOK   bool
	}{
		{
			name:   "empty text",
			text:   "",
			wantOK: false,
		},
		{
			name:   "whitespace only",
			text:   "   \n\t",
			wantOK: false,
		},
		{
			name:     "english text",
			text:     "Hello, this is a test in English.",
			wantCode: "EN",
			wantOK:   true,
		},
		{
			name:     "french text",
			text:     "Bonjour, ceci est un test en français.",
			wantCode: "FR",
			wantOK:   true,
		},
		{
			name:     "quebec french text",
			text:     "Bonne fin de semaine! On se voit au dépanneur après le souper.",
			wantCode: "FR",
			wantOK:   true,
		},
		{
			name:     "german text",
			text:     "Hallo, das ist ein Test auf Deutsch.",
			wantCode: "DE",
			wantOK:   true,
		},
		{
			name:     "spanish text",
			text:     "Hola, esto es una prueba en español.",
			wantCode: "ES",
			wantOK:   true,
		},
		{
			name:     "ukrainian text",
			text:     "Привіт, це тест українською мовою.",
			wantCode: "UK",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := d.DetectISO(tt.text)
			if ok != tt.wantOK {
				t.Errorf("DetectISO(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if tt.wantOK && code != tt.wantCode {
				t.Errorf("DetectISO(%q) = %q, want %q", tt.text, code, tt.wantCode)
			}
		})
	}
}

func TestDetector_Inspect(t *testing.T) {
	det, ok := Shared().Inspect("Le rapport trimestriel montre une croissance des revenus de dix pour cent.")
	if !ok {
		t.Fatal("expected a detection")
	}
	if det.ISO != "FR" || det.Name != "French" {
		t.Errorf("got %+v, want French", det)
	}
	if det.Confidence <= 0 || det.Confidence > 1 {
		t.Errorf("confidence %v outside (0, 1]", det.Confidence)
	}
}

func TestShared_ReturnsSameInstance(t *testing.T) {
	if Shared() != Shared() {
		t.Error("Shared must return one detector per process")
	}
}
