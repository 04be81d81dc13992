package service

import "testing"

// TestJWKSHealthPath проверяет выбор пути проверки провайдера OIDC.
func TestJWKSHealthPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "JWKS realm",
			input:    "https://sso.example.org/realms/salud-ocupacional/protocol/openid-connect/certs",
			expected: "/realms/salud-ocupacional/protocol/openid-connect/certs",
		},
		{
			name:     "без path",
			input:    "https://sso.example.org",
			expected: "/health",
		},
		{
			name:     "пустая строка",
			input:    "",
			expected: "/health",
		},
		{
			name:     "некорректный URL",
			input:    "://bad",
			expected: "/health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jwksHealthPath(tt.input); got != tt.expected {
				t.Errorf("jwksHealthPath(%q) = %q, ожидалось %q", tt.input, got, tt.expected)
			}
		})
	}
}
