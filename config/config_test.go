package config

import (
	"testing"
)

func TestValidateAuth(t *testing.T) {
	tests := []struct {
		name    string
		auth    AuthConfig
		wantErr bool
	}{
		{
			name:    "username and password",
			auth:    AuthConfig{Username: "user", Password: "secret"},
			wantErr: false,
		},
		{
			name:    "session id only",
			auth:    AuthConfig{SessionID: "abc-123"},
			wantErr: false,
		},
		{
			name:    "username without password",
			auth:    AuthConfig{Username: "user"},
			wantErr: true,
		},
		{
			name:    "nothing set",
			auth:    AuthConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				School: "example",
				Auth:   tt.auth,
				Logging: LoggingConfig{
					Level:  "info",
					Format: "console",
				},
			}

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSchoolRequired(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{Username: "user", Password: "secret"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}

	if err := validate(cfg); err == nil {
		t.Error("validate() expected error for missing school, got nil")
	}
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"valid console", "info", "console", false},
		{"valid json", "debug", "json", false},
		{"invalid level", "verbose", "console", true},
		{"invalid format", "info", "pretty", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				School: "example",
				Auth:   AuthConfig{SessionID: "abc-123"},
				Logging: LoggingConfig{
					Level:  tt.level,
					Format: tt.format,
				},
			}

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
