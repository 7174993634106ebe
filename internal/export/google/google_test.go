package google

import (
	"context"
	"strings"
	"testing"

	"hamsterwallet/internal/config"
)

func TestNewRequiresSpreadsheetID(t *testing.T) {
	cfg := &config.Config{GoogleServiceAccountJSON: "{}"}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("missing spreadsheet id accepted")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	cfg := &config.Config{GoogleSpreadsheetID: "sheet-id", GoogleSheetName: "Export"}
	_, err := New(context.Background(), cfg)
	if err == nil {
		t.Fatal("missing credentials accepted")
	}
	if !strings.Contains(err.Error(), "service account credentials") {
		t.Errorf("err = %v", err)
	}
}

func TestCredentialsPreferInlineJSON(t *testing.T) {
	cfg := &config.Config{
		GoogleServiceAccountJSON: `{"type":"service_account"}`,
		GoogleServiceAccountFile: "/nonexistent/key.json",
	}
	raw, err := credentials(cfg)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if string(raw) != `{"type":"service_account"}` {
		t.Errorf("credentials = %s", raw)
	}
}

func TestCredentialsReadFileErrors(t *testing.T) {
	cfg := &config.Config{GoogleServiceAccountFile: "/nonexistent/key.json"}
	if _, err := credentials(cfg); err == nil {
		t.Fatal("unreadable key file accepted")
	}
}
