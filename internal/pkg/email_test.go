package pkg

import (
	"strings"
	"testing"
)

func TestDecisionEmail(t *testing.T) {
	subject, body := DecisionEmail("<script>x</script>", "approved")
	if subject != "Your submission was approved" {
		t.Errorf("subject = %q", subject)
	}
	if strings.Contains(body, "<script>") {
		t.Error("title must be escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;x&lt;/script&gt;") {
		t.Errorf("body = %q", body)
	}
}

func TestSMTPConfigEnabled(t *testing.T) {
	if (SMTPConfig{}).Enabled() {
		t.Error("zero config must be disabled")
	}
	if !(SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"}).Enabled() {
		t.Error("host+from should enable")
	}
}
