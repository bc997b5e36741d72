package services

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestValidRespondentEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last+tag@sub.domain.io"}
	invalid := []string{"", "plain", "a b@c.d", "x@y", "@domain.com"}
	for _, e := range valid {
		if !ValidRespondentEmail(e) {
			t.Errorf("ValidRespondentEmail(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if ValidRespondentEmail(e) {
			t.Errorf("ValidRespondentEmail(%q) = true, want false", e)
		}
	}
}

func TestPartitionEmails(t *testing.T) {
	valid, invalid := PartitionEmails([]string{
		" ok@host.example ", "bad", "", "second@host.example", "nope@",
	})
	if want := []string{"ok@host.example", "second@host.example"}; !reflect.DeepEqual(valid, want) {
		t.Fatalf("valid = %v, want %v", valid, want)
	}
	if want := []string{"bad", "nope@"}; !reflect.DeepEqual(invalid, want) {
		t.Fatalf("invalid = %v, want %v", invalid, want)
	}
}

func TestComposeInviteEmail(t *testing.T) {
	sv := &Survey{Title: "Team health", Description: "Five short questions."}
	subject, body := ComposeInviteEmail(sv, "http://localhost:3000/s/sv-1", "See you there!", "Ana Reyes", "Research")
	if subject != "You're invited to participate in: Team health" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{
		`"Team health"`,
		"Five short questions.",
		"See you there!",
		"http://localhost:3000/s/sv-1",
		"Ana Reyes",
		"Research",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestComposeInviteEmailDefaultSender(t *testing.T) {
	sv := &Survey{Title: "Team health"}
	_, body := ComposeInviteEmail(sv, "http://x", "", "", "")
	if !strings.Contains(body, "Survey Team") {
		t.Fatal("body missing default sender name")
	}
}

func TestComposeConfirmationEmail(t *testing.T) {
	at := time.Date(2026, 2, 1, 15, 4, 0, 0, time.UTC)
	subject, body := ComposeConfirmationEmail("Sam Vee", "Team health", "resp-1",
		"http://localhost:3000/survey/submission/resp-1/view", at)
	if subject != "Thank you for completing: Team health" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{
		"Hello Sam Vee,",
		"Response ID: resp-1",
		"February 1, 2026 at 3:04 PM",
		"http://localhost:3000/survey/submission/resp-1/view",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}
