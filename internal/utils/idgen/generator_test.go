package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerateSecureID(t *testing.T) {
	id, err := GenerateSecureID("conv", 24)
	if err != nil {
		t.Fatalf("GenerateSecureID() error: %v", err)
	}
	if !strings.HasPrefix(id, "conv_") {
		t.Errorf("id = %q, want conv_ prefix", id)
	}
	if len(id) != len("conv_")+24 {
		t.Errorf("id length = %d", len(id))
	}

	pattern := regexp.MustCompile(`^conv_[0-9a-z]{24}$`)
	if !pattern.MatchString(id) {
		t.Errorf("id %q contains characters outside [0-9a-z]", id)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewMessageID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d draws: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestPrefixes(t *testing.T) {
	if !strings.HasPrefix(NewConversationID(), "conv_") {
		t.Error("conversation ids use the conv_ prefix")
	}
	if !strings.HasPrefix(NewMessageID(), "msg_") {
		t.Error("message ids use the msg_ prefix")
	}
}
