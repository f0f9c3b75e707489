package llm

import (
	"fmt"
	"strings"

	"github.com/openclaw/picoclaw/types"
)

// Credential is a parsed "<provider>:<secret>" token.
type Credential struct {
	Provider types.ProviderKind
	Secret   string
}

// ParseCredential parses a credential token. A bare secret with no provider
// prefix defaults to anthropic.
func ParseCredential(token string) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, fmt.Errorf("credential is empty")
	}

	kind := types.ProviderAnthropic
	secret := token
	if i := strings.Index(token, ":"); i >= 0 {
		kind = types.ProviderKind(token[:i])
		secret = token[i+1:]
		if !kind.Valid() {
			return Credential{}, fmt.Errorf("unknown provider %q in credential", string(kind))
		}
	}

	if strings.TrimSpace(secret) == "" {
		return Credential{}, fmt.Errorf("credential for %s has empty secret", kind)
	}
	return Credential{Provider: kind, Secret: secret}, nil
}
