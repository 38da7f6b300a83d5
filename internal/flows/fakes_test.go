package flows

import (
	"errors"
	"strings"
)

// fakeHasher stores "h:<secret>". Hashes prefixed "old:" verify and ask for
// an upgrade; hashes prefixed "alien:" are an unknown scheme.
type fakeHasher struct{}

func (fakeHasher) Hash(secret string) (string, error) {
	return "h:" + secret, nil
}

func (fakeHasher) Verify(secret, encoded string) (bool, string, error) {
	switch {
	case strings.HasPrefix(encoded, "alien:"):
		return false, "", errors.New("unknown hash format")
	case strings.HasPrefix(encoded, "old:"):
		if encoded == "old:"+secret {
			return true, "h:" + secret, nil
		}
		return false, "", nil
	default:
		return encoded == "h:"+secret, "", nil
	}
}

type stubAccess struct{ fail error }

func (s stubAccess) IssueAccess(accountID, sessionID, role string) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	return "access." + accountID + "." + sessionID + "." + role, nil
}
