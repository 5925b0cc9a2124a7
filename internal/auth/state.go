package auth

import (
	"encoding/base64"
	"encoding/json"

	"rebeat_backend/internal/platform/crypto"
)

const stateNonceLength = 16

// OAuthState is the payload round-tripped through the provider's `state`
// parameter. When a session token is present the state is the base64url
// encoding of this struct as JSON; otherwise it is the bare nonce.
type OAuthState struct {
	Nonce string `json:"nonce"`
	Token string `json:"token,omitempty"`
}

// EncodeState builds a state value for the authorization redirect. The
// session token, when given, is carried inside so the callback can link the
// new provider identity to the caller's existing account.
func EncodeState(sessionToken string) (string, error) {
	nonce, err := crypto.GenerateNonce(stateNonceLength)
	if err != nil {
		return "", err
	}
	if sessionToken == "" {
		return nonce, nil
	}
	payload, err := json.Marshal(OAuthState{Nonce: nonce, Token: sessionToken})
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(payload), nil
}

// DecodeState recovers the payload from a state value. Decoding is best
// effort: anything that is not valid base64url JSON is treated as a bare
// nonce from a login started without a session.
func DecodeState(state string) OAuthState {
	raw, err := base64.URLEncoding.DecodeString(state)
	if err != nil {
		return OAuthState{Nonce: state}
	}
	var decoded OAuthState
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.Nonce == "" {
		return OAuthState{Nonce: state}
	}
	return decoded
}
