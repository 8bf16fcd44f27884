package ws

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
)

type ConnectParams struct {
	Client *ConnectClient `json:"client"`
	Auth   *ConnectAuth   `json:"auth"`
	Nonce  string         `json:"nonce"`
}

type ConnectClient struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Version     string `json:"version"`
}

type ConnectAuth struct {
	Token string `json:"token"`
}

// VerifyConnect validates the connect handshake and returns the client ID.
// An empty token disables the token check; the nonce must always match.
func VerifyConnect(paramsRaw json.RawMessage, challengeNonce, token string) (clientID string, displayName string, err error) {
	var params ConnectParams
	if err := json.Unmarshal(paramsRaw, &params); err != nil {
		return "", "", fmt.Errorf("invalid connect params: %w", err)
	}

	if params.Nonce == "" || params.Nonce != challengeNonce {
		return "", "", fmt.Errorf("nonce mismatch")
	}

	if token != "" {
		got := ""
		if params.Auth != nil {
			got = params.Auth.Token
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return "", "", fmt.Errorf("invalid token")
		}
	}

	clientID = "classifier"
	if params.Client != nil {
		if params.Client.ID != "" {
			clientID = params.Client.ID
		}
		displayName = params.Client.DisplayName
	}
	return clientID, displayName, nil
}
