// Package central is the thin HTTP collaborator to the central account/auth
// service: the game server never authenticates users itself, it just asks
// central to verify the token a client presented at login, and tells
// central when it comes up so it can be listed to clients as available.
package central

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrTokenInvalid  = errors.New("central: token rejected")
	ErrCentralUnreachable = errors.New("central: request failed")
)

// Client talks to the central server's /gs/* endpoints, authenticating
// itself with a shared game-server password set out of band.
type Client struct {
	httpClient *http.Client
	baseURL    string
	password   string
}

func NewClient(baseURL, password string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		password:   password,
	}
}

type verifyTokenRequest struct {
	AccountID int32  `json:"account_id"`
	Token     string `json:"token"`
}

// VerifyTokenResponse is central's answer to a login token check: whether
// the token is valid, the resolved account identity, and the role/chat-mute
// state the game server must apply to this session for its whole lifetime.
type VerifyTokenResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	RoleBits uint32 `json:"role_bits"`
	NoChat   bool   `json:"no_chat"`
}

// VerifyToken asks central whether token belongs to accountID.
func (c *Client) VerifyToken(ctx context.Context, accountID int32, token string) (VerifyTokenResponse, error) {
	reqBody, err := json.Marshal(verifyTokenRequest{AccountID: accountID, Token: token})
	if err != nil {
		return VerifyTokenResponse{}, fmt.Errorf("central: marshal verify-token request: %w", err)
	}

	var resp VerifyTokenResponse
	if err := c.post(ctx, "/gs/verifytoken", reqBody, &resp); err != nil {
		return VerifyTokenResponse{}, err
	}
	if !resp.Valid {
		return VerifyTokenResponse{}, ErrTokenInvalid
	}
	return resp, nil
}

type bootRequest struct {
	TCPAddr string `json:"tcp_addr"`
	UDPAddr string `json:"udp_addr"`
}

// SpecialUser is a central-designated account with standing role bits (e.g.
// staff/moderator) shown to clients independent of any particular login.
type SpecialUser struct {
	Name     string `json:"name"`
	RoleBits uint32 `json:"role_bits"`
}

// BootData is central's response to this game server announcing itself:
// the protocol version central expects it to speak, the account ids
// currently chat-muted server-wide, and the roster of special users.
type BootData struct {
	Protocol     uint16              `json:"protocol"`
	NoChat       []int32             `json:"no_chat"`
	SpecialUsers map[int32]SpecialUser `json:"special_users"`
}

// Boot announces this game server instance to central at startup.
func (c *Client) Boot(ctx context.Context, tcpAddr, udpAddr string) (BootData, error) {
	reqBody, err := json.Marshal(bootRequest{TCPAddr: tcpAddr, UDPAddr: udpAddr})
	if err != nil {
		return BootData{}, fmt.Errorf("central: marshal boot request: %w", err)
	}
	var resp BootData
	if err := c.post(ctx, "/gs/boot", reqBody, &resp); err != nil {
		return BootData{}, err
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrCentralUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCentralUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: central returned status %d", ErrCentralUnreachable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
