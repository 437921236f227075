package gameserver

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GlobedGD/globed2-sub001/internal/codec"
	"github.com/GlobedGD/globed2-sub001/internal/crypto"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
)

// testClient drives one raw TCP connection through the version probe,
// crypto handshake and login, the way a real client would, so the scenario
// tests exercise the same bytes a real client sends rather than calling
// internal methods directly.
type testClient struct {
	t    *testing.T
	conn net.Conn
	keys *crypto.SessionKeys
}

func dialTestClient(t *testing.T, addr net.Addr) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return &testClient{t: t, conn: conn}
}

func (c *testClient) sendVersion(version uint16) {
	c.t.Helper()
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], version)
	if _, err := c.conn.Write(buf[:]); err != nil {
		c.t.Fatalf("write version: %v", err)
	}
}

func (c *testClient) handshake() {
	c.t.Helper()
	c.sendVersion(protocol.CurrentProtocol)

	clientKP, err := crypto.GenerateKeyPair()
	if err != nil {
		c.t.Fatalf("generate client keypair: %v", err)
	}

	start := protocol.CryptoHandshakeStartPacket{Data: protocol.HandshakeData{PublicKey: clientKP.PublicKey}}
	e := codec.NewEncoder(start.Size())
	start.Encode(e)
	if err := writeFrame(c.conn, codec.Header{PacketID: protocol.CryptoHandshakeStartID}, e.Bytes()); err != nil {
		c.t.Fatalf("write handshake start: %v", err)
	}

	header, payload, err := readFrame(c.conn)
	if err != nil {
		c.t.Fatalf("read handshake response: %v", err)
	}
	if header.PacketID != protocol.CryptoHandshakeResponseID {
		c.t.Fatalf("expected handshake response, got id %d", header.PacketID)
	}
	resp, err := protocol.DecodeCryptoHandshakeResponsePacket(codec.NewDecoder(payload))
	if err != nil {
		c.t.Fatalf("decode handshake response: %v", err)
	}

	shared, err := crypto.ComputeSharedSecret(clientKP.PrivateKey, resp.Data.PublicKey)
	if err != nil {
		c.t.Fatalf("compute shared secret: %v", err)
	}
	keys, err := crypto.DeriveSessionKeys(shared, true)
	if err != nil {
		c.t.Fatalf("derive session keys: %v", err)
	}
	c.keys = keys
}

func (c *testClient) sendEncrypted(header codec.Header, plaintext []byte) {
	c.t.Helper()
	aad := headerAAD(header)
	ciphertext := c.keys.Encrypt(plaintext, aad)
	if err := writeFrame(c.conn, header, ciphertext); err != nil {
		c.t.Fatalf("write encrypted frame: %v", err)
	}
}

func (c *testClient) readEncrypted() (codec.Header, []byte) {
	c.t.Helper()
	header, payload, err := readFrame(c.conn)
	if err != nil {
		c.t.Fatalf("read frame: %v", err)
	}
	if !header.Encrypted {
		return header, payload
	}
	plaintext, err := c.keys.Decrypt(payload, headerAAD(header))
	if err != nil {
		c.t.Fatalf("decrypt frame: %v", err)
	}
	return header, plaintext
}

func (c *testClient) login(accountID int32, username, token string) protocol.LoginSuccessPacket {
	c.t.Helper()
	login := protocol.LoginPacket{AccountID: accountID, Username: username, Token: token}
	e := codec.NewEncoder(login.Size())
	login.Encode(e)
	c.sendEncrypted(codec.Header{PacketID: protocol.LoginPacketID, Encrypted: true}, e.Bytes())

	header, payload := c.readEncrypted()
	if header.PacketID != protocol.LoginSuccessPacketID {
		c.t.Fatalf("expected login success, got id %d", header.PacketID)
	}
	resp, err := protocol.DecodeLoginSuccessPacket(codec.NewDecoder(payload))
	if err != nil {
		c.t.Fatalf("decode login success: %v", err)
	}
	return resp
}

func startTestServer(t *testing.T) *Server {
	t.Helper()

	central := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gs/boot":
			_ = json.NewEncoder(w).Encode(map[string]any{"protocol": protocol.CurrentProtocol})
		case "/gs/verifytoken":
			var req struct {
				AccountID int32  `json:"account_id"`
				Token     string `json:"token"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			admin := req.Token == "admin-token"
			_ = json.NewEncoder(w).Encode(map[string]any{
				"valid": req.Token != "bad-token", "username": "tester", "admin": admin,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(central.Close)

	srv := New(Config{
		TCPAddr:         "127.0.0.1:0",
		UDPAddr:         "127.0.0.1:0",
		CentralURL:      central.URL,
		CentralPassword: "test-password",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.ListenAndServe(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}
	return srv
}

func TestHandshakeAndLoginSucceeds(t *testing.T) {
	srv := startTestServer(t)
	client := dialTestClient(t, srv.TCPAddr())
	defer client.conn.Close()

	client.handshake()
	resp := client.login(1001, "tester", "good-token")
	if resp.AccountID != 1001 {
		t.Fatalf("expected account id 1001, got %d", resp.AccountID)
	}
	if resp.Admin {
		t.Fatal("expected non-admin login")
	}
}

func TestLoginFailsWithBadToken(t *testing.T) {
	srv := startTestServer(t)
	client := dialTestClient(t, srv.TCPAddr())
	defer client.conn.Close()

	client.handshake()
	login := protocol.LoginPacket{AccountID: 1002, Username: "tester", Token: "bad-token"}
	e := codec.NewEncoder(login.Size())
	login.Encode(e)
	client.sendEncrypted(codec.Header{PacketID: protocol.LoginPacketID, Encrypted: true}, e.Bytes())

	header, payload := client.readEncrypted()
	if header.PacketID != protocol.LoginFailedPacketID {
		t.Fatalf("expected login failed, got id %d", header.PacketID)
	}
	if _, err := protocol.DecodeLoginFailedPacket(codec.NewDecoder(payload)); err != nil {
		t.Fatalf("decode login failed: %v", err)
	}
}

func TestTooOldProtocolIsRefusedWithDisconnect(t *testing.T) {
	srv := startTestServer(t)
	client := dialTestClient(t, srv.TCPAddr())
	defer client.conn.Close()

	client.sendVersion(7)

	header, payload, err := readFrame(client.conn)
	if err != nil {
		t.Fatalf("read disconnect frame: %v", err)
	}
	if header.PacketID != protocol.ServerDisconnectPacketID {
		t.Fatalf("expected server disconnect packet, got id %d", header.PacketID)
	}
	disc, err := protocol.DecodeServerDisconnectPacket(codec.NewDecoder(payload))
	if err != nil {
		t.Fatalf("decode server disconnect: %v", err)
	}
	if !strings.Contains(disc.Reason, "too old") {
		t.Fatalf("expected a too-old reason, got %q", disc.Reason)
	}
}

func TestTooNewProtocolIsRefusedWithDisconnect(t *testing.T) {
	srv := startTestServer(t)
	client := dialTestClient(t, srv.TCPAddr())
	defer client.conn.Close()

	client.sendVersion(protocol.MaxSupportedVersion + 1)

	header, payload, err := readFrame(client.conn)
	if err != nil {
		t.Fatalf("read disconnect frame: %v", err)
	}
	if header.PacketID != protocol.ServerDisconnectPacketID {
		t.Fatalf("expected server disconnect packet, got id %d", header.PacketID)
	}
	disc, err := protocol.DecodeServerDisconnectPacket(codec.NewDecoder(payload))
	if err != nil {
		t.Fatalf("decode server disconnect: %v", err)
	}
	if !strings.Contains(disc.Reason, "too new") {
		t.Fatalf("expected a too-new reason, got %q", disc.Reason)
	}
}

func TestLevelJoinRegistersBothPlayers(t *testing.T) {
	srv := startTestServer(t)

	a := dialTestClient(t, srv.TCPAddr())
	defer a.conn.Close()
	a.handshake()
	a.login(2001, "alice", "good-token")

	b := dialTestClient(t, srv.TCPAddr())
	defer b.conn.Close()
	b.handshake()
	b.login(2002, "bob", "good-token")

	join := protocol.LevelJoinPacket{LevelID: 42}
	e := codec.NewEncoder(join.Size())
	join.Encode(e)
	a.sendEncrypted(codec.Header{PacketID: protocol.LevelJoinPacketID, Encrypted: true}, e.Bytes())
	e = codec.NewEncoder(join.Size())
	join.Encode(e)
	b.sendEncrypted(codec.Header{PacketID: protocol.LevelJoinPacketID, Encrypted: true}, e.Bytes())

	time.Sleep(50 * time.Millisecond)

	if n := srv.levels.CountOn(42); n != 2 {
		t.Fatalf("expected 2 players on level 42, got %d", n)
	}
}

func TestRoomCreateAndJoin(t *testing.T) {
	srv := startTestServer(t)

	owner := dialTestClient(t, srv.TCPAddr())
	defer owner.conn.Close()
	owner.handshake()
	owner.login(3001, "owner", "good-token")

	create := protocol.CreateRoomPacket{}
	e := codec.NewEncoder(create.Size())
	create.Encode(e)
	owner.sendEncrypted(codec.Header{PacketID: protocol.CreateRoomPacketID, Encrypted: true}, e.Bytes())

	header, payload := owner.readEncrypted()
	if header.PacketID != protocol.RoomCreatedPacketID {
		t.Fatalf("expected room created, got id %d", header.PacketID)
	}
	created, err := protocol.DecodeRoomCreatedPacket(codec.NewDecoder(payload))
	if err != nil {
		t.Fatalf("decode room created: %v", err)
	}

	joiner := dialTestClient(t, srv.TCPAddr())
	defer joiner.conn.Close()
	joiner.handshake()
	joiner.login(3002, "joiner", "good-token")

	join := protocol.JoinRoomPacket{RoomID: created.RoomID, RoomToken: created.RoomToken}
	e = codec.NewEncoder(join.Size())
	join.Encode(e)
	joiner.sendEncrypted(codec.Header{PacketID: protocol.JoinRoomPacketID, Encrypted: true}, e.Bytes())

	header, payload = joiner.readEncrypted()
	if header.PacketID != protocol.RoomJoinedPacketID {
		t.Fatalf("expected room joined, got id %d", header.PacketID)
	}
	joined, err := protocol.DecodeRoomJoinedPacket(codec.NewDecoder(payload))
	if err != nil {
		t.Fatalf("decode room joined: %v", err)
	}
	if joined.RoomID != created.RoomID {
		t.Fatalf("expected to join room %d, got %d", created.RoomID, joined.RoomID)
	}
}
