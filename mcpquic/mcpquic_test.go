package mcpquic

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quic-go/quic-go"

	"github.com/hazyhaar/calque/kit"
)

// --- Stream preamble ---

func TestMagicPreambleRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := SendMagicBytes(&buf); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != MagicBytesMCP {
		t.Fatalf("preamble = %q, want %q", got, MagicBytesMCP)
	}
	if err := ValidateMagicBytes(&buf); err != nil {
		t.Fatalf("validate after send: %v", err)
	}
}

func TestValidateMagicBytesRejections(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"http request", "GET /"},
		{"wrong protocol", "HTTP"},
		{"short read", "MC"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMagicBytes(strings.NewReader(tc.input))
			if err == nil {
				t.Fatalf("accepted %q", tc.input)
			}
			if !errors.Is(err, ErrInvalidMagicBytes) {
				t.Fatalf("err = %v, want ErrInvalidMagicBytes", err)
			}
		})
	}
}

// --- Errors ---

func TestConnectionErrorFormatting(t *testing.T) {
	inner := errors.New("handshake timeout")
	ce := &ConnectionError{
		RemoteAddr: "10.0.0.7:4433",
		Code:       ConnErrorProtocolViolation,
		Err:        inner,
	}

	msg := ce.Error()
	if !strings.Contains(msg, "10.0.0.7:4433") {
		t.Fatalf("message lacks remote addr: %s", msg)
	}
	if !strings.Contains(msg, "code 0x03") {
		t.Fatalf("message lacks hex code: %s", msg)
	}
	if !errors.Is(ce, inner) {
		t.Fatal("ConnectionError should unwrap to the inner error")
	}
}

// --- TLS and QUIC configuration ---

func TestProductionQUICConfig(t *testing.T) {
	cfg := ProductionQUICConfig()
	if cfg.MaxIdleTimeout != DefaultIdleTimeout {
		t.Fatalf("MaxIdleTimeout = %v, want %v", cfg.MaxIdleTimeout, DefaultIdleTimeout)
	}
	if cfg.KeepAlivePeriod != DefaultKeepAlive {
		t.Fatalf("KeepAlivePeriod = %v, want %v", cfg.KeepAlivePeriod, DefaultKeepAlive)
	}
	if cfg.Allow0RTT {
		t.Fatal("0-RTT must stay disabled")
	}
}

func TestSelfSignedTLSConfig(t *testing.T) {
	cfg, err := SelfSignedTLSConfig()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("certificates = %d, want 1", len(cfg.Certificates))
	}
	if cfg.MinVersion != tls.VersionTLS13 {
		t.Fatalf("MinVersion = %#x, want TLS 1.3", cfg.MinVersion)
	}
	if len(cfg.NextProtos) != 1 || cfg.NextProtos[0] != ALPNProtocolMCP {
		t.Fatalf("NextProtos = %v, want [%s]", cfg.NextProtos, ALPNProtocolMCP)
	}

	cert, err := x509.ParseCertificate(cfg.Certificates[0].Certificate[0])
	if err != nil {
		t.Fatalf("parse self-signed cert: %v", err)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
		t.Fatalf("DNSNames = %v, want [localhost]", cert.DNSNames)
	}
	if time.Now().After(cert.NotAfter) {
		t.Fatalf("certificate already expired: %v", cert.NotAfter)
	}
}

func TestClientTLSConfig(t *testing.T) {
	secure := ClientTLSConfig(false)
	if secure.InsecureSkipVerify {
		t.Fatal("secure config must verify the server certificate")
	}
	insecure := ClientTLSConfig(true)
	if !insecure.InsecureSkipVerify {
		t.Fatal("insecure config must skip verification")
	}
	for _, cfg := range []*tls.Config{secure, insecure} {
		if len(cfg.NextProtos) != 1 || cfg.NextProtos[0] != ALPNProtocolMCP {
			t.Fatalf("NextProtos = %v, want [%s]", cfg.NextProtos, ALPNProtocolMCP)
		}
		if cfg.MinVersion != tls.VersionTLS13 {
			t.Fatalf("MinVersion = %#x, want TLS 1.3", cfg.MinVersion)
		}
	}
}

func TestH3TLSConfigClonesBase(t *testing.T) {
	base, err := SelfSignedTLSConfig()
	if err != nil {
		t.Fatal(err)
	}
	h3 := H3TLSConfig(base)

	if len(h3.NextProtos) != 1 || h3.NextProtos[0] != "h3" {
		t.Fatalf("h3 NextProtos = %v, want [h3]", h3.NextProtos)
	}
	if h3.MinVersion != base.MinVersion {
		t.Fatalf("MinVersion diverged: %#x vs %#x", h3.MinVersion, base.MinVersion)
	}
	if len(h3.Certificates) != len(base.Certificates) {
		t.Fatal("certificates not carried over from base")
	}
	if base.NextProtos[0] != ALPNProtocolMCP {
		t.Fatalf("base mutated: NextProtos = %v", base.NextProtos)
	}
}

// --- Client lifecycle ---

func TestNewClientDefaultsToVerifiedTLS(t *testing.T) {
	c := NewClient("localhost:4433", nil)
	if c.addr != "localhost:4433" {
		t.Fatalf("addr = %q", c.addr)
	}
	if c.tlsCfg == nil || c.tlsCfg.InsecureSkipVerify {
		t.Fatal("nil TLS config should default to verifying the server")
	}
}

func TestClientRequiresSession(t *testing.T) {
	c := NewClient("localhost:1", nil)
	ctx := context.Background()

	if _, err := c.ListTools(ctx); err == nil {
		t.Fatal("ListTools before Connect should fail")
	}
	if _, err := c.CallTool(ctx, "calque_build", nil); err == nil {
		t.Fatal("CallTool before Connect should fail")
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatal("Ping before Connect should fail")
	}
}

// --- End-to-end QUIC session ---

type summaryRequest struct {
	PageURL string `json:"page_url"`
}

// quicTestServer starts a listener on a loopback port with one calque tool
// registered through kit, and returns the dial address.
func quicTestServer(t *testing.T) string {
	t.Helper()

	tlsCfg, err := SelfSignedTLSConfig()
	if err != nil {
		t.Fatal(err)
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: "calque-test", Version: "0.0.1"}, nil)
	tool := &mcp.Tool{
		Name:        "calque_page_summary",
		Description: "Summarize a captured page",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"page_url": map[string]any{"type": "string"},
			},
			"required": []string{"page_url"},
		},
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*summaryRequest)
		return map[string]any{"page_url": r.PageURL, "nodes": 4}, nil
	}
	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r summaryRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		if r.PageURL == "" {
			return nil, fmt.Errorf("page_url required")
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l, err := NewListener("127.0.0.1:0", tlsCfg, srv, logger)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go l.Serve(ctx)

	return l.listener.Addr().String()
}

func TestSessionToolRoundTrip(t *testing.T) {
	addr := quicTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := NewClient(addr, ClientTLSConfig(true))
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools.Tools) != 1 || tools.Tools[0].Name != "calque_page_summary" {
		t.Fatalf("tools = %+v, want calque_page_summary", tools.Tools)
	}

	res, err := client.CallTool(ctx, "calque_page_summary", map[string]any{
		"page_url": "https://example.com/pricing",
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %+v", res.Content)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	var out struct {
		PageURL string `json:"page_url"`
		Nodes   int    `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.PageURL != "https://example.com/pricing" || out.Nodes != 4 {
		t.Fatalf("result = %+v", out)
	}
}

func TestSessionToolArgumentValidation(t *testing.T) {
	addr := quicTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := NewClient(addr, ClientTLSConfig(true))
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	res, err := client.CallTool(ctx, "calque_page_summary", map[string]any{})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !res.IsError {
		t.Fatal("missing page_url should produce a tool error")
	}
}

func TestServerRejectsWrongPreamble(t *testing.T) {
	addr := quicTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := quic.DialAddr(ctx, addr, ClientTLSConfig(true), ProductionQUICConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseWithError(ConnErrorNoError, "test done")

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	if _, err := stream.Write([]byte("GET / HTTP/1.1\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The server resets the stream and closes the connection on a bad
	// preamble, so the read must fail.
	buf := make([]byte, 1)
	if _, err := stream.Read(buf); err == nil {
		t.Fatal("read succeeded after invalid preamble")
	}
}
