package wsman

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cwb124/go-winrm/wsman/transport"
)

const sampleEnumerateXML = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope" xmlns:n="http://schemas.xmlsoap.org/ws/2004/09/enumeration" xmlns:w="http://schemas.dmtf.org/wbem/wsman/1/wsman.xsd">
  <s:Body>
    <n:EnumerateResponse>
      <w:Items>
        <p:Win32_Service xmlns:p="http://schemas.microsoft.com/wbem/wsman/1/wmi/root/cimv2/Win32_Service">
          <p:Name>Spooler</p:Name>
          <p:State>Running</p:State>
        </p:Win32_Service>
        <p:Win32_Service xmlns:p="http://schemas.microsoft.com/wbem/wsman/1/wmi/root/cimv2/Win32_Service">
          <p:Name>BITS</p:Name>
          <p:State>Stopped</p:State>
        </p:Win32_Service>
      </w:Items>
      <w:EndOfSequence/>
    </n:EnumerateResponse>
  </s:Body>
</s:Envelope>`

func TestNormalizeItems(t *testing.T) {
	result, err := NormalizeItems([]byte(sampleEnumerateXML))
	if err != nil {
		t.Fatalf("NormalizeItems failed: %v", err)
	}

	services, ok := result["Win32_Service"]
	if !ok {
		t.Fatalf("expected a Win32_Service key, got keys %v", keysOf(result))
	}
	if len(services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(services))
	}
	if services[0].Children["Name"] != "Spooler" {
		t.Errorf("first record Name = %q", services[0].Children["Name"])
	}
	if services[1].Children["State"] != "Stopped" {
		t.Errorf("second record State = %q", services[1].Children["State"])
	}
}

func TestNormalizeItems_Empty(t *testing.T) {
	const empty = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope" xmlns:n="http://schemas.xmlsoap.org/ws/2004/09/enumeration">
  <s:Body>
    <n:EnumerateResponse>
      <n:EndOfSequence/>
    </n:EnumerateResponse>
  </s:Body>
</s:Envelope>`

	result, err := NormalizeItems([]byte(empty))
	if err != nil {
		t.Fatalf("NormalizeItems failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected an empty result, got %v", result)
	}
}

func TestClient_RunWQL(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(sampleEnumerateXML))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, transport.New())
	result, err := client.RunWQL(context.Background(), "SELECT * FROM Win32_Service WHERE State='Running'", WQLOptions{})
	if err != nil {
		t.Fatalf("RunWQL failed: %v", err)
	}
	if len(result["Win32_Service"]) != 2 {
		t.Errorf("expected 2 services, got %d", len(result["Win32_Service"]))
	}
	if !strings.Contains(gotBody, "Win32_Service") {
		t.Error("request body missing the WQL filter text")
	}
	if !strings.Contains(gotBody, DialectWQL) {
		t.Error("request body missing the WQL dialect URI")
	}
}

func TestClient_RunWQL_EmptyQuery(t *testing.T) {
	client := NewClient("http://example.invalid/wsman", transport.New())
	if _, err := client.RunWQL(context.Background(), "   ", WQLOptions{}); err == nil {
		t.Error("expected an error for an empty WQL query")
	}
}

func keysOf(m map[string][]Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
