package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpclient "github.com/pweiskircher/profile-sync/internal/http"
)

const sampleProfileXML = `<?xml version="1.0" encoding="UTF-8"?>
<Profile xmlns="http://soap.sforce.com/2006/04/metadata">
    <objectPermissions>
        <object>Account</object>
        <allowRead>true</allowRead>
        <allowEdit>false</allowEdit>
    </objectPermissions>
    <userPermissions>
        <name>ApiEnabled</name>
        <enabled>true</enabled>
    </userPermissions>
</Profile>
`

func testAdapter(t *testing.T, server *httptest.Server) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(AdapterOptions{
		Source:     "prod",
		BaseURL:    server.URL,
		Token:      "secret-token",
		APIVersion: "61.0",
		RetryOptions: httpclient.Options{
			Timeout:     2 * time.Second,
			MaxAttempts: 2,
			BaseBackoff: time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("adapter construction failed: %v", err)
	}
	return adapter
}

func TestAdapterFetchProfile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/data/v61.0/metadata/profiles/Admin" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			t.Errorf("unexpected authorization header: %q", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("X-Profile-Revision", "rev-42")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sampleProfileXML))
	}))
	defer server.Close()

	adapter := testAdapter(t, server)
	fetched, err := adapter.FetchProfile(context.Background(), "Admin")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if fetched.Revision != "rev-42" {
		t.Fatalf("expected revision from header, got %q", fetched.Revision)
	}
	if fetched.Source != "prod" {
		t.Fatalf("expected source prod, got %q", fetched.Source)
	}
	flat := fetched.Document.Flatten()
	if flat["objectPermissions.Account.allowRead"] != "true" {
		t.Fatalf("unexpected parsed document: %v", flat)
	}
}

func TestAdapterFetchProfileNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	adapter := testAdapter(t, server)
	_, err := adapter.FetchProfile(context.Background(), "Ghost")
	if !IsErrorCode(err, ErrorCodeProfileNotFound) {
		t.Fatalf("expected profile_not_found, got: %v", err)
	}
	if IsRecoverable(err) {
		t.Fatal("missing profile must not classify as recoverable")
	}
	if !strings.Contains(err.Error(), "Ghost") {
		t.Fatalf("error must name the profile, got: %v", err)
	}
}

func TestAdapterAuthFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := testAdapter(t, server)
	_, err := adapter.FetchProfile(context.Background(), "Admin")
	if !IsErrorCode(err, ErrorCodeAuthFailed) {
		t.Fatalf("expected auth_failed, got: %v", err)
	}
	if IsRecoverable(err) {
		t.Fatal("auth failure must not classify as recoverable")
	}
}

func TestAdapterErrorsNeverLeakToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("token secret-token rejected"))
	}))
	defer server.Close()

	adapter := testAdapter(t, server)
	_, err := adapter.FetchProfile(context.Background(), "Admin")
	if err == nil {
		t.Fatal("expected status error")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("error text leaks the token: %v", err)
	}
}

func TestAdapterFetchProfileDecodeFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<NotAProfile/>"))
	}))
	defer server.Close()

	adapter := testAdapter(t, server)
	_, err := adapter.FetchProfile(context.Background(), "Admin")
	if !IsErrorCode(err, ErrorCodeResponseDecode) {
		t.Fatalf("expected response_decode_failed, got: %v", err)
	}
}

func TestAdapterRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleProfileXML))
	}))
	defer server.Close()

	adapter := testAdapter(t, server)
	if _, err := adapter.FetchProfile(context.Background(), "Admin"); err != nil {
		t.Fatalf("expected retry to recover, got: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestAdapterListProfilesSorted(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/data/v61.0/metadata/profiles" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"profiles":[{"name":"Standard","revision":"7"},{"name":"Admin","revision":"42","lastModified":"2026-04-01T12:00:00Z"}]}`))
	}))
	defer server.Close()

	adapter := testAdapter(t, server)
	infos, err := adapter.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "Admin" || infos[1].Name != "Standard" {
		t.Fatalf("expected sorted listing, got %#v", infos)
	}
	if infos[0].Revision != "42" {
		t.Fatalf("expected revision metadata, got %#v", infos[0])
	}
}

func TestRegistryRoutesBySource(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleProfileXML))
	}))
	defer server.Close()

	registry := NewRegistry(testAdapter(t, server))

	if _, err := registry.FetchProfile(context.Background(), "prod", "Admin"); err != nil {
		t.Fatalf("registry fetch failed: %v", err)
	}

	_, err := registry.FetchProfile(context.Background(), "staging", "Admin")
	if !IsErrorCode(err, ErrorCodeUnknownSource) {
		t.Fatalf("expected unknown_source, got: %v", err)
	}
	if !strings.Contains(err.Error(), "prod") {
		t.Fatalf("error must list known sources, got: %v", err)
	}
}

func TestNewAdapterValidatesOptions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		options AdapterOptions
	}{
		{name: "missing source", options: AdapterOptions{BaseURL: "https://x.test", Token: "t"}},
		{name: "missing base url", options: AdapterOptions{Source: "prod", Token: "t"}},
		{name: "relative base url", options: AdapterOptions{Source: "prod", BaseURL: "x.test/api", Token: "t"}},
		{name: "missing token", options: AdapterOptions{Source: "prod", BaseURL: "https://x.test"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewAdapter(tc.options); !IsErrorCode(err, ErrorCodeInvalidInput) {
				t.Fatalf("expected invalid_input, got: %v", err)
			}
		})
	}
}
