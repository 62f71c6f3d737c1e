package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureCookie = "hp_session=fixture-cookie"

func executeCLI(t *testing.T, home, baseURL string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("HP_API_BASE_URL", baseURL)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSessionFixture(home string) error {
	configDir := filepath.Join(home, ".haulpass")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	session := `version = 1
cookie = "` + fixtureCookie + `"
saved_at = 2026-03-01T09:00:00Z

[snapshot]
user_email = "ops@acme.example"
user_role = "ADMIN"
member_number = "HP-10482"
plan_type = "HAUL_PASS"
credits = 7
card_on_file = true
`

	return os.WriteFile(filepath.Join(configDir, "session.toml"), []byte(session), 0o600)
}

// portalBackend is the fake backend shared by the CLI tests. Handlers for
// missing routes respond 404, which surfaces as an unexpected-response error.
func portalBackend(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func meHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != fixtureCookie {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{
			"ok": true,
			"user": {"email": "ops@acme.example", "role": "ADMIN"},
			"company": {
				"name": "Acme Freight",
				"memberNumber": "HP-10482",
				"planType": "HAUL_PASS",
				"credits": 7,
				"cardOnFile": true
			}
		}`))
	}
}

func requestListHandler(items string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [` + items + `]}`))
	}
}

func TestStatusNotSignedIn(t *testing.T) {
	home := t.TempDir()
	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not signed in.")
	assert.Contains(t, stdout, "hp login request")
}

func TestStatusHappyPath(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": meHandler(t),
		"GET /requests": requestListHandler(
			`{"id": "req-9", "status": "IN_PROGRESS", "requestTier": "TIER_2", "destinationAddress": "500 W Madison St", "creditsUsed": 2}`,
		),
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "member HP-10482 • Acme Freight")
	assert.Contains(t, stdout, "credits: 7")
	assert.Contains(t, stdout, "active requests: 1")
	assert.Contains(t, stdout, "req-9")
}

func TestStatusBackendFailureShowsResolverMessage(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "failed to load session (500)")
}

func TestStatusJSONOutput(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me":       meHandler(t),
		"GET /requests": requestListHandler(``),
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "status", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"MemberNumber\": \"HP-10482\"")
}

func TestLoginCookieVerifiesAndStoresProfile(t *testing.T) {
	home := t.TempDir()
	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": meHandler(t),
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "login", "cookie", "--value", fixtureCookie)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Signed in as member HP-10482 (Acme Freight).")

	data, err := os.ReadFile(filepath.Join(home, ".haulpass", "session.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), fixtureCookie)
	assert.Contains(t, string(data), "HP-10482")
}

func TestLoginCookieRejectedByBackend(t *testing.T) {
	home := t.TempDir()
	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	})

	_, _, err := executeCLI(t, home, backend.URL, "login", "cookie", "--value", "hp_session=stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cookie rejected")

	_, statErr := os.Stat(filepath.Join(home, ".haulpass", "session.toml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoginRequestPostsMemberAndEmail(t *testing.T) {
	home := t.TempDir()

	var body map[string]string
	backend := portalBackend(t, map[string]http.HandlerFunc{
		"POST /auth/magic-link": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"ok": true}`))
		},
	})

	stdout, _, err := executeCLI(t, home, backend.URL,
		"login", "request", "--member", "HP-10482", "--email", "ops@acme.example")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Sign-in link sent to ops@acme.example.")
	assert.Equal(t, "HP-10482", body["haul_pass_member_number"])
	assert.Equal(t, "ops@acme.example", body["email"])
}

func TestLoginRequestRejectsShortEmail(t *testing.T) {
	home := t.TempDir()
	backend := portalBackend(t, nil)

	_, _, err := executeCLI(t, home, backend.URL,
		"login", "request", "--member", "HP-10482", "--email", "a@b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestLogoutClearsStoredProfile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	backend := portalBackend(t, map[string]http.HandlerFunc{
		"POST /auth/logout": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ok": true}`))
		},
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Signed out.")

	_, statErr := os.Stat(filepath.Join(home, ".haulpass", "session.toml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLogoutWithoutProfile(t *testing.T) {
	home := t.TempDir()
	backend := portalBackend(t, nil)

	stdout, _, err := executeCLI(t, home, backend.URL, "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not signed in.")
}

func TestRequestsCreateSubmitsAndReloads(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	var submitted map[string]string
	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": meHandler(t),
		"POST /requests": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			_, _ = w.Write([]byte(`{"ok": true, "request_id": "req-77"}`))
		},
		"GET /requests": requestListHandler(
			`{"id": "req-77", "status": "SUBMITTED", "requestTier": "TIER_2", "destinationAddress": "500 W Madison St, Chicago IL"}`,
		),
	})

	stdout, _, err := executeCLI(t, home, backend.URL,
		"requests", "create",
		"--tier", "2",
		"--name", "Dana Ortiz",
		"--contact", "dana@acme.example",
		"--destination", "500 W Madison St, Chicago IL",
		"--payment", "credits")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Request req-77 submitted.")
	assert.Contains(t, stdout, "current: 1")

	assert.Equal(t, "TIER_2", submitted["request_tier"])
	assert.Equal(t, "CREDITS", submitted["payment_preference"])
	assert.Regexp(t, "^cli_", submitted["idempotency_key"])
}

func TestRequestsCreateRejectsInvalidTier(t *testing.T) {
	home := t.TempDir()
	backend := portalBackend(t, nil)

	_, _, err := executeCLI(t, home, backend.URL,
		"requests", "create",
		"--tier", "9",
		"--name", "Dana Ortiz",
		"--contact", "dana@acme.example",
		"--destination", "500 W Madison St, Chicago IL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tier 9")
}

func TestRequestsCreateSurfacesServerRejection(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": meHandler(t),
		"POST /requests": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"ok": false, "error": "destination outside service area"}`))
		},
	})

	_, _, err := executeCLI(t, home, backend.URL,
		"requests", "create",
		"--tier", "1",
		"--name", "Dana Ortiz",
		"--contact", "dana@acme.example",
		"--destination", "1 Far Away Rd, Nowhere AK")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination outside service area")
}

func TestRequestsCreateWithoutCardOnFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"ok": true,
				"user": {"email": "ops@acme.example", "role": "ADMIN"},
				"company": {"memberNumber": "HP-10482", "planType": "HAUL_PASS", "cardOnFile": false}
			}`))
		},
	})

	_, _, err := executeCLI(t, home, backend.URL,
		"requests", "create",
		"--tier", "1",
		"--name", "Dana Ortiz",
		"--contact", "dana@acme.example",
		"--destination", "500 W Madison St, Chicago IL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card on file")
}

func TestBillingRendersTotalsAndInvoices(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": meHandler(t),
		"GET /billing/history": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"items": [
				{"id": "req-5", "status": "COMPLETED", "requestTier": "TIER_2", "creditsUsed": 1, "billAmountCents": 12550},
				{"id": "req-4", "status": "COMPLETED", "requestTier": "TIER_1", "creditsUsed": 3}
			]}`))
		},
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "billing")
	require.NoError(t, err)
	assert.Contains(t, stdout, "requests: 2 • credits used: 4 • billed: $125.50")
	assert.Contains(t, stdout, "invoice: "+backend.URL+"/requests/req-5/invoice")
}

func TestTrackingDefaultsToFirstActiveRequest(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": meHandler(t),
		"GET /requests": requestListHandler(
			`{"id": "req-1", "status": "COMPLETED", "requestTier": "TIER_1"},
			{"id": "req-2", "status": "ASSIGNED", "requestTier": "TIER_2"}`,
		),
		"GET /requests/req-2/tracking": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"request": {
				"destinationLat": 41.95,
				"destinationLng": -87.7,
				"trackingPings": [{"recordedAt": "2026-03-09T13:02:03Z", "lat": 41.9, "lng": -87.65}]
			}}`))
		},
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "tracking")
	require.NoError(t, err)
	assert.Contains(t, stdout, "request req-2 • 1 pings")
	assert.Contains(t, stdout, "Last crew ping")
	assert.Contains(t, stdout, "map: https://www.openstreetmap.org/export/embed.html")
}

func TestTrackingWithoutPingsShowsFallbackMarker(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": meHandler(t),
		"GET /requests/req-3/tracking": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"request": {"trackingPings": []}}`))
		},
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "tracking", "req-3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Demo marker (Chicago)")
}

func TestAccountUpdatePatchesProfile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	var patched map[string]string
	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": meHandler(t),
		"PATCH /account": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			_, _ = w.Write([]byte(`{"ok": true}`))
		},
	})

	stdout, _, err := executeCLI(t, home, backend.URL,
		"account", "update", "--billing-email", "invoices@acme.example")
	require.NoError(t, err)
	assert.Equal(t, "invoices@acme.example", patched["billing_email"])
	assert.NotContains(t, patched, "company_name")
	assert.Contains(t, stdout, "member:        HP-10482")
}

func TestAccountSyncRefreshesSession(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionFixture(home))

	synced := false
	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": meHandler(t),
		"POST /account/sync": func(w http.ResponseWriter, _ *http.Request) {
			synced = true
			_, _ = w.Write([]byte(`{"ok": true}`))
		},
	})

	stdout, _, err := executeCLI(t, home, backend.URL, "account", "sync")
	require.NoError(t, err)
	assert.True(t, synced)
	assert.Contains(t, stdout, "Subscription state synced.")
}

func TestRequestsListRequiresSession(t *testing.T) {
	home := t.TempDir()
	backend := portalBackend(t, map[string]http.HandlerFunc{
		"GET /me": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	})

	_, _, err := executeCLI(t, home, backend.URL, "requests", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestVersionPrintsVersion(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "http://127.0.0.1:0", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}
