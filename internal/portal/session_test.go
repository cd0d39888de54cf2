package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestSessionSeedCookies verifies that seeded cookies reach the portal on
// the next request.
func TestSessionSeedCookies(t *testing.T) {
	t.Parallel()

	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("PHPSESSID"); err == nil {
			gotCookie = c.Value
		}
	}))
	defer srv.Close()

	session, err := NewSession(srv.URL)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	session.SeedCookies(map[string]string{"PHPSESSID": "abc123"})

	resp, err := session.Get(context.Background(), session.URL("/user/gatepass.php"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if gotCookie != "abc123" {
		t.Errorf("expected seeded cookie abc123, got %q", gotCookie)
	}
}

// TestSessionCookiesAccumulate verifies that server-set cookies join the
// seeded ones instead of replacing them.
func TestSessionCookiesAccumulate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "extra", Value: "fromserver", Path: "/"})
	}))
	defer srv.Close()

	session, err := NewSession(srv.URL)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	session.SeedCookies(map[string]string{"PHPSESSID": "abc123"})

	resp, err := session.Get(context.Background(), session.URL("/"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	cookies := session.Cookies()
	if cookies["PHPSESSID"] != "abc123" {
		t.Errorf("seeded cookie lost: %v", cookies)
	}
	if cookies["extra"] != "fromserver" {
		t.Errorf("server cookie not recorded: %v", cookies)
	}
}

// TestSessionGetNoRedirect verifies that a redirect is returned as-is
// instead of being followed. Reconciliation depends on observing the 302
// an expired session produces.
func TestSessionGetNoRedirect(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/gatepass.php" {
			http.Redirect(w, r, "/signin_page.php", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	session, err := NewSession(srv.URL)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	resp, err := session.GetNoRedirect(context.Background(), session.URL("/user/gatepass.php"), nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected 302 to surface, got %d", resp.StatusCode)
	}
}

// TestSessionURL verifies path resolution against the base URL.
func TestSessionURL(t *testing.T) {
	t.Parallel()

	session, err := NewSession("https://kpcl-ams.com")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if got := session.URL("/send_otp.php"); got != "https://kpcl-ams.com/send_otp.php" {
		t.Errorf("unexpected URL %q", got)
	}
	if got := session.BaseURL(); got != "https://kpcl-ams.com" {
		t.Errorf("unexpected base URL %q", got)
	}
}
