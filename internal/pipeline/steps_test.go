package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kpcl-automation/gatekeeper/internal/model"
	"github.com/kpcl-automation/gatekeeper/internal/portal"
)

// fakePortal serves the authenticated area of the portal: the gatepass
// form for sessions carrying a known cookie, a redirect otherwise, and
// the submission endpoint.
type fakePortal struct {
	mux        *http.ServeMux
	validValue string
	submitBody string
	submitCode int
}

func newFakePortal() *fakePortal {
	p := &fakePortal{
		validValue: "valid-session",
		submitBody: "Gatepass generated successfully",
		submitCode: http.StatusOK,
	}

	p.mux = http.NewServeMux()
	p.mux.HandleFunc("GET /user/gatepass.php", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("PHPSESSID"); err != nil || c.Value != p.validValue {
			http.Redirect(w, r, "/signin_page.php", http.StatusFound)
			return
		}
		fmt.Fprint(w, `<form>
			<input type="hidden" name="csrf_token" value="tok-91">
			<input type="text" name="vehicle_no" value="">
		</form>`)
	})
	p.mux.HandleFunc("POST /user/proof_uploade_code.php", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(p.submitCode)
		fmt.Fprint(w, p.submitBody)
	})

	return p
}

func (p *fakePortal) serve(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(p.mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

// defaultPipeline wires the three real steps against the fake portal.
func defaultPipeline(baseURL string) *Pipeline {
	p := New()
	p.AddSteps(
		NewSessionStep(baseURL),
		NewReconcileStep(),
		NewSubmitStep(),
	)
	return p
}

// TestStepsFullPass tests a complete pass: seeded session, live
// reconciliation, and a recorded success outcome.
func TestStepsFullPass(t *testing.T) {
	t.Parallel()

	baseURL := newFakePortal().serve(t)

	account := model.Account{
		Identity:  "userA",
		Cookies:   map[string]string{"PHPSESSID": "valid-session"},
		Overrides: map[string]string{"vehicle_no": "KA01AB1234"},
	}

	outcome := defaultPipeline(baseURL).Execute(context.Background(), account)

	if outcome.Status != model.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Status, outcome.ResponseExcerpt)
	}
	if outcome.HTTPStatus != http.StatusOK {
		t.Errorf("expected HTTP 200 recorded, got %d", outcome.HTTPStatus)
	}
	if outcome.Latency <= 0 {
		t.Error("expected a measured submission latency")
	}
}

// TestSessionStepExpiredCookies tests that a stale session surfaces as a
// scrape failure at the reconcile step.
func TestSessionStepExpiredCookies(t *testing.T) {
	t.Parallel()

	baseURL := newFakePortal().serve(t)

	account := model.Account{
		Identity: "userA",
		Cookies:  map[string]string{"PHPSESSID": "stale"},
	}

	outcome := defaultPipeline(baseURL).Execute(context.Background(), account)

	if outcome.Status != model.StatusScrapeFailed {
		t.Errorf("expected scrape-failed for an expired session, got %s", outcome.Status)
	}
}

// TestSessionStepNoCookiesNoCredentials tests the guard for an account
// with no way onto the portal.
func TestSessionStepNoCookiesNoCredentials(t *testing.T) {
	t.Parallel()

	step := NewSessionStep("https://kpcl-ams.com")
	task := &Task{Account: model.Account{Identity: "userA"}}

	err := step.Do(context.Background(), task)
	if !errors.Is(err, portal.ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}

// TestSessionStepRunsLoginChallenge tests that credentials plus a
// passcode source trigger the full OTP flow.
func TestSessionStepRunsLoginChallenge(t *testing.T) {
	t.Parallel()

	portalFake := newFakePortal()
	var loginRan bool
	portalFake.mux.HandleFunc("GET /signin_page.php", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "valid-session", Path: "/"})
	})
	portalFake.mux.HandleFunc("POST /send_otp.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success"}`)
	})
	portalFake.mux.HandleFunc("POST /verify_otp.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "OTP Verified")
	})
	portalFake.mux.HandleFunc("POST /signin_page.php", func(w http.ResponseWriter, r *http.Request) {
		loginRan = true
		fmt.Fprint(w, "<a href=\"/logout.php\">Logout</a>")
	})
	baseURL := portalFake.serve(t)

	otp := func(context.Context, string) (string, error) { return "483920", nil }
	step := NewSessionStep(baseURL, WithOTPSource(otp))

	task := &Task{Account: model.Account{Identity: "userA", Password: "hunter2"}}
	if err := step.Do(context.Background(), task); err != nil {
		t.Fatalf("expected successful login challenge, got %v", err)
	}
	if !loginRan {
		t.Error("expected the sign-in step to run")
	}
	if task.Session.Cookies()["PHPSESSID"] != "valid-session" {
		t.Error("expected the challenge to leave a valid session cookie")
	}
}

// TestSubmitStepRecordsRejection tests that a portal rejection still
// completes the pass with a recorded outcome.
func TestSubmitStepRecordsRejection(t *testing.T) {
	t.Parallel()

	portalFake := newFakePortal()
	portalFake.submitCode = http.StatusForbidden
	portalFake.submitBody = "quota exhausted"
	baseURL := portalFake.serve(t)

	account := model.Account{
		Identity: "userA",
		Cookies:  map[string]string{"PHPSESSID": "valid-session"},
	}

	outcome := defaultPipeline(baseURL).Execute(context.Background(), account)

	if outcome.Status != model.StatusRemoteRejected {
		t.Errorf("expected remote-rejected, got %s", outcome.Status)
	}
	if outcome.HTTPStatus != http.StatusForbidden {
		t.Errorf("expected HTTP 403 recorded, got %d", outcome.HTTPStatus)
	}
	if outcome.ResponseExcerpt != "quota exhausted" {
		t.Errorf("expected rejection text recorded, got %q", outcome.ResponseExcerpt)
	}
}
