// Package main runs end-to-end scenarios against a running API.
//
// Each scenario posts an inbound message and checks the tags the pipeline
// assigns, then reads the lead back through the admin API.
//
// Usage:
//
//	ADMIN_JWT_SECRET=... API_BASE_URL=... go run scripts/e2e/run_e2e.go              # runs all
//	ADMIN_JWT_SECRET=... API_BASE_URL=... go run scripts/e2e/run_e2e.go urgent-bug   # runs one
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	maxWait      = 45 * time.Second
	pollInterval = 2 * time.Second
)

var (
	apiBase    string
	adminToken string
	orgID      string
	httpClient = &http.Client{Timeout: 60 * time.Second}
)

// ---------------------------------------------------------------------------
// Scenario definition
// ---------------------------------------------------------------------------

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...any) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type inboundResult struct {
	OK             bool     `json:"ok"`
	LeadID         string   `json:"leadId"`
	ClientID       string   `json:"clientId"`
	Intent         string   `json:"intent"`
	Urgency        string   `json:"urgency"`
	UrgencyScore   int      `json:"urgency_score"`
	UrgencyReasons []string `json:"urgency_reasons"`
	Draft          *struct {
		Content struct {
			Body string `json:"body"`
		} `json:"content"`
	} `json:"draft"`
	DraftError string `json:"draft_error"`
}

func generateJWT(secret string) string {
	claims := jwt.MapClaims{
		"sub":  "e2e",
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: sign token: %v\n", err)
		os.Exit(1)
	}
	return signed
}

func do(method, path string, body any, headers map[string]string, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 400 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func admin() map[string]string {
	return map[string]string{"Authorization": "Bearer " + adminToken}
}

func createOrg() (string, error) {
	var org struct {
		ID string `json:"id"`
	}
	name := "E2E " + uuid.NewString()[:8]
	status, err := do(http.MethodPost, "/admin/orgs", map[string]string{"name": name}, admin(), &org)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("create org returned %d", status)
	}
	return org.ID, nil
}

func sendInbound(msg map[string]any) (*inboundResult, error) {
	msg["org_id"] = orgID
	var res inboundResult
	status, err := do(http.MethodPost, "/inbound", msg, nil, &res)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("inbound returned %d", status)
	}
	return &res, nil
}

// waitForJob polls the async job until it leaves the pending state.
func waitForJob(jobID string) (map[string]any, error) {
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		time.Sleep(pollInterval)
		var job map[string]any
		status, err := do(http.MethodGet, "/inbound/jobs/"+jobID, nil, nil, &job)
		if err != nil || status != http.StatusOK {
			continue
		}
		if s, _ := job["status"].(string); s != "pending" {
			return job, nil
		}
	}
	return nil, fmt.Errorf("timed out waiting for job %s after %s", jobID, maxWait)
}

func containsReason(reasons []string, substr string) bool {
	for _, r := range reasons {
		if strings.Contains(strings.ToLower(r), substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func scenarioSalesInquiry(t *T) {
	res, err := sendInbound(map[string]any{
		"source":  "email",
		"subject": "Pricing for 50 seats",
		"text":    "Hi, we're evaluating your product for our team of 50. Could you send pricing and a demo slot?",
		"contact": map[string]string{"name": "Dana Buyer", "email": "dana@example.com", "company": "Acme"},
		"draft":   true,
	})
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("ok", res.OK)
	t.check("intent is sales", res.Intent == "sales")
	t.check("client linked", res.ClientID != "")
	t.check("draft generated", res.Draft != nil && res.Draft.Content.Body != "")
}

func scenarioUrgentBug(t *T) {
	res, err := sendInbound(map[string]any{
		"source": "web",
		"text":   "URGENT: production is down since this morning, nobody can log in. Please fix ASAP!",
	})
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("intent is support", res.Intent == "support")
	t.check("urgency is high", res.Urgency == "high")
	t.check("score at least 70", res.UrgencyScore >= 70)
	t.check("keyword reason recorded", containsReason(res.UrgencyReasons, "keyword"))
}

func scenarioSpam(t *T) {
	res, err := sendInbound(map[string]any{
		"source": "email",
		"text":   "Congratulations!!! You have won a FREE cruise. Click here to claim your prize now.",
		"draft":  true,
	})
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("intent is spam", res.Intent == "spam")
	t.check("no reply drafted", res.Draft == nil || res.Draft.Content.Body == "[NO_REPLY_SPAM]")
}

func scenarioRedelivery(t *T) {
	externalID := "e2e-" + uuid.NewString()
	first, err := sendInbound(map[string]any{"source": "email", "external_id": externalID, "text": "Do you offer annual billing?"})
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	second, err := sendInbound(map[string]any{"source": "email", "external_id": externalID, "text": "Do you offer annual billing? (resent)"})
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("same lead on redelivery", first.LeadID == second.LeadID)
}

func scenarioAsync(t *T) {
	var accepted struct {
		JobID  string `json:"jobId"`
		Status string `json:"status"`
	}
	msg := map[string]any{"org_id": orgID, "source": "whatsapp", "text": "Hello, can someone call me back about an upgrade?"}
	status, err := do(http.MethodPost, "/inbound/async", msg, nil, &accepted)
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	if status == http.StatusNotFound || status == http.StatusServiceUnavailable {
		fmt.Println("    SKIP: async inbound not enabled")
		return
	}
	t.check("accepted", status == http.StatusAccepted)
	job, err := waitForJob(accepted.JobID)
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("job completed", job["status"] == "completed")
}

func scenarioAdminReadBack(t *T) {
	var stats struct {
		Clients int `json:"clients"`
		Total   int `json:"totalLeads"`
	}
	status, err := do(http.MethodGet, "/admin/orgs/"+orgID+"/stats", nil, admin(), &stats)
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("stats ok", status == http.StatusOK)
	t.check("leads recorded", stats.Total > 0)

	var page struct {
		Leads []map[string]any `json:"leads"`
	}
	status, err = do(http.MethodGet, "/admin/orgs/"+orgID+"/leads?intent=sales", nil, admin(), &page)
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("lead list ok", status == http.StatusOK)
	for _, l := range page.Leads {
		if l["intent"] != "sales" {
			t.check("intent filter honored", false)
			return
		}
	}
	t.check("intent filter honored", true)
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	secret := os.Getenv("ADMIN_JWT_SECRET")
	if apiBase == "" || secret == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL and ADMIN_JWT_SECRET required")
		os.Exit(1)
	}
	adminToken = generateJWT(secret)

	var err error
	if orgID, err = createOrg(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("using org %s\n", orgID)

	scenarios := []scenario{
		{"sales-inquiry", scenarioSalesInquiry},
		{"urgent-bug", scenarioUrgentBug},
		{"spam", scenarioSpam},
		{"redelivery", scenarioRedelivery},
		{"async", scenarioAsync},
		{"admin-read-back", scenarioAdminReadBack},
	}

	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed := 0
	totalFailed := 0
	scenarioResults := make([]string, 0)

	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}

		fmt.Printf("\n========================================\n")
		fmt.Printf("SCENARIO: %s\n", s.Name)
		fmt.Printf("========================================\n")

		t := &T{name: s.Name}
		s.Fn(t)

		totalPassed += t.passed
		totalFailed += t.failed

		status := "PASS"
		if t.failed > 0 {
			status = "FAIL"
		}
		scenarioResults = append(scenarioResults, fmt.Sprintf("  %s %s (%d passed, %d failed)", status, s.Name, t.passed, t.failed))
	}

	fmt.Printf("\n========================================\n")
	fmt.Println("SUMMARY")
	fmt.Printf("========================================\n")
	for _, r := range scenarioResults {
		fmt.Println(r)
	}
	fmt.Printf("\nTotal: %d passed, %d failed\n", totalPassed, totalFailed)

	if totalFailed > 0 {
		os.Exit(1)
	}
}
