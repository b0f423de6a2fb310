package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"promopilot/internal/adapter/logonly"
	"promopilot/internal/adapter/memory"
	"promopilot/internal/adapter/scheduler"
	"promopilot/internal/adapter/usecase"
	"promopilot/internal/core/domain"
	"promopilot/internal/core/port"
)

// newTestServer wires the full memory stack behind the router, which
// keeps these tests close to what a deployed instance does.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := usecase.NewCampaignUseCase(
		memory.NewCampaignRepository(),
		logonly.NewNotifier(logger),
		scheduler.SystemClock(),
		logger,
		10,
	)
	sched := scheduler.New(
		memory.NewPostRepository(),
		logonly.NewPublisher(logger),
		scheduler.SystemClock(),
		logger,
		"* * * * *",
	)
	srv := httptest.NewServer(NewHandler(engine, sched, logger).Router())
	t.Cleanup(srv.Close)
	t.Cleanup(sched.Stop)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error: %v", method, url, err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body error: %v", err)
	}
	return res, raw
}

func createCampaign(t *testing.T, srv *httptest.Server, winProbability int) string {
	t.Helper()
	body := fmt.Sprintf(`{
		"name": "launch promo",
		"type": "instant_web",
		"start_date": %q,
		"end_date": %q,
		"prizes": [{"name": "sticker", "quantity": 5}],
		"rules": {"win_probability": %d}
	}`, time.Now().Add(-time.Hour).Format(time.RFC3339), time.Now().Add(time.Hour).Format(time.RFC3339), winProbability)
	res, raw := doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create campaign status = %d: %s", res.StatusCode, raw)
	}
	var c domain.Campaign
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("decode campaign: %v", err)
	}
	return c.ID
}

func TestCampaignEntryFlow(t *testing.T) {
	srv := newTestServer(t)
	id := createCampaign(t, srv, 100)

	// Draft campaigns reject entries with a 200 and accepted=false.
	res, raw := doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns/"+id+"/enter", `{"user_id":"u1","username":"alice"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("enter status = %d: %s", res.StatusCode, raw)
	}
	var entry port.EntryResult
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.Accepted {
		t.Fatal("entry into a draft campaign must be rejected")
	}

	res, raw = doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns/"+id+"/start", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d: %s", res.StatusCode, raw)
	}
	// Starting twice conflicts.
	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns/"+id+"/start", "")
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", res.StatusCode)
	}

	res, raw = doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns/"+id+"/enter", `{"user_id":"u1","username":"alice"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("enter status = %d: %s", res.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if !entry.Accepted || !entry.Won {
		t.Fatalf("certain-win entry must be accepted and won: %+v", entry)
	}

	res, raw = doJSON(t, http.MethodGet, srv.URL+"/api/v1/campaigns/"+id+"/stats", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d: %s", res.StatusCode, raw)
	}
	var stats port.CampaignStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Participants != 1 || stats.Winners != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCampaignNotFoundAndBadInput(t *testing.T) {
	srv := newTestServer(t)

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/campaigns/missing", "")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("get unknown status = %d, want 404", res.StatusCode)
	}
	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns/missing/start", "")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("start unknown status = %d, want 404", res.StatusCode)
	}
	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns", `{"name":"x","type":"raffle"}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad type status = %d, want 400", res.StatusCode)
	}
	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns", `{bad json`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json status = %d, want 400", res.StatusCode)
	}
}

func TestDrawEndpointStateMapping(t *testing.T) {
	srv := newTestServer(t)
	id := createCampaign(t, srv, 100)

	// instant_web campaigns cannot be batch drawn.
	res, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns/"+id+"/draw", "")
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("draw on instant campaign status = %d, want 409", res.StatusCode)
	}
	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns/missing/draw", "")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("draw on unknown campaign status = %d, want 404", res.StatusCode)
	}
}

func TestResponsesUseSnakeCaseFields(t *testing.T) {
	srv := newTestServer(t)
	id := createCampaign(t, srv, 100)

	res, raw := doJSON(t, http.MethodGet, srv.URL+"/api/v1/campaigns/"+id, "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get campaign status = %d: %s", res.StatusCode, raw)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("decode campaign: %v", err)
	}
	for _, key := range []string{"id", "start_date", "end_date", "status", "prizes", "rules"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("campaign response missing %q: %s", key, raw)
		}
	}
	if _, ok := fields["StartDate"]; ok {
		t.Fatalf("campaign response must not expose Go field names: %s", raw)
	}

	body := fmt.Sprintf(`{"text":"hello","scheduled_at":%q}`, time.Now().Add(time.Hour).Format(time.RFC3339))
	res, raw = doJSON(t, http.MethodPost, srv.URL+"/api/v1/posts", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("schedule status = %d: %s", res.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	for _, key := range []string{"id", "text", "scheduled_at", "status"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("post response missing %q: %s", key, raw)
		}
	}
}

func TestDrawWithNoWinnersReturnsEmptyArray(t *testing.T) {
	srv := newTestServer(t)

	body := fmt.Sprintf(`{
		"name": "year end lottery",
		"type": "later_lottery",
		"start_date": %q,
		"end_date": %q
	}`, time.Now().Add(-time.Hour).Format(time.RFC3339), time.Now().Add(time.Hour).Format(time.RFC3339))
	res, raw := doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create campaign status = %d: %s", res.StatusCode, raw)
	}
	var c domain.Campaign
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("decode campaign: %v", err)
	}

	res, raw = doJSON(t, http.MethodPost, srv.URL+"/api/v1/campaigns/"+c.ID+"/draw", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("draw status = %d: %s", res.StatusCode, raw)
	}
	if got := strings.TrimSpace(string(raw)); got != "[]" {
		t.Fatalf("no-winner draw must serialize as [], got %s", got)
	}
}

func TestPostSchedulingFlow(t *testing.T) {
	srv := newTestServer(t)

	// Scheduler endpoints: stopped, start, running, double start conflicts.
	res, raw := doJSON(t, http.MethodGet, srv.URL+"/api/v1/scheduler", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("scheduler status = %d: %s", res.StatusCode, raw)
	}
	var status struct {
		Running bool `json:"running"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Running {
		t.Fatal("scheduler must start stopped")
	}
	if res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/scheduler/start", ""); res.StatusCode != http.StatusOK {
		t.Fatalf("scheduler start status = %d", res.StatusCode)
	}
	if res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/scheduler/start", ""); res.StatusCode != http.StatusConflict {
		t.Fatalf("double scheduler start status = %d, want 409", res.StatusCode)
	}

	// A past-time post executes immediately through the log-only publisher.
	body := fmt.Sprintf(`{"text":"hello","scheduled_at":%q}`, time.Now().Add(-time.Minute).Format(time.RFC3339))
	res, raw = doJSON(t, http.MethodPost, srv.URL+"/api/v1/posts", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("schedule status = %d: %s", res.StatusCode, raw)
	}
	var posted domain.ScheduledPost
	if err := json.Unmarshal(raw, &posted); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	if posted.Status != domain.PostStatusPosted {
		t.Fatalf("past-time post status = %s, want posted", posted.Status)
	}

	// Posted posts cannot be cancelled; unknown ids 404.
	if res, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/posts/"+posted.ID, ""); res.StatusCode != http.StatusConflict {
		t.Fatalf("cancel posted status = %d, want 409", res.StatusCode)
	}
	if res, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/posts/missing", ""); res.StatusCode != http.StatusNotFound {
		t.Fatalf("cancel unknown status = %d, want 404", res.StatusCode)
	}

	// Recurring posts create one pending post per occurrence.
	body = fmt.Sprintf(`{"text":"digest","scheduled_at":%q,"interval":"daily","count":3}`, time.Now().Add(time.Hour).Format(time.RFC3339))
	res, raw = doJSON(t, http.MethodPost, srv.URL+"/api/v1/posts/recurring", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("recurring status = %d: %s", res.StatusCode, raw)
	}
	var batch []domain.ScheduledPost
	if err := json.Unmarshal(raw, &batch); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("expected 3 recurring posts, got %d", len(batch))
	}
}
