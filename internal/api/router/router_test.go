package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/crm-lead-fusion/internal/clients"
	"github.com/wolfman30/crm-lead-fusion/internal/drafts"
	"github.com/wolfman30/crm-lead-fusion/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/crm-lead-fusion/internal/http/middleware"
	"github.com/wolfman30/crm-lead-fusion/internal/inbound"
	"github.com/wolfman30/crm-lead-fusion/internal/inference"
	"github.com/wolfman30/crm-lead-fusion/internal/intent"
	"github.com/wolfman30/crm-lead-fusion/internal/leads"
	"github.com/wolfman30/crm-lead-fusion/internal/observability/metrics"
	"github.com/wolfman30/crm-lead-fusion/internal/orgs"
	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
	"github.com/wolfman30/crm-lead-fusion/internal/urgency"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

const testAdminSecret = "router-secret"

type stubModels struct{}

func (stubModels) Classify(ctx context.Context, req inference.ZeroShotRequest) ([]inference.ZeroShotResult, error) {
	return []inference.ZeroShotResult{{
		Labels: []string{intent.HypothesisSupport, intent.HypothesisSales, intent.HypothesisSpam},
		Scores: []float64{0.8, 0.15, 0.05},
	}}, nil
}

func (stubModels) Sentiment(ctx context.Context, model, text string) ([][]inference.LabelScore, error) {
	return [][]inference.LabelScore{{{Label: "negative", Score: 0.9}, {Label: "neutral", Score: 0.1}}}, nil
}

func (stubModels) Generate(ctx context.Context, req inference.GenerationRequest) (string, error) {
	return "Thanks for reaching out, we are on it.", nil
}

type testStack struct {
	handler http.Handler
	orgs    *orgs.InMemoryRepository
	leads   *leads.InMemoryRepository
	queue   *inbound.MemoryQueue
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	logger := logging.Default()
	orgRepo := orgs.NewInMemoryRepository()
	leadRepo := leads.NewInMemoryRepository()
	clientRepo := clients.NewInMemoryRepository()
	draftRepo := drafts.NewInMemoryRepository()
	reg := prometheus.NewRegistry()
	pm := metrics.NewPipelineMetrics(reg)

	generator := drafts.NewGenerator(drafts.GeneratorConfig{
		Leads:   leadRepo,
		Orgs:    orgRepo,
		Clients: clientRepo,
		LLM:     stubModels{},
		Repo:    draftRepo,
		Model:   "gen-model",
		Logger:  logger,
		Metrics: pm,
	})
	orchestrator := pipeline.NewOrchestrator(pipeline.Config{
		Leads:   leads.NewResolver(leadRepo, logger),
		Tagger:  leadRepo,
		Clients: clients.NewResolver(clientRepo, logger),
		Intent:  intent.NewClassifier(stubModels{}, "zs-model", logger, pm),
		Urgency: urgency.NewEngine(stubModels{}, "sent-model", logger, pm),
		Drafts:  generator,
		Orgs:    orgRepo,
		Logger:  logger,
		Metrics: pm,
	})

	queue := inbound.NewMemoryQueue(8)
	publisher := inbound.NewPublisher(queue, inbound.NewMemoryJobStore(), logger)

	handler := New(&Config{
		Logger:         logger,
		InboundHandler: handlers.NewInboundHandler(orchestrator, publisher, logger),
		DraftsHandler:  handlers.NewDraftsHandler(generator, leadRepo, logger),
		AdminHandler: handlers.NewAdminHandler(handlers.AdminConfig{
			Orgs: orgRepo, Leads: leadRepo, Clients: clientRepo, Drafts: draftRepo, Logger: logger,
		}),
		AdminAuthSecret: testAdminSecret,
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		RateLimiter:     httpmiddleware.NewRateLimiter(100, 100),
	})
	return &testStack{handler: handler, orgs: orgRepo, leads: leadRepo, queue: queue}
}

func (s *testStack) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func adminHeader(t *testing.T) map[string]string {
	t.Helper()
	claims := httpmiddleware.AdminClaims{
		Role: httpmiddleware.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAdminSecret))
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + signed}
}

func TestRouterHealthEndpoint(t *testing.T) {
	s := newTestStack(t)
	rr := s.do(http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterInboundEndToEnd(t *testing.T) {
	s := newTestStack(t)
	org, err := s.orgs.Create(context.Background(), &orgs.CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	body := `{"source":"email","subject":"Outage","text":"Our dashboard is broken, please fix ASAP","contact":{"name":"Jo","email":"Jo@Example.com"},"draft":true}`
	rr := s.do(http.MethodPost, "/inbound", body, map[string]string{"X-Org-Id": org.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.Equal(t, intent.Support, result.Intent)
	assert.Equal(t, urgency.Negative, result.Sentiment)
	assert.NotEmpty(t, result.ClientID)
	require.NotNil(t, result.Draft)
	assert.Equal(t, "Thanks for reaching out, we are on it.", result.Draft.Content.Body)

	lead, err := s.leads.GetByID(context.Background(), result.LeadID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, lead.OrgID)
	assert.Equal(t, "support", lead.Intent)

	// The tenant draft endpoint appends a second draft.
	rr = s.do(http.MethodPost, "/leads/"+result.LeadID+"/drafts", "", map[string]string{"X-Org-Id": org.ID})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(http.MethodGet, "/admin/orgs/"+org.ID+"/leads/"+result.LeadID+"/drafts", "", adminHeader(t))
	require.Equal(t, http.StatusOK, rr.Code)
	var listed struct {
		Drafts []drafts.Draft `json:"drafts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Len(t, listed.Drafts, 2)

	rr = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, rr.Body.String(), "crm_pipeline_inbound_processed_total")
}

func TestRouterInboundUsesFirstOrgAsDefault(t *testing.T) {
	s := newTestStack(t)
	org, err := s.orgs.Create(context.Background(), &orgs.CreateRequest{Name: "Only Org"})
	require.NoError(t, err)

	rr := s.do(http.MethodPost, "/inbound", `{"text":"hello there"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	lead, err := s.leads.GetByID(context.Background(), result.LeadID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, lead.OrgID)
	assert.Equal(t, "email", lead.Source)
}

func TestRouterInboundValidation(t *testing.T) {
	s := newTestStack(t)

	rr := s.do(http.MethodPost, "/inbound", `{"text":"hello"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "no org anywhere")

	rr = s.do(http.MethodPost, "/inbound", `{"text":""}`, map[string]string{"X-Org-Id": "org-1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouterInboundAsync(t *testing.T) {
	s := newTestStack(t)

	rr := s.do(http.MethodPost, "/inbound/async", `{"text":"call me back"}`, map[string]string{"X-Org-Id": "org-1"})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	var accepted map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))
	assert.Equal(t, 1, s.queue.Len())

	rr = s.do(http.MethodGet, "/inbound/jobs/"+accepted["jobId"], "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterTenantRoutesRequireOrg(t *testing.T) {
	s := newTestStack(t)
	rr := s.do(http.MethodPost, "/leads/abc/drafts", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouterAdminRequiresToken(t *testing.T) {
	s := newTestStack(t)

	rr := s.do(http.MethodPost, "/admin/orgs", `{"name":"Acme"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(http.MethodPost, "/admin/orgs", `{"name":"Acme"}`, adminHeader(t))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var org orgs.Organization
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &org))

	rr = s.do(http.MethodGet, "/admin/orgs/"+org.ID+"/stats", "", adminHeader(t))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totalLeads":0`)
}

func TestRouterAdminDisabledWithoutSecret(t *testing.T) {
	handler := New(&Config{
		Logger: logging.Default(),
		AdminHandler: handlers.NewAdminHandler(handlers.AdminConfig{
			Orgs:    orgs.NewInMemoryRepository(),
			Leads:   leads.NewInMemoryRepository(),
			Clients: clients.NewInMemoryRepository(),
			Drafts:  drafts.NewInMemoryRepository(),
		}),
	})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/orgs/x/stats", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
