package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/app"
	"petshop-manager/internal/config"
	"petshop-manager/internal/router"
)

// hook simula el receptor del webhook de avisos (n8n / WhatsApp).
type hook struct {
	mu       sync.Mutex
	status   int
	payloads []map[string]any
}

func (h *hook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var p map[string]any
	_ = json.Unmarshal(body, &p)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.payloads = append(h.payloads, p)
	w.WriteHeader(h.status)
}

func (h *hook) received() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]any(nil), h.payloads...)
}

func testConfig(webhookURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Settings: config.SettingsConfig{
			BusinessName:      "PetShop Teste",
			DefaultWebhookURL: webhookURL,
			Timezone:          "America/Sao_Paulo",
		},
		Notifications: config.NotificationsConfig{
			Channel:     config.ChannelWebhook,
			Schedule:    "@every 1m",
			Timeout:     2 * time.Second,
			MaxAttempts: 3,
			BackoffBase: time.Second,
			BackoffMax:  time.Minute,
			BatchSize:   10,
			Lease:       30 * time.Second,
		},
		Ledger: config.LedgerConfig{AutoRecord: true},
	}
}

func newServer(t *testing.T, status int) (*httptest.Server, *hook) {
	t.Helper()

	h := &hook{status: status}
	hookSrv := httptest.NewServer(h)
	t.Cleanup(hookSrv.Close)

	cfg := testConfig(hookSrv.URL)
	require.NoError(t, cfg.Validate())

	a, err := app.New(context.Background(), app.Options{Config: cfg})
	require.NoError(t, err)

	srv := httptest.NewServer(router.NewRouter(router.Options{App: a}))
	t.Cleanup(srv.Close)
	return srv, h
}

func doReq(t *testing.T, srv *httptest.Server, method, path, role string, body any, out any) int {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("X-Debug-User-ID", "user-"+role)
		req.Header.Set("X-Debug-Role", role)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type idResp struct {
	ID string `json:"id"`
}

type offering struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
}

// seedVisit crea tutor, mascota y un Banho agendado para dentro de una hora.
func seedVisit(t *testing.T, srv *httptest.Server) (ownerID, petID, apptID string) {
	t.Helper()

	var owner idResp
	require.Equal(t, http.StatusCreated, doReq(t, srv, http.MethodPost, "/api/v1/owners", "colaborador", map[string]any{
		"name":     "Maria Silva",
		"phone":    "11999990000",
		"whatsapp": "5511999990000",
	}, &owner))

	var pet idResp
	require.Equal(t, http.StatusCreated, doReq(t, srv, http.MethodPost, "/api/v1/pets", "colaborador", map[string]any{
		"owner_id":  owner.ID,
		"name":      "Thor",
		"species":   "dog",
		"breed":     "Golden Retriever",
		"size":      "large",
		"allergies": []string{"frango"},
	}, &pet))

	var services []offering
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodGet, "/api/v1/services?department_id=estetica&active=true", "colaborador", nil, &services))
	var banho offering
	for _, s := range services {
		if s.Name == "Banho" {
			banho = s
		}
	}
	require.NotEmpty(t, banho.ID, "seeded catalog must include Banho")

	var appt idResp
	require.Equal(t, http.StatusCreated, doReq(t, srv, http.MethodPost, "/api/v1/appointments", "colaborador", map[string]any{
		"owner_id":      owner.ID,
		"pet_id":        pet.ID,
		"department_id": "estetica",
		"service_id":    banho.ID,
		"scheduled_at":  time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}, &appt))

	return owner.ID, pet.ID, appt.ID
}

type checkoutResp struct {
	Appointment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Price  string `json:"price"`
	} `json:"appointment"`
	Notification string `json:"notification"`
	Message      string `json:"message"`
}

type summaryResp struct {
	TotalIncome   string `json:"total_income"`
	TotalExpenses string `json:"total_expenses"`
	Net           string `json:"net"`
}

func TestE2E_CheckInCheckOut_RecordsIncomeHistoryAndNotifies(t *testing.T) {
	srv, h := newServer(t, http.StatusNoContent)
	_, petID, apptID := seedVisit(t, srv)

	var checkedIn struct {
		Status       string   `json:"status"`
		NextStatuses []string `json:"next_statuses"`
	}
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodPost, "/api/v1/appointments/"+apptID+"/check-in", "colaborador", map[string]any{
		"before_photo_url": "https://fotos.example/antes.jpg",
	}, &checkedIn))
	assert.Equal(t, "checked_in", checkedIn.Status)
	assert.Contains(t, checkedIn.NextStatuses, "completed")

	var out checkoutResp
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodPost, "/api/v1/appointments/"+apptID+"/check-out", "colaborador", map[string]any{
		"after_photo_url": "https://fotos.example/depois.jpg",
	}, &out))
	assert.Equal(t, "completed", out.Appointment.Status)
	assert.Equal(t, "delivered", out.Notification)
	assert.Empty(t, out.Message)

	got := h.received()
	require.Len(t, got, 1)
	assert.Equal(t, "checkout", got[0]["type"])
	assert.Equal(t, "Thor", got[0]["petName"])

	// segundo checkout: transición inválida
	assert.Equal(t, http.StatusConflict, doReq(t, srv, http.MethodPost, "/api/v1/appointments/"+apptID+"/check-out", "colaborador", nil, nil))

	var sum summaryResp
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodGet, "/api/v1/finance/summary", "admin", nil, &sum))
	income, err := decimal.NewFromString(sum.TotalIncome)
	require.NoError(t, err)
	assert.True(t, income.Equal(decimal.NewFromInt(50)), "income = %s", sum.TotalIncome)

	var entries []struct {
		Type          string `json:"type"`
		AppointmentID string `json:"appointment_id"`
	}
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodGet, "/api/v1/pets/"+petID+"/history", "colaborador", nil, &entries))
	types := make([]string, 0, len(entries))
	for _, e := range entries {
		assert.Equal(t, apptID, e.AppointmentID)
		types = append(types, e.Type)
	}
	assert.ElementsMatch(t, []string{"check_in", "check_out"}, types)
}

func TestE2E_CheckOut_AfterEmployeeDeleted(t *testing.T) {
	srv, h := newServer(t, http.StatusNoContent)

	var emp idResp
	require.Equal(t, http.StatusCreated, doReq(t, srv, http.MethodPost, "/api/v1/employees", "admin", map[string]any{
		"name":                  "Bruno",
		"role":                  "groomer",
		"departments":           []string{"estetica"},
		"commission_enabled":    true,
		"commission_percentage": "20",
	}, &emp))

	_, _, apptID := seedVisit(t, srv)
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodPatch, "/api/v1/appointments/"+apptID, "colaborador", map[string]any{
		"employee_id": emp.ID,
	}, nil))
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodPost, "/api/v1/appointments/"+apptID+"/check-in", "colaborador", nil, nil))

	require.Equal(t, http.StatusNoContent, doReq(t, srv, http.MethodDelete, "/api/v1/employees/"+emp.ID, "admin", nil, nil))

	var out checkoutResp
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodPost, "/api/v1/appointments/"+apptID+"/check-out", "colaborador", nil, &out))
	assert.Equal(t, "completed", out.Appointment.Status)
	assert.Equal(t, "delivered", out.Notification)
	assert.Len(t, h.received(), 1)

	var sum summaryResp
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodGet, "/api/v1/finance/summary", "admin", nil, &sum))
	income, err := decimal.NewFromString(sum.TotalIncome)
	require.NoError(t, err)
	assert.True(t, income.Equal(decimal.NewFromInt(50)), "income = %s", sum.TotalIncome)
	expenses, err := decimal.NewFromString(sum.TotalExpenses)
	require.NoError(t, err)
	assert.True(t, expenses.IsZero(), "expenses = %s", sum.TotalExpenses)
}

func TestE2E_CheckOut_NotificationFailureIsSoft(t *testing.T) {
	srv, h := newServer(t, http.StatusBadGateway)
	_, _, apptID := seedVisit(t, srv)

	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodPost, "/api/v1/appointments/"+apptID+"/check-in", "colaborador", nil, nil))

	var out checkoutResp
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodPost, "/api/v1/appointments/"+apptID+"/check-out", "colaborador", nil, &out))
	assert.Equal(t, "completed", out.Appointment.Status)
	assert.Equal(t, "pending", out.Notification)
	assert.NotEmpty(t, out.Message)
	assert.Len(t, h.received(), 1)

	var pending []struct {
		AppointmentID string `json:"appointment_id"`
		Attempts      int    `json:"attempts"`
		LastError     string `json:"last_error"`
	}
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodGet, "/api/v1/notifications?status=pending", "admin", nil, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, apptID, pending[0].AppointmentID)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.NotEmpty(t, pending[0].LastError)
}

func TestE2E_DashboardEmptyMonth(t *testing.T) {
	srv, _ := newServer(t, http.StatusNoContent)
	seedVisit(t, srv)

	var dash struct {
		InProgressCount int       `json:"in_progress_count"`
		GeneratedAt     time.Time `json:"generated_at"`
		Month           struct {
			Net string `json:"net"`
		} `json:"month"`
	}
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodGet, "/api/v1/dashboard", "colaborador", nil, &dash))
	assert.Equal(t, 0, dash.InProgressCount)
	assert.False(t, dash.GeneratedAt.IsZero())
	assert.Equal(t, "0", dash.Month.Net)
}

func TestRouter_AuthAndRoles(t *testing.T) {
	srv, _ := newServer(t, http.StatusNoContent)

	assert.Equal(t, http.StatusUnauthorized, doReq(t, srv, http.MethodGet, "/api/v1/owners", "", nil, nil))
	assert.Equal(t, http.StatusOK, doReq(t, srv, http.MethodGet, "/api/v1/owners", "colaborador", nil, nil))

	// rutas de admin
	assert.Equal(t, http.StatusForbidden, doReq(t, srv, http.MethodPatch, "/api/v1/settings", "colaborador", map[string]any{
		"business_name": "Outro",
	}, nil))
	assert.Equal(t, http.StatusForbidden, doReq(t, srv, http.MethodPost, "/api/v1/services", "colaborador", map[string]any{
		"department_id": "saude", "name": "Castração", "duration_minutes": 90, "price": "600",
	}, nil))
	assert.Equal(t, http.StatusCreated, doReq(t, srv, http.MethodPost, "/api/v1/services", "admin", map[string]any{
		"department_id": "saude", "name": "Castração", "duration_minutes": 90, "price": "600",
	}, nil))
}

func TestRouter_DisabledDepartmentRejectsAppointments(t *testing.T) {
	srv, _ := newServer(t, http.StatusNoContent)

	var services []offering
	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodGet, "/api/v1/services?department_id=educacao", "admin", nil, &services))
	require.NotEmpty(t, services)

	require.Equal(t, http.StatusOK, doReq(t, srv, http.MethodPost, "/api/v1/settings/departments/educacao/toggle", "admin", nil, nil))

	var owner, pet idResp
	require.Equal(t, http.StatusCreated, doReq(t, srv, http.MethodPost, "/api/v1/owners", "admin", map[string]any{"name": "Ana", "phone": "1133334444"}, &owner))
	require.Equal(t, http.StatusCreated, doReq(t, srv, http.MethodPost, "/api/v1/pets", "admin", map[string]any{
		"owner_id": owner.ID, "name": "Mel", "species": "cat",
	}, &pet))

	assert.Equal(t, http.StatusBadRequest, doReq(t, srv, http.MethodPost, "/api/v1/appointments", "admin", map[string]any{
		"owner_id":      owner.ID,
		"pet_id":        pet.ID,
		"department_id": "educacao",
		"service_id":    services[0].ID,
		"scheduled_at":  time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}, nil))
}

func TestRouter_HealthAndRequestID(t *testing.T) {
	srv, _ := newServer(t, http.StatusNoContent)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}
