package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/internal/service"
	"fest-backend/internal/service/auth"
	"fest-backend/internal/service/gateway"
	"fest-backend/internal/testing/memstore"
	apperrors "fest-backend/pkg/errors"
	"fest-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSessionSecret = "handler-secret"
	testGatewaySecret = "handler-gateway-secret"
)

type stubGateway struct {
	mu     sync.Mutex
	orders int
}

func (g *stubGateway) KeyID() string { return "rzp_test_handler" }

func (g *stubGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders++
	return &gateway.Order{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	}, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.Sign(orderID, paymentID, testGatewaySecret) == signature
}

type stubEvidence struct {
	mu   sync.Mutex
	keys []string
}

func (e *stubEvidence) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, key)
	return "https://cdn.test/" + key, nil
}

type testServer struct {
	router   *chi.Mux
	store    *memstore.Store
	auth     *auth.Service
	evidence *stubEvidence
}

func setupServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()
	log := logger.NewNop()
	store := memstore.New()
	repos := store.Repositories()
	authSvc := auth.NewService(testSessionSecret, "", log)
	ev := &stubEvidence{}

	services := &service.Services{
		Auth:         authSvc,
		Profile:      service.NewProfileService(repos, nil, log),
		Team:         service.NewTeamService(repos, log),
		Event:        service.NewEventService(repos, service.NewCacheService(nil, log.Logger), log),
		Registration: service.NewRegistrationService(repos, "INR", log),
		Payment:      service.NewPaymentService(repos, &stubGateway{}, ev, nil, log),
		Channel:      service.NewChannelService(repos, "dance-performance", log),
		Dance:        service.NewDanceService(repos, log),
	}

	router := NewRouter(services, RouterConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		HealthChecks:   checks,
	}, log)
	return &testServer{router: router, store: store, auth: authSvc, evidence: ev}
}

func (s *testServer) token(t *testing.T, p *domain.Profile, role string) string {
	t.Helper()
	token, err := s.auth.IssueSession(&domain.Identity{Subject: p.ID, Email: p.Email, Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorType {
	t.Helper()
	var body apperrors.ErrorResponse
	decodeBody(t, rec, &body)
	assert.False(t, body.Success)
	return body.Error.Type
}

func TestRouter_Health(t *testing.T) {
	server := setupServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := server.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = server.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, map[string]string{"database": "healthy", "redis": "unhealthy"}, resp.Checks)
}

func TestRouter_NotFound(t *testing.T) {
	server := setupServer(t, nil)

	rec := server.do(t, http.MethodGet, "/api/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.ErrorTypeNotFound, errorType(t, rec))
}

func TestRouter_PublicEvents(t *testing.T) {
	server := setupServer(t, nil)
	live := server.store.CreateEvent(t, memstore.WithSlug("code-wars"), memstore.WithTitle("Code Wars"))
	hidden := server.store.CreateEvent(t, memstore.WithSlug("secret-round"), memstore.Hidden())

	rec := server.do(t, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Events []*domain.Event `json:"events"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Events, 1)
	assert.Equal(t, live.EventID, list.Events[0].EventID)

	rec = server.do(t, http.MethodGet, "/api/events/"+live.EventID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = server.do(t, http.MethodGet, "/api/events/"+hidden.EventID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	server := setupServer(t, nil)

	for _, path := range []string{"/api/profile", "/api/teams", "/api/user/channels", "/api/admin/events"} {
		t.Run(path, func(t *testing.T) {
			rec := server.do(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, apperrors.ErrorTypeAuthentication, errorType(t, rec))
		})
	}
}

func TestRouter_PaidTeamFlow(t *testing.T) {
	server := setupServer(t, nil)
	leader := server.store.CreateProfile(t)
	member := server.store.CreateProfile(t)
	event := server.store.CreateEvent(t, memstore.WithTeamSize(1, 2), memstore.WithFees(200))

	leaderToken := server.token(t, leader, "")
	memberToken := server.token(t, member, "")

	// Team formation through the invitation flow
	rec := server.do(t, http.MethodPost, "/api/teams", leaderToken, domain.CreateTeamRequest{TeamName: "Null Pointers"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var team domain.Team
	decodeBody(t, rec, &team)

	rec = server.do(t, http.MethodPost, "/api/teams/invite", leaderToken, domain.InviteRequest{Email: member.Email})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = server.do(t, http.MethodPost, "/api/teams/invitations/"+team.ID+"/accept", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = server.do(t, http.MethodPost, "/api/events/register", leaderToken, domain.RegisterRequest{
		EventID:         event.EventID,
		TeamID:          team.ID,
		SelectedMembers: []string{leader.ID, member.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered domain.RegisterResponse
	decodeBody(t, rec, &registered)
	assert.Equal(t, domain.PaymentInitiated, registered.PaymentStatus)

	// The channel stays locked until payment is confirmed
	rec = server.do(t, http.MethodGet, "/api/channels/"+event.EventID, memberToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = server.do(t, http.MethodPost, "/api/payments/create-order", memberToken, domain.CreateOrderRequest{EventID: event.EventID})
	require.Equal(t, http.StatusOK, rec.Code)
	var order domain.CreateOrderResponse
	decodeBody(t, rec, &order)
	assert.Equal(t, 20000, order.Amount)
	assert.Equal(t, "rzp_test_handler", order.KeyID)
	assert.Equal(t, registered.RegistrationID, order.RegistrationID)

	callback := domain.VerifyPaymentRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_handler_1",
		Signature: gateway.Sign(order.OrderID, "pay_handler_1", testGatewaySecret),
	}

	t.Run("tampered signature", func(t *testing.T) {
		tampered := callback
		tampered.Signature = strings.Repeat("0", 64)
		rec := server.do(t, http.MethodPost, "/api/payments/verify", leaderToken, tampered)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec = server.do(t, http.MethodPost, "/api/payments/verify", leaderToken, callback)
	require.Equal(t, http.StatusOK, rec.Code)
	var verified domain.VerifyPaymentResponse
	decodeBody(t, rec, &verified)
	assert.True(t, verified.Success)
	assert.False(t, verified.AlreadyProcessed)

	rec = server.do(t, http.MethodPost, "/api/payments/verify", leaderToken, callback)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &verified)
	assert.True(t, verified.AlreadyProcessed)
	assert.Equal(t, 1, server.store.Event(t, event.EventID).CurrentRegistrations)

	rec = server.do(t, http.MethodGet, "/api/profile/status", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status domain.ProfileStatus
	decodeBody(t, rec, &status)
	assert.Contains(t, status.PaidEvents, event.EventID)

	rec = server.do(t, http.MethodGet, "/api/channels/"+event.EventID, memberToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A locked team cannot be left
	rec = server.do(t, http.MethodPost, "/api/teams/leave", memberToken, domain.LeaveTeamRequest{})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_AdminReview(t *testing.T) {
	server := setupServer(t, nil)
	participant := server.store.CreateProfile(t)
	admin := server.store.CreateProfile(t)
	event := server.store.CreateEvent(t, memstore.WithFees(100))

	participantToken := server.token(t, participant, "")
	adminToken := server.token(t, admin, domain.RoleAdmin)

	rec := server.do(t, http.MethodPost, "/api/events/register", participantToken, domain.RegisterRequest{EventID: event.EventID})
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered domain.RegisterResponse
	decodeBody(t, rec, &registered)

	review := domain.ManualReviewRequest{RegistrationID: registered.RegistrationID, Action: domain.ReviewReject}

	rec = server.do(t, http.MethodPost, "/api/admin/payments", participantToken, review)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	t.Run("reject requires a reason", func(t *testing.T) {
		rec := server.do(t, http.MethodPost, "/api/admin/payments", adminToken, review)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperrors.ErrorTypeValidation, errorType(t, rec))
	})

	t.Run("unknown action", func(t *testing.T) {
		bad := review
		bad.Action = "approve"
		rec := server.do(t, http.MethodPost, "/api/admin/payments", adminToken, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	review.Notes = "Screenshot does not match"
	rec = server.do(t, http.MethodPost, "/api/admin/payments", adminToken, review)
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected struct {
		Message      string               `json:"message"`
		Registration *domain.Registration `json:"registration"`
	}
	decodeBody(t, rec, &rejected)
	assert.Equal(t, "Registration marked as failed", rejected.Message)
	assert.Equal(t, domain.PaymentFailed, rejected.Registration.PaymentStatus)

	rec = server.do(t, http.MethodPost, "/api/admin/verify-payment", adminToken, domain.ManualReviewRequest{
		RegistrationID: registered.RegistrationID,
		Action:         domain.ReviewVerify,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var verified struct {
		Message      string               `json:"message"`
		Registration *domain.Registration `json:"registration"`
	}
	decodeBody(t, rec, &verified)
	assert.Equal(t, "Registration verified manually", verified.Message)
	assert.Equal(t, domain.PaymentManualVerified, verified.Registration.PaymentStatus)
	require.NotNil(t, verified.Registration.ManualVerification)
	assert.Equal(t, admin.Email, verified.Registration.ManualVerification.VerifiedBy)

	rec = server.do(t, http.MethodGet, "/api/admin/registrations?status=manual_verified", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Registrations []*domain.Registration `json:"registrations"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Registrations, 1)
	assert.Equal(t, registered.RegistrationID, list.Registrations[0].ID)
}

func screenshotRequest(t *testing.T, token, registrationID string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("registration_id", registrationID))
	if file != nil {
		part, err := mw.CreateFormFile("screenshot", "receipt.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/screenshot", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRouter_ScreenshotUpload(t *testing.T) {
	server := setupServer(t, nil)
	participant := server.store.CreateProfile(t)
	outsider := server.store.CreateProfile(t)
	event := server.store.CreateEvent(t, memstore.WithFees(150))
	token := server.token(t, participant, "")

	rec := server.do(t, http.MethodPost, "/api/events/register", token, domain.RegisterRequest{EventID: event.EventID})
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered domain.RegisterResponse
	decodeBody(t, rec, &registered)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	t.Run("missing file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, screenshotRequest(t, token, registered.RegistrationID, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, screenshotRequest(t, token, registered.RegistrationID, []byte("plain text receipt")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("outsider", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, screenshotRequest(t, server.token(t, outsider, ""), registered.RegistrationID, png))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	rec = httptest.NewRecorder()
	server.router.ServeHTTP(rec, screenshotRequest(t, token, registered.RegistrationID, png))
	require.Equal(t, http.StatusOK, rec.Code)

	var reg domain.Registration
	decodeBody(t, rec, &reg)
	assert.Equal(t, domain.PaymentVerificationPending, reg.PaymentStatus)
	assert.True(t, strings.HasPrefix(reg.ScreenshotURL, "https://cdn.test/payments/"+registered.RegistrationID+"/"))
	assert.Len(t, server.evidence.keys, 1)
}

func TestRouter_Dance(t *testing.T) {
	server := setupServer(t, nil)
	dancer := server.store.CreateProfile(t)
	token := server.token(t, dancer, "")

	rec := server.do(t, http.MethodPost, "/api/dance", token, domain.DanceRequest{
		Category:   domain.DanceGroup,
		DanceStyle: "Hip Hop",
		VideoLink:  "https://example.com/video",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = server.do(t, http.MethodPost, "/api/dance", token, domain.DanceRequest{
		Category:   domain.DanceSolo,
		DanceStyle: "Kathak",
		VideoLink:  "https://example.com/video",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = server.do(t, http.MethodGet, "/api/dance", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine struct {
		Registrations []*domain.DanceRegistration `json:"registrations"`
	}
	decodeBody(t, rec, &mine)
	require.Len(t, mine.Registrations, 1)
	assert.Equal(t, "Kathak", mine.Registrations[0].DanceStyle)

	rec = server.do(t, http.MethodPatch, "/api/admin/dance", token, domain.DanceStatusRequest{
		RegistrationID: mine.Registrations[0].ID,
		Status:         domain.DanceStatusVerified,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AdminUsers(t *testing.T) {
	server := setupServer(t, nil)
	participant := server.store.CreateProfile(t)
	admin := server.store.CreateProfile(t)
	leaver := server.store.CreateProfile(t)
	team := server.store.CreateTeam(t, leaver)

	participantToken := server.token(t, participant, "")
	adminToken := server.token(t, admin, domain.RoleAdmin)

	rec := server.do(t, http.MethodGet, "/api/admin/users", participantToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = server.do(t, http.MethodDelete, "/api/admin/users/"+leaver.ID, participantToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = server.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Users []domain.UserSummary `json:"users"`
	}
	decodeBody(t, rec, &listed)
	require.Len(t, listed.Users, 3)
	for _, u := range listed.Users {
		assert.Equal(t, "Test User", u.Name)
	}

	t.Run("cannot delete self", func(t *testing.T) {
		rec := server.do(t, http.MethodDelete, "/api/admin/users/"+admin.ID, adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperrors.ErrorTypeValidation, errorType(t, rec))
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := server.do(t, http.MethodDelete, "/api/admin/users/"+participant.ID[:8], adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	rec = server.do(t, http.MethodDelete, "/api/admin/users/"+leaver.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted struct {
		Message string              `json:"message"`
		Result  *domain.PurgeResult `json:"result"`
	}
	decodeBody(t, rec, &deleted)
	assert.Equal(t, "User deleted successfully", deleted.Message)
	assert.Equal(t, leaver.ID, deleted.Result.ProfileID)
	assert.Equal(t, []string{team.ID}, deleted.Result.DisbandedTeams)
	assert.Nil(t, server.store.Team(t, team.ID))

	_, err := server.store.Repositories().Profile.GetByID(context.Background(), leaver.ID)
	assert.Error(t, err)

	rec = server.do(t, http.MethodDelete, "/api/admin/users/"+leaver.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
