package mockapi_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analuiza2102/bioaccess/capture"
	"github.com/analuiza2102/bioaccess/client"
	"github.com/analuiza2102/bioaccess/internal/mockapi"
	"github.com/analuiza2102/bioaccess/session"
	"github.com/analuiza2102/bioaccess/storage/memory"
)

type harness struct {
	client   *client.Client
	sessions *session.Store
	url      string
}

func newHarness(t *testing.T, opts ...mockapi.Option) *harness {
	t.Helper()
	srv := mockapi.New("test-secret", zerolog.Nop(), opts...)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	sessions := session.New(memory.New(), zerolog.Nop())
	sessions.Initialize()

	c, err := client.New(ts.URL, client.WithSessionStore(sessions))
	require.NoError(t, err)
	return &harness{client: c, sessions: sessions, url: ts.URL}
}

// facePhoto renders a decodable JPEG large enough to pass face detection.
// The shade makes successive frames distinguishable.
func facePhoto(t *testing.T, shade uint8) capture.SingleImage {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return capture.SingleImage{Data: buf.Bytes(), MIMEType: "image/jpeg"}
}

func tinyPhoto(t *testing.T) capture.SingleImage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	return capture.SingleImage{Data: buf.Bytes(), MIMEType: "image/jpeg"}
}

func TestLoginWithSeededAccounts(t *testing.T) {
	tests := []struct {
		username, password string
		clearance          int
	}{
		{"ana.luiza", "senha123", 1},
		{"diretor.silva", "diretor2024", 2},
		{"ministro.ambiente", "ministro2024", 3},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			h := newHarness(t)
			user, err := h.client.Login(context.Background(), tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.username, user.Username)
			assert.Equal(t, tt.clearance, user.Clearance)
			assert.True(t, h.sessions.IsAuthenticated())
		})
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Login(context.Background(), "ana.luiza", "wrong")
	assert.ErrorIs(t, err, client.ErrRejected)

	_, err = h.client.Login(context.Background(), "nobody", "senha123")
	assert.ErrorIs(t, err, client.ErrRejected, "unknown user and wrong password look the same")
}

func TestLevelAccessFollowsClearance(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Login(context.Background(), "diretor.silva", "diretor2024")
	require.NoError(t, err)

	for level := 1; level <= 2; level++ {
		data, err := h.client.FetchLevel(context.Background(), level)
		require.NoError(t, err, "level %d", level)
		assert.Equal(t, level, data.Level)
	}

	_, err = h.client.FetchLevel(context.Background(), 3)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Forbidden())
	assert.True(t, h.sessions.IsAuthenticated(), "a denial does not end the session")
}

func TestEnrollAndVerify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	status, err := h.client.CheckBiometric(ctx, "ana.luiza")
	require.NoError(t, err)
	assert.False(t, status.HasBiometric)

	resp, err := h.client.Enroll(ctx, "ana.luiza", facePhoto(t, 100))
	require.NoError(t, err)
	assert.True(t, resp.Success)

	status, err = h.client.CheckBiometric(ctx, "ana.luiza")
	require.NoError(t, err)
	assert.True(t, status.HasBiometric)

	user, err := h.client.Verify(ctx, "ana.luiza", facePhoto(t, 110))
	require.NoError(t, err)
	assert.Equal(t, "ana.luiza", user.Username)
	assert.True(t, h.sessions.IsAuthenticated())
}

func TestEnrollFailureModes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Enroll(ctx, "nobody", facePhoto(t, 100))
	assert.ErrorIs(t, err, client.ErrUserNotFound)

	_, err = h.client.Enroll(ctx, "ana.luiza", tinyPhoto(t))
	assert.ErrorIs(t, err, client.ErrFaceNotDetected)

	_, err = h.client.Enroll(ctx, "ana.luiza", facePhoto(t, 100))
	require.NoError(t, err)
	_, err = h.client.Enroll(ctx, "ana.luiza", facePhoto(t, 120))
	assert.ErrorIs(t, err, client.ErrAlreadyEnrolled)
}

func TestVerifyFailureModes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Verify(ctx, "nobody", facePhoto(t, 100))
	assert.ErrorIs(t, err, client.ErrUserNotFound)

	// Not enrolled yet.
	_, err = h.client.Verify(ctx, "ana.luiza", facePhoto(t, 100))
	assert.ErrorIs(t, err, client.ErrInvalidInput)

	_, err = h.client.Enroll(ctx, "ana.luiza", facePhoto(t, 100))
	require.NoError(t, err)

	_, err = h.client.Verify(ctx, "ana.luiza", tinyPhoto(t))
	assert.ErrorIs(t, err, client.ErrInvalidInput)
	assert.False(t, h.sessions.IsAuthenticated())
}

func TestVerifyLiveness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Enroll(ctx, "ana.luiza", facePhoto(t, 100))
	require.NoError(t, err)

	frozen := facePhoto(t, 100)
	_, err = h.client.VerifyLiveness(ctx, "ana.luiza", capture.LivenessPair{
		ImageA: frozen, ImageB: frozen,
	})
	assert.ErrorIs(t, err, client.ErrRejected, "identical frames fail the liveness check")

	user, err := h.client.VerifyLiveness(ctx, "ana.luiza", capture.LivenessPair{
		ImageA: facePhoto(t, 100), ImageB: facePhoto(t, 140),
	})
	require.NoError(t, err)
	assert.Equal(t, "ana.luiza", user.Username)
}

func TestVerifyUploadAndCamera(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.EnrollUpload(ctx, "diretor.silva", "face.jpg", facePhoto(t, 90))
	require.NoError(t, err)

	_, err = h.client.VerifyUpload(ctx, "diretor.silva", "face.jpg", facePhoto(t, 95))
	require.NoError(t, err)

	_, err = h.client.VerifyCamera(ctx, "diretor.silva", facePhoto(t, 98))
	require.NoError(t, err)
}

func TestAuditReport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Generate a trail: one failed login, one good login, two level reads.
	h.client.Login(ctx, "ministro.ambiente", "wrong")
	_, err := h.client.Login(ctx, "ministro.ambiente", "ministro2024")
	require.NoError(t, err)
	_, err = h.client.FetchLevel(ctx, 1)
	require.NoError(t, err)
	_, err = h.client.FetchLevel(ctx, 3)
	require.NoError(t, err)

	page, err := h.client.FetchAudit(ctx, client.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)

	no := false
	page, err = h.client.FetchAudit(ctx, client.AuditFilter{Success: &no})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "login", page.Logs[0].Action)

	page, err = h.client.FetchAudit(ctx, client.AuditFilter{Action: "access_level"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = h.client.FetchAudit(ctx, client.AuditFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Logs, 2)
	assert.Equal(t, 2, page.PageCount())
	assert.True(t, page.HasNext())
}

func TestAuditRequiresTopClearance(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Login(context.Background(), "diretor.silva", "diretor2024")
	require.NoError(t, err)

	_, err = h.client.FetchAudit(context.Background(), client.AuditFilter{})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Forbidden())
}

func TestExpiredTokenForcesLogout(t *testing.T) {
	now := time.Now()
	clock := &now
	h := newHarness(t, mockapi.WithTokenTTL(time.Minute), mockapi.WithClock(func() time.Time { return *clock }))

	_, err := h.client.Login(context.Background(), "ministro.ambiente", "ministro2024")
	require.NoError(t, err)

	later := now.Add(2 * time.Minute)
	clock = &later

	_, err = h.client.FetchAudit(context.Background(), client.AuditFilter{})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Unauthorized())
	assert.False(t, h.sessions.IsAuthenticated(), "an expired token ends the local session")
}

func TestAdminUserManagement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Login(ctx, "ana.luiza", "senha123")
	require.NoError(t, err)

	created, err := h.client.CreateUser(ctx, client.CreateUserRequest{
		Username: "novo.analista", Password: "analista2026", Role: "director", Clearance: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "novo.analista", created.Username)

	_, err = h.client.CreateUser(ctx, client.CreateUserRequest{
		Username: "novo.analista", Password: "outrasenha", Role: "public", Clearance: 1,
	})
	assert.ErrorIs(t, err, client.ErrUserExists)

	users, err := h.client.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)
	assert.Equal(t, "ana.luiza", users[0].Username, "listing is ordered by id")

	require.NoError(t, h.client.ResetPassword(ctx, "novo.analista", "senhanova"))
	err = h.client.ResetPassword(ctx, "fantasma", "senhanova")
	assert.ErrorIs(t, err, client.ErrUserNotFound)

	// The new password works; the old one no longer does.
	_, err = h.client.Login(ctx, "novo.analista", "analista2026")
	assert.ErrorIs(t, err, client.ErrRejected)
	_, err = h.client.Login(ctx, "novo.analista", "senhanova")
	require.NoError(t, err)

	// Deletion needs the admin session back.
	_, err = h.client.Login(ctx, "ana.luiza", "senha123")
	require.NoError(t, err)
	require.NoError(t, h.client.DeleteUser(ctx, "novo.analista"))
	err = h.client.DeleteUser(ctx, "novo.analista")
	assert.ErrorIs(t, err, client.ErrUserNotFound)
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Login(context.Background(), "ministro.ambiente", "ministro2024")
	require.NoError(t, err)

	_, err = h.client.ListUsers(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Forbidden(), "clearance does not imply administration rights")
}

func TestAuditRejectsBadPaging(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Login(context.Background(), "ministro.ambiente", "ministro2024")
	require.NoError(t, err)

	// Out-of-range limits never leave the client; the cap is applied first.
	page, err := h.client.FetchAudit(context.Background(), client.AuditFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)

	// A caller bypassing the client still gets a validation error.
	token, ok := h.sessions.Token()
	require.True(t, ok)
	req, err := http.NewRequest(http.MethodGet, h.url+"/reports/audit?limit=1000", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorsCarryAPIErrorDetail(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Enroll(context.Background(), "nobody", facePhoto(t, 100))

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "user not found", apiErr.Message)
	assert.True(t, errors.Is(err, client.ErrUserNotFound))
}
