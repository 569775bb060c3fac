package authlink

import (
	"context"
	"errors"
	"testing"
)

type fakeAuthClient struct {
	exchangeCalls int
	setCalls      int
	verifyCalls   int

	lastCode   string
	lastAccess string
	lastVerify VerifyParams

	session Session
	err     error
}

func (f *fakeAuthClient) ExchangeCode(ctx context.Context, code string) (Session, error) {
	f.exchangeCalls++
	f.lastCode = code
	return f.session, f.err
}

func (f *fakeAuthClient) SetSession(ctx context.Context, accessToken, refreshToken string) (Session, error) {
	f.setCalls++
	f.lastAccess = accessToken
	return f.session, f.err
}

func (f *fakeAuthClient) VerifyOTP(ctx context.Context, params VerifyParams) (Session, error) {
	f.verifyCalls++
	f.lastVerify = params
	return f.session, f.err
}

func TestHandleCodeExchange(t *testing.T) {
	client := &fakeAuthClient{session: Session{Email: "user@example.com"}}
	h := NewHandler(client)

	result := h.Handle(context.Background(), "nocturne://auth/callback?code=abc")
	if !result.Handled || !result.OK {
		t.Fatalf("result = %+v", result)
	}
	if result.Path != PathCallback {
		t.Errorf("path = %q", result.Path)
	}
	if result.Session.Email != "user@example.com" {
		t.Errorf("session email = %q", result.Session.Email)
	}
	if client.exchangeCalls != 1 || client.setCalls != 0 || client.verifyCalls != 0 {
		t.Errorf("calls = %d/%d/%d, want exactly one exchange", client.exchangeCalls, client.setCalls, client.verifyCalls)
	}
	if client.lastCode != "abc" {
		t.Errorf("code = %q", client.lastCode)
	}
}

func TestHandleRecoveryTokenPairForcesResetPath(t *testing.T) {
	client := &fakeAuthClient{}
	h := NewHandler(client)

	// The raw path is the generic callback; type=recovery must still
	// route to the reset screen.
	result := h.Handle(context.Background(), "nocturne://auth/callback#access_token=at&refresh_token=rt&type=recovery")
	if !result.Handled || !result.OK {
		t.Fatalf("result = %+v", result)
	}
	if result.Path != PathReset {
		t.Errorf("path = %q, want %q", result.Path, PathReset)
	}
	if client.setCalls != 1 {
		t.Errorf("setCalls = %d", client.setCalls)
	}
}

func TestHandleRecoveryOTPForcesResetPath(t *testing.T) {
	client := &fakeAuthClient{}
	h := NewHandler(client)

	result := h.Handle(context.Background(), "nocturne://auth/callback?type=recovery&token_hash=deadbeef")
	if !result.Handled || !result.OK {
		t.Fatalf("result = %+v", result)
	}
	if result.Path != PathReset {
		t.Errorf("path = %q, want %q", result.Path, PathReset)
	}
	if client.lastVerify.TokenHash != "deadbeef" {
		t.Errorf("verify params = %+v", client.lastVerify)
	}
}

func TestHandleNonRecoveryOTPKeepsPath(t *testing.T) {
	client := &fakeAuthClient{}
	h := NewHandler(client)

	result := h.Handle(context.Background(), "nocturne://auth/callback?type=magiclink&token=tok&email=a%40b.c")
	if !result.Handled || !result.OK {
		t.Fatalf("result = %+v", result)
	}
	if result.Path != PathCallback {
		t.Errorf("path = %q, want %q", result.Path, PathCallback)
	}
	if client.lastVerify.Token != "tok" || client.lastVerify.Email != "a@b.c" {
		t.Errorf("verify params = %+v", client.lastVerify)
	}
}

func TestHandleBackendFailureBecomesResult(t *testing.T) {
	client := &fakeAuthClient{err: errors.New("code expired")}
	h := NewHandler(client)

	result := h.Handle(context.Background(), "nocturne://auth/callback?code=stale")
	if !result.Handled {
		t.Fatal("expected handled")
	}
	if result.OK {
		t.Fatal("expected failure result")
	}
	if result.Err != "code expired" {
		t.Errorf("err = %q", result.Err)
	}
	if result.Path != PathCallback {
		t.Errorf("path = %q", result.Path)
	}
}

func TestHandleIncompleteAuthLinkIsIgnored(t *testing.T) {
	client := &fakeAuthClient{}
	h := NewHandler(client)

	// Recognized path, but no usable parameter combination.
	result := h.Handle(context.Background(), "nocturne://auth/callback?type=magiclink")
	if result.Handled {
		t.Errorf("result = %+v, want unhandled", result)
	}
	if client.exchangeCalls+client.setCalls+client.verifyCalls != 0 {
		t.Error("backend should not have been called")
	}
}

func TestHandleMalformedInputNeverPanics(t *testing.T) {
	client := &fakeAuthClient{}
	h := NewHandler(client)

	for _, raw := range []string{"", "garbage", "nocturne://other", "\x7f", "http://%41:8080/"} {
		result := h.Handle(context.Background(), raw)
		if result.Handled {
			t.Errorf("Handle(%q) = %+v, want unhandled", raw, result)
		}
	}
}
