package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	pkgerrors "github.com/artvinci/artvinci-go/pkg/errors"
)

func TestLoginPostsCredentials(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding login body: %v", err)
		}
		if body.Email != "ada@example.com" || body.Password != "secret123" {
			t.Fatalf("unexpected body %+v", body)
		}
		json.NewEncoder(w).Encode(AuthResponse{
			Access:  "acc-token",
			Refresh: "ref-token",
			User:    &User{ID: 9, Username: "ada"},
		})
	}))

	resp, err := client.Login(context.Background(), LoginRequest{
		Email:    "ada@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Access != "acc-token" || resp.Refresh != "ref-token" {
		t.Fatalf("unexpected tokens %+v", resp)
	}
	if resp.User == nil || resp.User.ID != 9 {
		t.Fatalf("unexpected user %+v", resp.User)
	}
}

func TestLoginRejectsInvalidPayloadLocally(t *testing.T) {
	called := false
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := client.Login(context.Background(), LoginRequest{Email: "not-an-email", Password: ""})
	if apiErr := pkgerrors.As(err); apiErr == nil || apiErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("expected no network call for invalid payload")
	}
}

func TestRefreshTokenWireShape(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/token/refresh/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refresh"] != "ref-token" {
			t.Fatalf("unexpected body %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"access": "fresh-access"})
	}))

	resp, err := client.RefreshToken(context.Background(), RefreshRequest{Refresh: "ref-token"})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if resp.Access != "fresh-access" {
		t.Fatalf("expected fresh access token, got %q", resp.Access)
	}
}

func TestRegisterVerificationRequired(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(RegisterResponse{
			VerificationRequired: true,
			Email:                "new@example.com",
			Message:              "check your inbox",
		})
	}))

	resp, err := client.Register(context.Background(), RegisterRequest{
		Username:  "newbie",
		Email:     "new@example.com",
		Password:  "longenough",
		FirstName: "New",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !resp.VerificationRequired || resp.Email != "new@example.com" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestVerifyOTPRequiresSixDigits(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected no network call")
	}))

	_, err := client.VerifyOTP(context.Background(), VerifyOTPRequest{
		Email: "ada@example.com",
		Code:  "123",
	})
	if apiErr := pkgerrors.As(err); apiErr == nil || apiErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogoutPostsRefreshToken(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/logout/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refresh"] != "ref-token" {
			t.Fatalf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.Logout(context.Background(), LogoutRequest{Refresh: "ref-token"}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
}

func TestCreatePaymentIntentValidatesItems(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected no network call")
	}))

	_, err := client.CreatePaymentIntent(context.Background(), PaymentIntentRequest{})
	if apiErr := pkgerrors.As(err); apiErr == nil || apiErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreatePaymentIntentWireShape(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ventes/create-payment-intent/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body PaymentIntentRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if len(body.Items) != 1 || body.Items[0].ArtworkID != 42 || body.Items[0].Quantity != 2 {
			t.Fatalf("unexpected items %+v", body.Items)
		}
		json.NewEncoder(w).Encode(PaymentIntentResponse{
			ClientSecret: "pi_123_secret_abc",
			Order:        &Order{ID: 77, Status: "pending"},
		})
	}))

	resp, err := client.CreatePaymentIntent(context.Background(), PaymentIntentRequest{
		Items: []OrderItemInput{{ArtworkID: 42, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if resp.ClientSecret != "pi_123_secret_abc" || resp.Order == nil || resp.Order.ID != 77 {
		t.Fatalf("unexpected response %+v", resp)
	}
}
