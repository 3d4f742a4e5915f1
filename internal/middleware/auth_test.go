package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/boardwatch/pkg/httpcontext"
)

func sign(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func run(mw func(fasthttp.RequestHandler) fasthttp.RequestHandler, auth string) (*fasthttp.RequestCtx, bool) {
	var ctx fasthttp.RequestCtx
	if auth != "" {
		ctx.Request.Header.Set("Authorization", auth)
	}
	called := false
	mw(func(ctx *fasthttp.RequestCtx) { called = true })(&ctx)
	return &ctx, called
}

func TestJWTAuthDisabledWithoutSecret(t *testing.T) {
	if _, called := run(JWTAuth("", nil), ""); !called {
		t.Fatal("expected pass-through when no secret is configured")
	}
}

func TestJWTAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	mw := JWTAuth("s3cret", nil)

	ctx, called := run(mw, "")
	if called || ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token, got %d", ctx.Response.StatusCode())
	}

	wrongKey := sign(t, "other", jwt.RegisteredClaims{Subject: "ops"})
	if _, called := run(mw, "Bearer "+wrongKey); called {
		t.Fatal("expected token signed with another key to be rejected")
	}

	expired := sign(t, "s3cret", jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})
	if _, called := run(mw, "Bearer "+expired); called {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	token := sign(t, "s3cret", jwt.RegisteredClaims{
		Subject:   "ops-bot",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	ctx, called := run(JWTAuth("s3cret", nil), "Bearer "+token)
	if !called {
		t.Fatalf("expected handler to run, got status %d", ctx.Response.StatusCode())
	}
	if ctx.UserValue(string(httpcontext.KeySubject)) != "ops-bot" {
		t.Fatalf("expected subject user value, got %v", ctx.UserValue(string(httpcontext.KeySubject)))
	}
}
