package middleware

import (
	"context"
	"net/http"

	"spark-service/pkg/jwtutil"
)

type contextKey string

const (
	ContextUserID   contextKey = "userID"
	ContextToken    contextKey = "token"
	ContextDeviceID contextKey = "deviceID"
	ContextEmail    contextKey = "email"
)

func GetUserID(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextUserID).(string)
	return val, ok
}

func GetToken(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextToken).(string)
	return val, ok
}

func GetDeviceID(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextDeviceID).(string)
	return val, ok
}

func GetEmail(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextEmail).(string)
	return val, ok
}

func setContextValues(r *http.Request, claims *jwtutil.Claims, token string) *http.Request {
	ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
	ctx = context.WithValue(ctx, ContextToken, token)
	ctx = context.WithValue(ctx, ContextDeviceID, claims.Device)
	ctx = context.WithValue(ctx, ContextEmail, claims.Email)
	return r.WithContext(ctx)
}
