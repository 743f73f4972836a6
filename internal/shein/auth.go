package shein

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrLoginRejected is returned when the storefront answered but refused
// the login (wrong OTP, blocked account, bot detection).
var ErrLoginRejected = errors.New("login rejected")

// RequestLoginCode asks the storefront to send an OTP to phone. Unlike the
// read paths this returns an error: the user is waiting on the outcome and
// needs to be told when nothing will arrive.
func (c *Client) RequestLoginCode(ctx context.Context, phone string) error {
	payload, _ := json.Marshal(map[string]string{"mobileNumber": phone})

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/auth/generateLoginOTP", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	browserHeaders(req, c.base+"/login?referrer=/my-account/", "")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("origin", c.base)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("otp request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if strings.Contains(string(body), "Access Denied") {
		return fmt.Errorf("%w: access denied", ErrLoginRejected)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrLoginRejected, resp.StatusCode)
	}
	c.log.Info().Msg("login code requested")
	return nil
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	StatusCode   int    `json:"statusCode"`
	Error        string `json:"error"`
	Message      string `json:"message"`
}

// VerifyLoginCode exchanges the OTP for a credential blob: a ready-to-send
// Cookie header value assembled from the response body tokens and any
// Set-Cookie headers.
func (c *Client) VerifyLoginCode(ctx context.Context, phone, otp string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"username": phone, "otp": otp})

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	browserHeaders(req, c.base+"/login/otp?referrer=/my-account/", "")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("origin", c.base)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("login read: %w", err)
	}
	if strings.Contains(string(body), "Access Denied") {
		return "", fmt.Errorf("%w: access denied", ErrLoginRejected)
	}

	var data loginResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("%w: unparseable response", ErrLoginRejected)
	}
	if data.Error != "" || data.StatusCode >= 400 {
		msg := data.Message
		if msg == "" {
			msg = data.Error
		}
		if msg == "" {
			msg = "login failed"
		}
		return "", fmt.Errorf("%w: %s", ErrLoginRejected, msg)
	}

	creds := AssembleCredentials(data.AccessToken, data.RefreshToken, resp.Header.Values("Set-Cookie"))
	c.log.Info().Msg("login verified")
	return creds, nil
}
