// internal/app/system/auth/auth.go

// Package auth manages the signed device-session cookie mobile clients
// present on every request. The session carries the persisted user
// identifier plus onboarding progress; it is the "session identifiers"
// the health monitor inspects and the logout recovery action clears.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	userIDKey             = "user_id"
	companyIDKey          = "company_id"
	onboardingCompleteKey = "onboarding_complete"
	onboardingStepKey     = "onboarding_step"
)

// DeviceSession is the decoded session state for one device. Mutations
// only take effect once the caller persists them with
// SessionManager.Save.
type DeviceSession struct {
	UserID             string
	CompanyID          string
	OnboardingComplete bool
	OnboardingStep     string

	dirty bool
}

// Authenticated reports whether the device has a persisted user id.
func (s *DeviceSession) Authenticated() bool { return s.UserID != "" }

// CurrentUserID returns the persisted user id, or "" when signed out.
func (s *DeviceSession) CurrentUserID() string { return s.UserID }

// SetIdentity records the signed-in user and company.
func (s *DeviceSession) SetIdentity(userID, companyID string) {
	s.UserID = userID
	s.CompanyID = companyID
	s.dirty = true
}

// Clear wipes every identifier; this is the logout action.
func (s *DeviceSession) Clear() {
	s.UserID = ""
	s.CompanyID = ""
	s.OnboardingComplete = false
	s.OnboardingStep = ""
	s.dirty = true
}

// RequireOnboarding clears the onboarding-complete flag so presentation
// resumes at the given step.
func (s *DeviceSession) RequireOnboarding(step string) {
	s.OnboardingComplete = false
	s.OnboardingStep = step
	s.dirty = true
}

// CompleteOnboarding marks onboarding finished.
func (s *DeviceSession) CompleteOnboarding() {
	s.OnboardingComplete = true
	s.OnboardingStep = ""
	s.dirty = true
}

// Dirty reports whether the session has unpersisted mutations.
func (s *DeviceSession) Dirty() bool { return s.dirty }

// SessionManager wraps a gorilla cookie store for device sessions. It is
// constructed once at startup and injected; there is no package-level
// store.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a SessionManager. The key signs and
// authenticates cookies (securecookie HMAC under the hood) and must be
// strong in production.
func NewSessionManager(key, name, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if key == "" {
		return nil, errors.New("auth: session key is required")
	}
	if name == "" {
		return nil, errors.New("auth: session name is required")
	}
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   60 * 60 * 24 * 90, // field devices stay signed in ~90 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Load decodes the device session from the request. A missing or
// tampered cookie yields an empty (signed-out) session.
func (m *SessionManager) Load(r *http.Request) *DeviceSession {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		m.log.Debug("device session decode failed, treating as signed out", zap.Error(err))
		return &DeviceSession{}
	}
	return &DeviceSession{
		UserID:             getString(sess, userIDKey),
		CompanyID:          getString(sess, companyIDKey),
		OnboardingComplete: getBool(sess, onboardingCompleteKey),
		OnboardingStep:     getString(sess, onboardingStepKey),
	}
}

// Save writes the device session back to the response cookie.
func (m *SessionManager) Save(w http.ResponseWriter, r *http.Request, ds *DeviceSession) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[userIDKey] = ds.UserID
	sess.Values[companyIDKey] = ds.CompanyID
	sess.Values[onboardingCompleteKey] = ds.OnboardingComplete
	sess.Values[onboardingStepKey] = ds.OnboardingStep
	if ds.UserID == "" {
		sess.Options.MaxAge = -1 // signed out: expire the cookie
	}
	if err := sess.Save(r, w); err != nil {
		return err
	}
	ds.dirty = false
	return nil
}

type ctxKey string

const sessionCtxKey ctxKey = "deviceSession"

// CurrentSession returns the device session injected by LoadDeviceSession.
func CurrentSession(r *http.Request) (*DeviceSession, bool) {
	ds, ok := r.Context().Value(sessionCtxKey).(*DeviceSession)
	return ds, ok
}

// LoadDeviceSession is middleware that decodes the session cookie into
// the request context for every handler.
func (m *SessionManager) LoadDeviceSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ds := m.Load(r)
		ctx := context.WithValue(r.Context(), sessionCtxKey, ds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireDevice rejects requests without an authenticated device session.
func RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ds, ok := CurrentSession(r); !ok || !ds.Authenticated() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getString(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}

func getBool(s *sessions.Session, key string) bool {
	v, _ := s.Values[key].(bool)
	return v
}
