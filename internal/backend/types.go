package backend

import "time"

// User is the hosted auth user record.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    string         `json:"created_at,omitempty"`
	ConfirmedAt  string         `json:"confirmed_at,omitempty"`
}

// Session is the token pair returned by a password sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// ExpiresAt converts ExpiresIn to an absolute time relative to issued.
func (s Session) ExpiresAt(issued time.Time) time.Time {
	return issued.Add(time.Duration(s.ExpiresIn) * time.Second)
}

// SignUpRequest is the body of a signup call.
type SignUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

// signUpResponse covers both shapes the auth API returns: a bare user when
// email confirmation is pending, or a full session when it is not.
type signUpResponse struct {
	User
	AccessToken string `json:"access_token"`
	Inner       *User  `json:"user"`
}

// apiError is the JSON error body of the auth and REST APIs.
type apiError struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Message, e.Msg, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Status summarizes backend reachability for the status command.
type Status struct {
	AuthOK    bool
	RestOK    bool
	Error     error
	CheckedAt time.Time
}
