package sessions

import "time"

// StoredRecord is the flat persisted shape shared by the store implementations.
// Expiry is epoch seconds, activity is epoch milliseconds; zero means never recorded.
type StoredRecord struct {
	Username                  string        `json:"username" dynamodbav:"username"`
	SessionID                 string        `json:"sessionId" dynamodbav:"sessionId"`
	UpstreamAccessToken       string        `json:"upstreamAccessToken,omitempty" dynamodbav:"upstreamAccessToken,omitempty"`
	UpstreamRefreshToken      string        `json:"upstreamRefreshToken,omitempty" dynamodbav:"upstreamRefreshToken,omitempty"`
	UpstreamExpiresAt         int64         `json:"upstreamExpiresAt,omitempty" dynamodbav:"upstreamExpiresAt,omitempty"`
	LastActivityTime          int64         `json:"lastActivityTime" dynamodbav:"lastActivityTime"`
	IdentityIDToken           string        `json:"identityIdToken,omitempty" dynamodbav:"identityIdToken,omitempty"`
	IdentityAuthorizationCode string        `json:"identityAuthorizationCode,omitempty" dynamodbav:"identityAuthorizationCode,omitempty"`
	SelectedRole              *SelectedRole `json:"selectedRole,omitempty" dynamodbav:"selectedRole,omitempty"`
}

// ToStored flattens r.
func (r *Record) ToStored() StoredRecord {
	s := StoredRecord{
		Username:  r.Username,
		SessionID: r.SessionID,
	}
	if !r.LastActivityTime.IsZero() {
		s.LastActivityTime = r.LastActivityTime.UnixMilli()
	}
	if r.Token != nil {
		s.UpstreamAccessToken = r.Token.AccessToken
		s.UpstreamRefreshToken = r.Token.RefreshToken
		s.UpstreamExpiresAt = r.Token.ExpiresAt.Unix()
	}
	switch c := r.Credential.(type) {
	case IDTokenCredential:
		s.IdentityIDToken = c.IDToken
	case AuthorizationCodeCredential:
		s.IdentityAuthorizationCode = c.Code
	}
	if r.SelectedRole != nil {
		role := *r.SelectedRole
		s.SelectedRole = &role
	}
	return s
}

// Record rebuilds the domain record. An id token takes precedence over a code if a
// store somehow holds both.
func (s StoredRecord) Record() *Record {
	r := &Record{
		Username:  s.Username,
		SessionID: s.SessionID,
	}
	if s.LastActivityTime != 0 {
		r.LastActivityTime = time.UnixMilli(s.LastActivityTime)
	}
	if s.UpstreamAccessToken != "" {
		r.Token = &UpstreamToken{
			AccessToken:  s.UpstreamAccessToken,
			RefreshToken: s.UpstreamRefreshToken,
			ExpiresAt:    time.Unix(s.UpstreamExpiresAt, 0),
		}
	}
	switch {
	case s.IdentityIDToken != "":
		r.Credential = IDTokenCredential{IDToken: s.IdentityIDToken}
	case s.IdentityAuthorizationCode != "":
		r.Credential = AuthorizationCodeCredential{Code: s.IdentityAuthorizationCode}
	}
	if s.SelectedRole != nil {
		role := *s.SelectedRole
		r.SelectedRole = &role
	}
	return r
}
