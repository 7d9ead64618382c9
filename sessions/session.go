package sessions

import "time"

// Record is one user's session in one table. A record moves from holding an identity
// credential (awaiting exchange) to holding an upstream token, which is refreshed in place.
// SessionID is written at login and never changed here.
type Record struct {
	Username         string         // Primary key, issued by the front-door identity broker
	SessionID        string         // Opaque id used to decide which table is live for a browser
	Token            *UpstreamToken // Set once an upstream token has been obtained
	Credential       Credential     // Identity credential awaiting exchange, nil once exchanged
	LastActivityTime time.Time      // Last successful authenticated request
	SelectedRole     *SelectedRole  // Carried through unchanged
}

// UpstreamToken is the bearer material for the clinical API gateway.
type UpstreamToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SelectedRole is the role picked by the user in the front end.
type SelectedRole struct {
	RoleID  string `json:"roleId,omitempty" dynamodbav:"roleId,omitempty"`
	OrgCode string `json:"orgCode,omitempty" dynamodbav:"orgCode,omitempty"`
}

// Credential is the identity material used to acquire a first upstream token.
// Implemented only by IDTokenCredential and AuthorizationCodeCredential.
type Credential interface {
	credential()
}

// IDTokenCredential holds the raw identity token from the real identity provider.
type IDTokenCredential struct {
	IDToken string
}

// AuthorizationCodeCredential holds the code issued by the mock identity provider.
type AuthorizationCodeCredential struct {
	Code string
}

func (IDTokenCredential) credential()           {}
func (AuthorizationCodeCredential) credential() {}

// Phase is the lifecycle position of a record.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseAwaitingIDTokenExchange
	PhaseAwaitingCodeExchange
	PhaseActiveToken
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingIDTokenExchange:
		return "awaiting_id_token_exchange"
	case PhaseAwaitingCodeExchange:
		return "awaiting_code_exchange"
	case PhaseActiveToken:
		return "active_token"
	}
	return "empty"
}

// Phase reports where the record is in its lifecycle. A held token wins over any
// credential still present.
func (r *Record) Phase() Phase {
	if r.Token != nil && r.Token.AccessToken != "" {
		return PhaseActiveToken
	}
	switch r.Credential.(type) {
	case IDTokenCredential:
		return PhaseAwaitingIDTokenExchange
	case AuthorizationCodeCredential:
		return PhaseAwaitingCodeExchange
	}
	return PhaseEmpty
}

// Update is a partial write to a record.
type Update struct {
	LastActivityTime time.Time
	Token            *UpstreamToken // nil leaves the token untouched
	ClearCredential  bool           // drop the identity credential after a successful exchange
}

// Apply writes u onto r.
func (r *Record) Apply(u Update) {
	r.LastActivityTime = u.LastActivityTime
	if u.Token != nil {
		t := *u.Token
		r.Token = &t
	}
	if u.ClearCredential {
		r.Credential = nil
	}
}

// Clone returns a deep copy so stores never hand out shared state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Token != nil {
		t := *r.Token
		c.Token = &t
	}
	if r.SelectedRole != nil {
		role := *r.SelectedRole
		c.SelectedRole = &role
	}
	return &c
}
