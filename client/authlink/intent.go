package authlink

// Intent is the explicit dispatch decision for one link: exactly which
// session-establishment protocol its parameters select. The priority
// order is fixed: an authorization code beats a token pair, which
// beats OTP verification.
type Intent interface {
	isIntent()
}

// CodeExchange trades a one-time authorization code for a session.
type CodeExchange struct {
	Code string
}

// TokenPair establishes a session directly from an implicit-flow
// fragment. Recovery marks links that must route to the reset screen
// no matter which path they encoded.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Recovery     bool
}

// OTPVerify verifies an emailed one-time token, by hash when
// available, otherwise by raw token plus email.
type OTPVerify struct {
	Type      string
	TokenHash string
	Token     string
	Email     string
}

func (CodeExchange) isIntent() {}
func (TokenPair) isIntent()    {}
func (OTPVerify) isIntent()    {}

const typeRecovery = "recovery"

// Intent selects the protocol for this link. It returns false when no
// recognized parameter combination is present; such links are ignored
// rather than surfaced as errors.
func (l Link) Intent() (Intent, bool) {
	p := l.Params

	if p.Code != "" {
		return CodeExchange{Code: p.Code}, true
	}

	if p.AccessToken != "" && p.RefreshToken != "" {
		return TokenPair{
			AccessToken:  p.AccessToken,
			RefreshToken: p.RefreshToken,
			Recovery:     p.Type == typeRecovery,
		}, true
	}

	if p.Type != "" && (p.TokenHash != "" || (p.Token != "" && p.Email != "")) {
		return OTPVerify{
			Type:      p.Type,
			TokenHash: p.TokenHash,
			Token:     p.Token,
			Email:     p.Email,
		}, true
	}

	return nil, false
}
