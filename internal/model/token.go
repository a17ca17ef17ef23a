package model

// TokenManager issues and validates session tokens naming an identity.
type TokenManager interface {
	GenerateSessionToken(identityID int64) (string, error)
	ParseSessionToken(token string) (int64, error)
}
