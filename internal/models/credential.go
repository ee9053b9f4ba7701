package models

import "golang.org/x/oauth2"

type Provider string

const (
	ProviderRecommender Provider = "recommender"
	ProviderCatalog     Provider = "catalog"
	ProviderTracker     Provider = "tracker"
)

// Credential is a provider's bearer token.
type Credential struct {
	Provider Provider
	Token    string
}

func (c Credential) Present() bool { return c.Token != "" }

// TokenSource exposes the token to [oauth2.NewClient] so requests carry an Authorization header.
func (c Credential) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"})
}

// Credentials groups the tokens loaded at process start.
type Credentials struct {
	Recommender Credential
	Catalog     Credential
	Tracker     Credential
}
