package domain

// ClientCredential is a statically configured service-client identity.
// Entries come from configuration, not the database, and are compared in
// constant time at token issuance.
type ClientCredential struct {
	ID        string
	Secret    string
	Audiences []string
}
