package config

import "github.com/zalando/go-keyring"

const keyringService = "kgraph-graph-store"

// LookupKeyringPassword retrieves a graph-store password from the OS
// keyring when it was never set via config file or environment variable.
// Absence of a keyring entry (or an unsupported platform backend) is not
// an error: the caller simply proceeds with an empty password and the
// graph client reports a clear "credentials missing" failure.
func LookupKeyringPassword(user string) (string, error) {
	pw, err := keyring.Get(keyringService, user)
	if err != nil {
		return "", err
	}
	return pw, nil
}

// StoreKeyringPassword saves a graph-store password so future runs do
// not need NEO4J_PASSWORD in the environment.
func StoreKeyringPassword(user, password string) error {
	return keyring.Set(keyringService, user, password)
}
