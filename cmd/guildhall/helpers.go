// Shared construction helpers for the guildhall subcommands.
package main

import (
	"fmt"

	"github.com/cyberguild/guildhall/internal/store"
	"github.com/cyberguild/guildhall/internal/token"
)

// openStore opens the sqlite store, sealing emails when an email key is
// configured.
func openStore() (*store.Store, error) {
	var opts []store.Option
	if cfg.Auth.EmailKey != "" {
		key, err := token.DecodeKey(cfg.Auth.EmailKey)
		if err != nil {
			return nil, fmt.Errorf("decoding email key: %w", err)
		}
		sealer, err := token.NewSealer(key)
		if err != nil {
			return nil, fmt.Errorf("building email sealer: %w", err)
		}
		opts = append(opts, store.WithEmailCodec(sealer))
	}
	return store.Open(dataDir, opts...)
}

// newIssuer builds the token issuer from the configured signing secret.
func newIssuer() (*token.Issuer, error) {
	secret, err := token.DecodeKey(cfg.Auth.TokenSecret)
	if err != nil {
		return nil, fmt.Errorf("decoding token secret: %w", err)
	}
	return token.NewIssuer(secret, cfg.Auth.TokenTTL), nil
}
