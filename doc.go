// Package identity issues and verifies identity credentials for end users.
//
// Two authentication paths are supported: local email/password registration
// and login, and delegated authentication through the OAuth
// authorization-code-with-PKCE flow (see the oauth subpackage).
//
// The package is organized around a small set of ports (UserRepository,
// AccountRepository, PasswordHasher, TokenService) that the use cases depend
// on. Adapters for a relational store live in the repository subpackage, and
// an HTTP boundary that maps the error taxonomy to status codes lives in the
// rest subpackage.
package identity
