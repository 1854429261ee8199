// Package jwt issues and verifies the account tokens returned by successful
// logins and confirmations. A token carries the account id under the "id" claim.
package jwt
