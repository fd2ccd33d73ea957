package redis

import (
	"fmt"

	"github.com/mcoot/glow/internal/model"
)

// Key prefix for all signup data
const keyPrefix = "glow"

// accountKey returns the Redis key for an Account
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> account_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// emailIndexKey returns the Redis key for the email -> account_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// codeKey returns the Redis key for the HASH of codes issued to an email
func codeKey(email string) string {
	return fmt.Sprintf("%s:code:%s", keyPrefix, email)
}

// ventKey returns the Redis key for a stored Vent
func ventKey(id model.VentID) string {
	return fmt.Sprintf("%s:vent:%s", keyPrefix, id)
}
