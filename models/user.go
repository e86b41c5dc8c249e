package models

import (
	"strings"
	"unicode"
)

const UserIDKey = "userId"

// NormalizeUser accepts "id" or "userId", keys the copy by userId and fills
// username from name when the client did not send one.
func NormalizeUser(data Record) (Record, string) {
	id, raw := FirstID(data, UserIDKey, "id")
	user := data.Clone()
	delete(user, "id")
	if id != "" {
		user[UserIDKey] = raw
	}
	if !user.Truthy("username") {
		if name, ok := user["name"].(string); ok && name != "" {
			user["username"] = DeriveUsername(name)
		}
	}
	return user, id
}

// DeriveUsername lower-cases name and strips every whitespace rune.
func DeriveUsername(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func UserLookupID(data Record) string {
	id, _ := FirstID(data, UserIDKey, "id")
	return id
}

func UserPatch(data Record) Record {
	return PatchFrom(data, UserIDKey, "id")
}
