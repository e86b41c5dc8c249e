package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one opaque JSON object as stored by the desktop shell.
// Unknown fields are preserved on every rewrite.
type Record map[string]any

type Shape int

const (
	ShapeList Shape = iota
	ShapeObject
)

// Collection is one named durable resource stored as a single file.
type Collection struct {
	Name  string
	File  string
	Shape Shape
}

var (
	CollectionProducts        = Collection{Name: "products", File: "products.json", Shape: ShapeList}
	CollectionUsers           = Collection{Name: "users", File: "users.json", Shape: ShapeList}
	CollectionTransactions    = Collection{Name: "transactions", File: "transactions.json", Shape: ShapeList}
	CollectionExpenses        = Collection{Name: "expenses", File: "expenses.json", Shape: ShapeList}
	CollectionCreditCustomers = Collection{Name: "creditCustomers", File: "creditCustomers.json", Shape: ShapeList}
	CollectionBusinessSetup   = Collection{Name: "businessSetup", File: "businessSetup.json", Shape: ShapeObject}
	CollectionSyncRuns        = Collection{Name: "syncRuns", File: "syncRuns.json", Shape: ShapeList}
)

// SnapshotCollections are the collections handed to a pulling client.
var SnapshotCollections = []Collection{
	CollectionProducts,
	CollectionUsers,
	CollectionExpenses,
	CollectionCreditCustomers,
	CollectionBusinessSetup,
	CollectionTransactions,
}

// AllCollections is every file the server owns.
var AllCollections = append(append([]Collection{}, SnapshotCollections...), CollectionSyncRuns)

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge shallow-merges patch into r.
func (r Record) Merge(patch Record) {
	for k, v := range patch {
		r[k] = v
	}
}

// ID returns the string form of r[key], or "" when absent.
func (r Record) ID(key string) string {
	return idString(r[key])
}

// Truthy reports whether r[key] holds a value a client would treat as set.
func (r Record) Truthy(key string) bool {
	return truthy(r[key])
}

// Object returns r[key] when it holds a JSON object.
func (r Record) Object(key string) (Record, bool) {
	switch v := r[key].(type) {
	case Record:
		return v, true
	case map[string]any:
		return Record(v), true
	default:
		return nil, false
	}
}

// IndexOf finds the first record whose key matches id.
func IndexOf(list []Record, key string, id string) int {
	if id == "" {
		return -1
	}
	for i, rec := range list {
		if rec.ID(key) == id {
			return i
		}
	}
	return -1
}

// PatchFrom picks the patch source of an update operation: a wrapped
// {"updates": {...}} object wins, otherwise the flat payload without its
// identifier keys.
func PatchFrom(data Record, idKeys ...string) Record {
	if updates, ok := data.Object("updates"); ok {
		return updates
	}
	patch := data.Clone()
	delete(patch, "updates")
	for _, k := range idKeys {
		delete(patch, k)
	}
	return patch
}

// FirstID returns the first non-empty identifier among keys.
func FirstID(data Record, keys ...string) (string, any) {
	for _, k := range keys {
		if id := data.ID(k); id != "" {
			return id, data[k]
		}
	}
	return "", nil
}

func idString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
