package database

import (
	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached creates the cache client backing read-side work lookups.
func NewMemcached(server string) *memcache.Client {
	return memcache.New(server)
}
