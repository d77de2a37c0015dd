// Package dblock serializes Postgres-backed test packages that share one
// DATABASE_URL, since each of them truncates the ledger tables.
package dblock

import (
	"net"
	"os"
	"time"
)

const defaultLockAddr = "127.0.0.1:45432"

// Acquire blocks until this process holds the lock and returns its release
// func. OTC_TEST_LOCK_ADDR overrides the loopback address used as the lock.
func Acquire() func() {
	addr := os.Getenv("OTC_TEST_LOCK_ADDR")
	if addr == "" {
		addr = defaultLockAddr
	}
	for {
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return func() { _ = ln.Close() }
		}
		time.Sleep(50 * time.Millisecond)
	}
}
