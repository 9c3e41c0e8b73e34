// Package testutil contains helpers used across tests to reduce boilerplate
// when invoking functions outside a kernel and when asserting on emitted
// events. They are not intended for production usage.
package testutil
