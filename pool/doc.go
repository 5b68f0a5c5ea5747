// Package pool runs a bounded resource pool on top of a Manager.
//
// The Manager decides how resources are created and whether they are still
// usable; the pool decides when to ask. Resources are checked with HasBroken
// and IsValid on checkout, with HasBroken on release, and idle resources are
// swept periodically. Storage and borrower queueing are provided by
// github.com/jackc/puddle/v2.
package pool
