// Package manager adapts broker connections to a generic resource pool.
//
// ConnectionManager answers the three questions a pool asks about its
// resources: how to create one (Connect), whether a pooled one may be handed
// out (IsValid) and whether it is permanently broken (HasBroken). It holds no
// mutable state: every Connect is independent and the classifiers only read
// the state the connection reports.
package manager
