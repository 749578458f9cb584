// Package memstore provides an in-memory implementation of the repository
// interfaces for service and handler tests.
//
// Every mutation holds a single store-wide lock, which gives the same
// all-or-nothing behaviour the Postgres repositories get from transactions.
//
// # Usage
//
//	s := memstore.New()
//	repos := s.Repositories()
//
//	leader := s.CreateProfile(t)
//	team := s.CreateTeam(t, leader, memstore.WithMembers(a, b))
//	event := s.CreateEvent(t, memstore.WithFees(500), memstore.WithTeamSize(3, 5))
//
// Getters return copies, so tests can keep references without seeing later
// writes. Reload with s.Profile(t, id) and friends.
package memstore
