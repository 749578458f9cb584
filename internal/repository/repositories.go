package repository

import "fest-backend/pkg/database"

// NewRepositories wires every Postgres repository to one pool
func NewRepositories(db *database.PostgresDB) *Repositories {
	return &Repositories{
		Profile:      NewProfileRepository(db),
		Team:         NewTeamRepository(db),
		Event:        NewEventRepository(db),
		Registration: NewRegistrationRepository(db),
		Channel:      NewChannelRepository(db),
		Dance:        NewDanceRepository(db),
	}
}
