package database

// DropStatements removes every table in dependency order
var DropStatements = []string{
	`DROP TABLE IF EXISTS dance_registrations CASCADE`,
	`DROP TABLE IF EXISTS channels CASCADE`,
	`DROP TABLE IF EXISTS cart_items CASCADE`,
	`DROP TABLE IF EXISTS processed_payments CASCADE`,
	`DROP TABLE IF EXISTS registrations CASCADE`,
	`DROP TABLE IF EXISTS events CASCADE`,
	`DROP TABLE IF EXISTS teams CASCADE`,
	`DROP TABLE IF EXISTS profiles CASCADE`,
}

// SchemaStatements creates the tables and indexes. Every statement is
// idempotent, so the list can be replayed against an existing database.
var SchemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL,
		external_auth_id TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user',
		username TEXT,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		college TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		degree TEXT NOT NULL DEFAULT '',
		onboarding_completed BOOLEAN NOT NULL DEFAULT false,
		current_team_id UUID,
		esports_team_id UUID,
		registered_events TEXT[] NOT NULL DEFAULT '{}',
		paid_events TEXT[] NOT NULL DEFAULT '{}',
		invitations UUID[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS profiles_email_key ON profiles (lower(email))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS profiles_username_key ON profiles (lower(username)) WHERE username IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		name_key TEXT NOT NULL,
		leader_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		members UUID[] NOT NULL DEFAULT '{}',
		is_locked BOOLEAN NOT NULL DEFAULT false,
		is_esports BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT teams_name_key UNIQUE (name_key),
		CONSTRAINT teams_leader_is_member CHECK (leader_id = ANY(members))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_teams_members ON teams USING GIN (members)`,
	`CREATE INDEX IF NOT EXISTS idx_teams_open ON teams (is_esports, created_at DESC) WHERE NOT is_locked`,

	`ALTER TABLE profiles DROP CONSTRAINT IF EXISTS profiles_current_team_fkey`,
	`ALTER TABLE profiles ADD CONSTRAINT profiles_current_team_fkey
		FOREIGN KEY (current_team_id) REFERENCES teams(id) ON DELETE SET NULL DEFERRABLE INITIALLY DEFERRED`,
	`ALTER TABLE profiles DROP CONSTRAINT IF EXISTS profiles_esports_team_fkey`,
	`ALTER TABLE profiles ADD CONSTRAINT profiles_esports_team_fkey
		FOREIGN KEY (esports_team_id) REFERENCES teams(id) ON DELETE SET NULL DEFERRABLE INITIALLY DEFERRED`,

	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		team_size TEXT NOT NULL DEFAULT '',
		prize TEXT NOT NULL DEFAULT '',
		rules TEXT[] NOT NULL DEFAULT '{}',
		image TEXT NOT NULL DEFAULT '',
		fees INTEGER NOT NULL DEFAULT 0 CHECK (fees >= 0),
		min_team_size INTEGER NOT NULL DEFAULT 1,
		max_team_size INTEGER NOT NULL DEFAULT 1,
		max_registrations INTEGER,
		current_registrations INTEGER NOT NULL DEFAULT 0,
		is_live BOOLEAN NOT NULL DEFAULT true,
		registration_deadline TIMESTAMPTZ,
		whatsapp_group_link TEXT NOT NULL DEFAULT '',
		discord_link TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS registrations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		team_id UUID REFERENCES teams(id) ON DELETE CASCADE,
		individual_id UUID REFERENCES profiles(id) ON DELETE CASCADE,
		event_id TEXT NOT NULL REFERENCES events(event_id) ON DELETE CASCADE ON UPDATE CASCADE,
		selected_members UUID[] NOT NULL DEFAULT '{}',
		payment_status TEXT NOT NULL DEFAULT 'initiated' CHECK (payment_status IN (
			'initiated', 'pending', 'verification_pending', 'paid', 'manual_verified', 'failed'
		)),
		amount_expected INTEGER NOT NULL DEFAULT 0,
		amount_paid INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'INR',
		gateway_order_id TEXT UNIQUE,
		gateway_payment_id TEXT NOT NULL DEFAULT '',
		gateway_signature TEXT NOT NULL DEFAULT '',
		screenshot_url TEXT NOT NULL DEFAULT '',
		verified_by TEXT,
		verified_at TIMESTAMPTZ,
		verification_notes TEXT,
		counted BOOLEAN NOT NULL DEFAULT false,
		checked_in BOOLEAN NOT NULL DEFAULT false,
		checked_in_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT registrations_owner CHECK ((team_id IS NULL) <> (individual_id IS NULL))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS registrations_team_event_key ON registrations (team_id, event_id) WHERE team_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS registrations_individual_event_key ON registrations (individual_id, event_id) WHERE individual_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_registrations_selected_members ON registrations USING GIN (selected_members)`,
	`CREATE INDEX IF NOT EXISTS idx_registrations_stale ON registrations (updated_at) WHERE payment_status IN ('initiated', 'pending')`,

	`CREATE TABLE IF NOT EXISTS processed_payments (
		payment_id TEXT PRIMARY KEY,
		registration_id UUID NOT NULL REFERENCES registrations(id) ON DELETE CASCADE,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS cart_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		event_id TEXT NOT NULL REFERENCES events(event_id) ON DELETE CASCADE ON UPDATE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS channels (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event_id TEXT NOT NULL UNIQUE REFERENCES events(event_id) ON DELETE CASCADE ON UPDATE CASCADE,
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		post_count INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS dance_registrations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		category TEXT NOT NULL CHECK (category IN ('Solo', 'Group')),
		dance_style TEXT NOT NULL,
		performance_time TEXT NOT NULL DEFAULT '',
		team_name TEXT NOT NULL DEFAULT '',
		members TEXT[] NOT NULL DEFAULT '{}',
		video_link TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'verified', 'rejected')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dance_registrations_profile ON dance_registrations (profile_id)`,
}
